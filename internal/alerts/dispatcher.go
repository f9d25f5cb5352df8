// Package alerts inspects transaction and budget state after writes and
// emits notifications for anomalies and threshold breaches.
package alerts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/casaflow/casaflow/internal/analytics"
	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/service"
)

// Detection thresholds.
const (
	// anomalyFactor is how many times the trailing average a transaction
	// must reach to count as an anomaly.
	anomalyFactor = 3.0
	// anomalyFloor is the minimum amount an anomaly must exceed.
	anomalyFloor = 100.0
	// anomalyWindow is how far back the trailing average looks.
	anomalyWindow = 30 * 24 * time.Hour
	// anomalySample caps how many recent transactions feed the average.
	anomalySample = 50
	// anomalyMinSample is the minimum number of prior transactions required
	// before anomaly detection activates.
	anomalyMinSample = 5
	// highValueFloor is the amount above which a transaction always alerts.
	highValueFloor = 1000.0
	// dedupWindow suppresses repeat budget alerts for the same category.
	dedupWindow = 24 * time.Hour
)

// Dispatcher emits notifications after transaction writes. Every check is
// best-effort: failures are logged and swallowed so a notification fault can
// never fail the write that triggered it.
type Dispatcher struct {
	store    service.Storage
	analyzer *analytics.Analyzer
	now      func() time.Time
}

// NewDispatcher creates a dispatcher backed by the given store and analyzer.
func NewDispatcher(store service.Storage, analyzer *analytics.Analyzer) *Dispatcher {
	return &Dispatcher{
		store:    store,
		analyzer: analyzer,
		now:      time.Now,
	}
}

// WithClock overrides the dispatcher's clock. Intended for tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// TransactionWritten runs the full post-write inspection pass for a created
// or updated transaction.
func (d *Dispatcher) TransactionWritten(ctx context.Context, txn model.Transaction) {
	d.checkAnomaly(ctx, txn)
	d.checkHighValue(ctx, txn)
	d.checkAutoCategorized(ctx, txn)
	d.CheckBudgets(ctx, txn.TeamID)
}

// CheckBudgets re-runs budget analytics for the team and alerts on budgets
// in warning or over status, de-duplicating by category name within the
// trailing 24 hours.
func (d *Dispatcher) CheckBudgets(ctx context.Context, teamID string) {
	statuses, err := d.analyzer.Analyze(ctx, teamID, 0, 0)
	if err != nil {
		common.LogError(err, "budget check failed", common.Fields{"team": teamID})
		return
	}

	for _, status := range statuses {
		if status.Status == service.BudgetGood {
			continue
		}

		name := status.CategoryName
		if name == "" {
			name = fmt.Sprintf("category %d", status.Budget.CategoryID)
		}

		seen, err := d.store.HasRecentAlert(ctx, teamID, name, d.now().UTC().Add(-dedupWindow))
		if err != nil {
			common.LogError(err, "alert dedup check failed", common.Fields{"team": teamID, "category": name})
			continue
		}
		if seen {
			continue
		}

		var title, body string
		if status.Status == service.BudgetOver {
			title = fmt.Sprintf("Budget exceeded: %s", name)
			body = fmt.Sprintf("Spending on %s is %.2f over its budget of %.2f.",
				name, status.Spent-status.Budget.Amount, status.Budget.Amount)
		} else {
			title = fmt.Sprintf("Budget warning: %s", name)
			body = fmt.Sprintf("%.0f%% of the %s budget is used; %.2f remaining.",
				status.Percentage, name, status.Remaining)
		}

		d.broadcast(ctx, teamID, model.NotificationAlert, title, body)
	}
}

// TeamActivity fans out an informational notice about a membership or
// team-configuration change to every active member.
func (d *Dispatcher) TeamActivity(ctx context.Context, teamID, title, body string) {
	d.broadcast(ctx, teamID, model.NotificationInfo, title, body)
}

// checkAnomaly compares the transaction against the team's trailing average
// spend.
func (d *Dispatcher) checkAnomaly(ctx context.Context, txn model.Transaction) {
	since := d.now().UTC().Add(-anomalyWindow)
	recent, err := d.store.RecentTransactions(ctx, txn.TeamID, since, anomalySample)
	if err != nil {
		common.LogError(err, "anomaly check failed", common.Fields{"team": txn.TeamID})
		return
	}

	var total float64
	var count int
	for _, other := range recent {
		if other.ID == txn.ID {
			continue
		}
		total += math.Abs(other.Amount)
		count++
	}
	if count <= anomalyMinSample {
		return
	}

	mean := total / float64(count)
	amount := math.Abs(txn.Amount)
	if amount < anomalyFactor*mean || amount <= anomalyFloor {
		return
	}

	d.broadcast(ctx, txn.TeamID, model.NotificationAlert,
		"Unusual expense detected",
		fmt.Sprintf("%q for %.2f is well above the recent average of %.2f.",
			txn.Description, amount, mean))
}

// checkHighValue alerts on any transaction above the fixed high-value floor,
// independent of the anomaly check.
func (d *Dispatcher) checkHighValue(ctx context.Context, txn model.Transaction) {
	amount := math.Abs(txn.Amount)
	if amount <= highValueFloor {
		return
	}

	d.broadcast(ctx, txn.TeamID, model.NotificationAlert,
		"High-value expense",
		fmt.Sprintf("%q was recorded for %.2f.", txn.Description, amount))
}

// checkAutoCategorized tells the recording user which category a rule chose
// for their transaction.
func (d *Dispatcher) checkAutoCategorized(ctx context.Context, txn model.Transaction) {
	if !txn.AISuggested || txn.CategoryID == nil {
		return
	}

	categoryName := fmt.Sprintf("category %d", *txn.CategoryID)
	if category, err := d.store.GetCategory(ctx, txn.TeamID, *txn.CategoryID); err == nil {
		categoryName = category.Name
	}

	notification := &model.Notification{
		TeamID:    txn.TeamID,
		UserID:    txn.UserID,
		Title:     "Transaction auto-categorized",
		Body:      fmt.Sprintf("%q was assigned to %s.", txn.Description, categoryName),
		Type:      model.NotificationInfo,
		CreatedAt: d.now().UTC(),
	}
	if err := d.store.CreateNotification(ctx, notification); err != nil {
		common.LogError(err, "failed to emit auto-categorization notice", common.Fields{
			"team":        txn.TeamID,
			"transaction": txn.ID,
		})
	}
}

// broadcast fans one notification out to every active team member.
func (d *Dispatcher) broadcast(ctx context.Context, teamID string, typ model.NotificationType, title, body string) {
	members, err := d.store.GetMembers(ctx, teamID)
	if err != nil {
		common.LogError(err, "failed to load members for broadcast", common.Fields{"team": teamID})
		return
	}

	for _, member := range members {
		if !member.IsActive {
			continue
		}
		notification := &model.Notification{
			TeamID:    teamID,
			UserID:    member.UserID,
			Title:     title,
			Body:      body,
			Type:      typ,
			CreatedAt: d.now().UTC(),
		}
		if err := d.store.CreateNotification(ctx, notification); err != nil {
			common.LogError(err, "failed to emit notification", common.Fields{
				"team": teamID,
				"user": member.UserID,
			})
		}
	}
}
