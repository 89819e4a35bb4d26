// Package reconcile maps the engine's natural-key-addressed output back
// to internal order ids and persists the resulting plan atomically.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openmes/aps/pkg/core"
	"github.com/openmes/aps/pkg/engine"
)

// Conflict and reference type names written during reconciliation.
const (
	ConflictShiftViolation = "shift_violation"
	RefTypeShift           = "shift"
)

// avgLineLoadPlaceholder is written until a real utilization calculation
// exists; line capacity data lives outside this subsystem.
const avgLineLoadPlaceholder = 0.0

// Reconciler persists engine output as a draft plan with its buckets,
// conflicts and stat row, all in one transaction.
type Reconciler struct {
	store  core.Storage
	logger *slog.Logger
}

// NewReconciler creates a reconciler writing through the given storage.
func NewReconciler(store core.Storage) *Reconciler {
	return &Reconciler{store: store, logger: slog.Default()}
}

// WithLogger replaces the logger.
func (r *Reconciler) WithLogger(logger *slog.Logger) *Reconciler {
	r.logger = logger
	return r
}

// Reconcile persists the engine result for a job. orders is the resolved
// scope the request was built from; it supplies the natural-key index.
// Everything happens in one transaction: on any failure no raw result,
// plan, bucket, conflict or stat row is retained.
func (r *Reconciler) Reconcile(ctx context.Context, job *core.ScheduleJob, orders []core.ProductionOrder, result *engine.Result) (*core.SchedulePlan, error) {
	raw := result.Raw
	if len(raw) == 0 {
		// Engines reached through non-HTTP adapters may not carry wire
		// bytes; serialize the normalized form for the audit copy.
		var err error
		raw, err = json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("serialize engine result: %w", err)
		}
	}

	index := buildKeyIndex(orders)

	var plan *core.SchedulePlan
	err := r.store.Transaction(ctx, func(tx core.Storage) error {
		if err := tx.CreateRawResult(ctx, &core.RawEngineResult{
			JobID:   job.ID,
			Payload: raw,
		}); err != nil {
			return err
		}

		plan = newDraftPlan(job, result.Summary)
		if err := tx.CreatePlan(ctx, plan); err != nil {
			return err
		}

		buckets := r.buildBuckets(job, plan, index, result.Items())
		if err := tx.CreateBuckets(ctx, buckets); err != nil {
			return err
		}

		if err := tx.CreateConflicts(ctx, buildConflicts(plan, result.Violations)); err != nil {
			return err
		}

		return tx.CreateStat(ctx, buildStat(plan, result.Summary))
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// buildKeyIndex maps natural keys to internal order ids. On duplicate
// keys the first-encountered order wins; this is documented policy, not
// an error.
func buildKeyIndex(orders []core.ProductionOrder) map[string]int64 {
	index := make(map[string]int64, len(orders))
	for _, order := range orders {
		if order.OrderNo == "" {
			continue
		}
		if _, ok := index[order.OrderNo]; ok {
			continue
		}
		index[order.OrderNo] = order.ID
	}
	return index
}

func newDraftPlan(job *core.ScheduleJob, summary *engine.Summary) *core.SchedulePlan {
	plan := &core.SchedulePlan{
		ID:     uuid.New().String(),
		JobID:  job.ID,
		PlanNo: GeneratePlanNo(),
		IsBest: true,
		Status: core.PlanDraft,
	}
	if summary != nil {
		plan.Cost = summary.Cost
		plan.TotalTardinessMin = summary.TotalTardinessMin
		plan.MaxTardinessMin = summary.MaxTardinessMin
		plan.ColorChangeovers = summary.ColorChangeovers
		plan.ConfigChangeovers = summary.ConfigChangeovers
		plan.SolveMillis = summary.ElapsedMillis
	}
	return plan
}

// buildBuckets translates scheduled items into bucket rows. Items whose
// natural key does not resolve are skipped with a warning rather than
// failing the batch.
func (r *Reconciler) buildBuckets(job *core.ScheduleJob, plan *core.SchedulePlan, index map[string]int64, items []engine.ScheduleItem) []*core.PlanBucket {
	buckets := make([]*core.PlanBucket, 0, len(items))
	for _, item := range items {
		orderID, ok := index[item.Key]
		if !ok {
			r.logger.Warn("dropping engine item with unresolvable natural key",
				"job_id", job.ID, "key", item.Key, "line", item.LineID, "shift", item.ShiftID)
			continue
		}
		buckets = append(buckets, &core.PlanBucket{
			PlanID:      plan.ID,
			ProcessType: item.ProcessType,
			LineID:      item.LineID,
			BucketDate:  businessDate(item.StartMS),
			ShiftCode:   item.ShiftID,
			Seq:         item.Seq,
			OrderID:     orderID,
			Qty:         1,
			// Changeover minutes stay 0 pending downstream enrichment.
		})
	}
	return buckets
}

func buildConflicts(plan *core.SchedulePlan, violations []engine.Violation) []*core.PlanConflict {
	conflicts := make([]*core.PlanConflict, 0, len(violations))
	for _, v := range violations {
		payload, _ := json.Marshal(v)
		conflicts = append(conflicts, &core.PlanConflict{
			PlanID:   plan.ID,
			Type:     ConflictShiftViolation,
			Severity: core.SeverityWarning,
			RefType:  RefTypeShift,
			RefID:    v.ShiftID,
			Message:  fmt.Sprintf("shift %s: %s exceeded by %.2f", v.ShiftID, v.Type, v.Excess),
			Payload:  payload,
		})
	}
	return conflicts
}

// buildStat computes the plan's single stat row. The OTD formula
// (100 iff zero total tardiness, else 0) is an acknowledged placeholder,
// as is the average line load constant.
func buildStat(plan *core.SchedulePlan, summary *engine.Summary) *core.PlanStat {
	stat := &core.PlanStat{
		PlanID:      plan.ID,
		AvgLineLoad: avgLineLoadPlaceholder,
	}
	if summary == nil {
		stat.OnTimeRate = 100
		return stat
	}
	if summary.TotalTardinessMin == 0 {
		stat.OnTimeRate = 100
	}
	stat.ChangeoverCount = summary.ColorChangeovers + summary.ConfigChangeovers
	return stat
}

// businessDate derives the bucket's business date from the item's epoch
// start, truncated to local midnight.
func businessDate(startMS int64) time.Time {
	t := time.UnixMilli(startMS).Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// GeneratePlanNo produces a readable, unique plan number.
func GeneratePlanNo() string {
	return fmt.Sprintf("SP-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8])
}
