// Package plan owns the plan state machine: publish, discard, copy,
// promote-to-best and manual structural adjustment with audit logging.
package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openmes/aps/pkg/core"
	"github.com/openmes/aps/pkg/reconcile"
)

// WorkOrderGenerator is the downstream collaborator invoked on publish
// when the caller requests work-order generation. Its semantics are
// owned by the execution subsystem, not specified here.
type WorkOrderGenerator interface {
	Generate(ctx context.Context, plan *core.SchedulePlan) error
}

// Manager owns the plan lifecycle.
type Manager struct {
	store      core.Storage
	workOrders WorkOrderGenerator
	validator  ChangeValidator
	logger     *slog.Logger
}

// NewManager creates a plan manager over the given storage.
func NewManager(store core.Storage) *Manager {
	return &Manager{
		store:     store,
		validator: structuralValidator{},
		logger:    slog.Default(),
	}
}

// WithWorkOrderGenerator wires the downstream work-order collaborator.
func (m *Manager) WithWorkOrderGenerator(gen WorkOrderGenerator) *Manager {
	m.workOrders = gen
	return m
}

// WithValidator replaces the adjustment change validator.
func (m *Manager) WithValidator(v ChangeValidator) *Manager {
	m.validator = v
	return m
}

// WithLogger replaces the logger.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	return m
}

// Publish transitions a draft plan to published. Plans with any fatal
// conflict are rejected with core.ErrFatalConflictsPresent. When
// generateWorkOrders is set and a generator is wired, it is invoked
// after the transition commits; its failure does not unpublish the plan.
func (m *Manager) Publish(ctx context.Context, planID string, remark string, generateWorkOrders bool) error {
	fatal, err := m.store.CountConflicts(ctx, planID, core.SeverityFatal)
	if err != nil {
		return err
	}
	if fatal > 0 {
		return core.ErrFatalConflictsPresent
	}

	err = m.store.Transaction(ctx, func(tx core.Storage) error {
		if err := tx.TransitionPlan(ctx, planID, core.PlanDraft, core.PlanPublished); err != nil {
			return err
		}
		if remark != "" {
			return tx.SetPlanRemark(ctx, planID, remark)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Info("plan published", "plan_id", planID)

	if generateWorkOrders && m.workOrders != nil {
		plan, err := m.store.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if err := m.workOrders.Generate(ctx, plan); err != nil {
			return fmt.Errorf("aps: work-order generation after publish: %w", err)
		}
	}
	return nil
}

// Discard transitions a non-terminal plan to discarded.
func (m *Manager) Discard(ctx context.Context, planID string) error {
	return m.store.TransitionPlan(ctx, planID, core.PlanDraft, core.PlanDiscarded)
}

// Copy duplicates any plan into a new draft with IsBest unset. Buckets
// keep their ordering fields; the stat row is duplicated when present;
// the copy's remark records its origin.
func (m *Manager) Copy(ctx context.Context, planID string) (*core.SchedulePlan, error) {
	var copied *core.SchedulePlan
	err := m.store.Transaction(ctx, func(tx core.Storage) error {
		src, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}

		copied = &core.SchedulePlan{
			ID:                uuid.New().String(),
			JobID:             src.JobID,
			PlanNo:            reconcile.GeneratePlanNo(),
			IsBest:            false,
			Status:            core.PlanDraft,
			Cost:              src.Cost,
			TotalTardinessMin: src.TotalTardinessMin,
			MaxTardinessMin:   src.MaxTardinessMin,
			ColorChangeovers:  src.ColorChangeovers,
			ConfigChangeovers: src.ConfigChangeovers,
			SolveMillis:       src.SolveMillis,
			Remark:            fmt.Sprintf("copied from %s", src.PlanNo),
		}
		if err := tx.CreatePlan(ctx, copied); err != nil {
			return err
		}

		buckets, err := tx.GetBuckets(ctx, src.ID)
		if err != nil {
			return err
		}
		dup := make([]*core.PlanBucket, 0, len(buckets))
		for _, b := range buckets {
			clone := *b
			clone.ID = uuid.New().String()
			clone.PlanID = copied.ID
			dup = append(dup, &clone)
		}
		if err := tx.CreateBuckets(ctx, dup); err != nil {
			return err
		}

		stat, err := tx.GetStat(ctx, src.ID)
		if err != nil {
			return err
		}
		if stat != nil {
			return tx.CreateStat(ctx, &core.PlanStat{
				PlanID:          copied.ID,
				OnTimeRate:      stat.OnTimeRate,
				ChangeoverCount: stat.ChangeoverCount,
				AvgLineLoad:     stat.AvgLineLoad,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// PromoteBest marks one plan as its job's best, clearing the flag on
// every sibling inside the same transaction so exactly one plan holds it
// at commit. "No best" is a valid transient state mid-transaction.
func (m *Manager) PromoteBest(ctx context.Context, planID string) error {
	return m.store.Transaction(ctx, func(tx core.Storage) error {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if err := tx.ClearBest(ctx, plan.JobID); err != nil {
			return err
		}
		return tx.MarkBest(ctx, planID)
	})
}

// Get fetches a plan by id.
func (m *Manager) Get(ctx context.Context, planID string) (*core.SchedulePlan, error) {
	return m.store.GetPlan(ctx, planID)
}

// ListByJob returns all plans of a job, newest first.
func (m *Manager) ListByJob(ctx context.Context, jobID string) ([]*core.SchedulePlan, error) {
	return m.store.ListPlansByJob(ctx, jobID)
}

// Buckets returns a plan's buckets in schedule order.
func (m *Manager) Buckets(ctx context.Context, planID string) ([]*core.PlanBucket, error) {
	return m.store.GetBuckets(ctx, planID)
}

// Conflicts returns a plan's conflicts.
func (m *Manager) Conflicts(ctx context.Context, planID string) ([]*core.PlanConflict, error) {
	return m.store.GetConflicts(ctx, planID)
}

// Stat returns a plan's stat row, nil when none exists.
func (m *Manager) Stat(ctx context.Context, planID string) (*core.PlanStat, error) {
	return m.store.GetStat(ctx, planID)
}

// AdjustLogs returns a plan's manual-adjustment audit trail.
func (m *Manager) AdjustLogs(ctx context.Context, planID string) ([]*core.ManualAdjustLog, error) {
	return m.store.GetAdjustLogs(ctx, planID)
}
