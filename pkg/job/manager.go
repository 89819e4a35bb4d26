// Package job owns the schedule-job state machine and drives one run
// through request building, engine invocation and result reconciliation.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openmes/aps/pkg/core"
	"github.com/openmes/aps/pkg/engine"
	"github.com/openmes/aps/pkg/reconcile"
	"github.com/openmes/aps/pkg/request"
)

// StoppedManually is the error text recorded when a running job is
// force-stopped. Stopping is a local state change only; the remote
// computation is not guaranteed to halt.
const StoppedManually = "manually stopped"

// Manager owns the job lifecycle: PENDING -> RUNNING -> SUCCEEDED/FAILED.
type Manager struct {
	store      core.Storage
	engine     engine.Engine
	builder    *request.Builder
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
}

// NewManager creates a job manager over the given storage and engine.
func NewManager(store core.Storage, eng engine.Engine) *Manager {
	return &Manager{
		store:      store,
		engine:     eng,
		builder:    request.NewBuilder(store),
		reconciler: reconcile.NewReconciler(store),
		logger:     slog.Default(),
	}
}

// WithLogger replaces the logger.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	m.reconciler.WithLogger(logger)
	return m
}

// Builder exposes the request builder for solver-parameter tuning.
func (m *Manager) Builder() *request.Builder {
	return m.builder
}

// CreateParams are the inputs for a new schedule job.
type CreateParams struct {
	HorizonStart time.Time
	HorizonEnd   time.Time
	Scope        core.ScopeSpec
	Objective    *core.ObjectiveSpec
	Constraints  *core.ConstraintSpec
	CreatedBy    string
}

// Create persists a new pending job.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*core.ScheduleJob, error) {
	if !params.HorizonEnd.After(params.HorizonStart) {
		return nil, fmt.Errorf("aps: horizon end must be after horizon start")
	}

	scope, err := core.EncodeScope(params.Scope)
	if err != nil {
		return nil, err
	}
	objective, err := core.EncodeObjective(params.Objective)
	if err != nil {
		return nil, err
	}
	constraints, err := core.EncodeConstraints(params.Constraints)
	if err != nil {
		return nil, err
	}

	job := &core.ScheduleJob{
		ID:           uuid.New().String(),
		JobNo:        generateJobNo(),
		HorizonStart: params.HorizonStart,
		HorizonEnd:   params.HorizonEnd,
		Scope:        scope,
		Objective:    objective,
		Constraints:  constraints,
		Status:       core.JobPending,
		CreatedBy:    params.CreatedBy,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Run executes a pending job synchronously: build the request, solve,
// reconcile, mark succeeded. Only pending jobs may run; the PENDING ->
// RUNNING write doubles as the state check, so a concurrent second Run
// observes core.ErrInvalidJobState. Any failure marks the job failed
// with the captured message and is returned to the caller; there is no
// automatic re-run.
func (m *Manager) Run(ctx context.Context, jobID string) (*core.SchedulePlan, error) {
	if err := m.store.TransitionJob(ctx, jobID, core.JobPending, core.JobRunning, ""); err != nil {
		return nil, err
	}

	plan, err := m.execute(ctx, jobID)
	if err != nil {
		m.logger.Error("schedule job failed", "job_id", jobID, "error", err)
		if ferr := m.store.TransitionJob(ctx, jobID, core.JobRunning, core.JobFailed, err.Error()); ferr != nil {
			// A manual stop may already have moved the job to failed.
			m.logger.Warn("could not mark job failed", "job_id", jobID, "error", ferr)
		}
		return nil, err
	}

	if err := m.store.TransitionJob(ctx, jobID, core.JobRunning, core.JobSucceeded, ""); err != nil {
		return nil, err
	}
	m.logger.Info("schedule job succeeded", "job_id", jobID, "plan_id", plan.ID)
	return plan, nil
}

func (m *Manager) execute(ctx context.Context, jobID string) (*core.SchedulePlan, error) {
	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	req, orders, err := m.builder.Build(ctx, job)
	if err != nil {
		return nil, err
	}
	m.logger.Info("invoking engine", "job_id", job.ID, "request_id", req.RequestID, "orders", len(orders))

	result, err := m.engine.SolveSync(ctx, req)
	if err != nil {
		return nil, err
	}

	return m.reconciler.Reconcile(ctx, job, orders, result)
}

// Stop force-marks a running job failed with a fixed message. The state
// change is local only; no engine-side cancellation is attempted.
func (m *Manager) Stop(ctx context.Context, jobID string) error {
	return m.store.TransitionJob(ctx, jobID, core.JobRunning, core.JobFailed, StoppedManually)
}

// Delete soft-deletes a job. Jobs with a published plan cannot be
// deleted.
func (m *Manager) Delete(ctx context.Context, jobID string) error {
	if _, err := m.store.GetJob(ctx, jobID); err != nil {
		return err
	}
	published, err := m.store.HasPublishedPlan(ctx, jobID)
	if err != nil {
		return err
	}
	if published {
		return core.ErrJobHasPublished
	}
	return m.store.DeleteJob(ctx, jobID)
}

// Get fetches a job by id.
func (m *Manager) Get(ctx context.Context, jobID string) (*core.ScheduleJob, error) {
	return m.store.GetJob(ctx, jobID)
}

// List returns jobs newest first, optionally filtered by status.
func (m *Manager) List(ctx context.Context, status core.JobStatus, limit int) ([]*core.ScheduleJob, error) {
	return m.store.ListJobs(ctx, status, limit)
}

func generateJobNo() string {
	return fmt.Sprintf("SJ-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8])
}
