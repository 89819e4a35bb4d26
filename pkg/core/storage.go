package core

import (
	"context"
)

// Storage defines the persistence layer for schedule jobs, plans and
// their children, plus the read-side order queries the request builder
// needs.
//
// Transaction runs fn against a transaction-scoped Storage; any error
// from fn rolls back every write made through it. Reconciliation and
// promote-to-best rely on this for their all-or-nothing guarantees.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Transaction executes fn atomically.
	Transaction(ctx context.Context, fn func(tx Storage) error) error

	// Schedule jobs
	CreateJob(ctx context.Context, job *ScheduleJob) error
	GetJob(ctx context.Context, jobID string) (*ScheduleJob, error)
	ListJobs(ctx context.Context, status JobStatus, limit int) ([]*ScheduleJob, error)
	// TransitionJob moves a job from one status to another in a single
	// conditional update and records errText as the job's last error.
	// Returns ErrInvalidJobState when the job is not in the from status.
	TransitionJob(ctx context.Context, jobID string, from, to JobStatus, errText string) error
	DeleteJob(ctx context.Context, jobID string) error

	// Production orders (read side, owned elsewhere)
	GetOrdersByIDs(ctx context.Context, ids []int64) ([]ProductionOrder, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]ProductionOrder, error)
	GetOrderAttributes(ctx context.Context, orderID int64) ([]OrderAttribute, error)

	// Plans
	CreatePlan(ctx context.Context, plan *SchedulePlan) error
	GetPlan(ctx context.Context, planID string) (*SchedulePlan, error)
	ListPlansByJob(ctx context.Context, jobID string) ([]*SchedulePlan, error)
	// TransitionPlan is the conditional plan-status counterpart of
	// TransitionJob; returns ErrInvalidPlanState when the plan is not in
	// the from status.
	TransitionPlan(ctx context.Context, planID string, from, to PlanStatus) error
	SetPlanRemark(ctx context.Context, planID string, remark string) error
	// ClearBest unsets IsBest on every non-deleted plan of the job;
	// MarkBest sets it on one plan. Callers pair them inside Transaction.
	ClearBest(ctx context.Context, jobID string) error
	MarkBest(ctx context.Context, planID string) error
	HasPublishedPlan(ctx context.Context, jobID string) (bool, error)

	// Buckets (ordering: bucket date, shift code, sequence)
	CreateBuckets(ctx context.Context, buckets []*PlanBucket) error
	GetBuckets(ctx context.Context, planID string) ([]*PlanBucket, error)
	GetBucket(ctx context.Context, bucketID string) (*PlanBucket, error)
	UpdateBucket(ctx context.Context, bucket *PlanBucket) error
	DeleteBucket(ctx context.Context, bucketID string) error

	// Conflicts
	CreateConflicts(ctx context.Context, conflicts []*PlanConflict) error
	GetConflicts(ctx context.Context, planID string) ([]*PlanConflict, error)
	CountConflicts(ctx context.Context, planID string, severity ConflictSeverity) (int64, error)

	// Stats (one row per plan)
	CreateStat(ctx context.Context, stat *PlanStat) error
	GetStat(ctx context.Context, planID string) (*PlanStat, error)

	// Audit
	CreateRawResult(ctx context.Context, raw *RawEngineResult) error
	CreateAdjustLog(ctx context.Context, entry *ManualAdjustLog) error
	GetAdjustLogs(ctx context.Context, planID string) ([]*ManualAdjustLog, error)
}
