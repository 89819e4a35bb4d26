// Package aps coordinates production-scheduling jobs between a planning
// application and an external optimization engine, and reconciles the
// engine's results into durable plans.
//
// This is the main package users should import. It re-exports the public
// types from the internal pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	db, _ := gorm.Open(sqlite.Open("aps.db"), &gorm.Config{})
//	store := aps.NewGormStorage(db)
//	store.Migrate(context.Background())
//
//	eng := aps.NewHTTPEngine("http://engine:8089")
//	jobs := aps.NewJobManager(store, eng)
//	plans := aps.NewPlanManager(store)
//
//	created, _ := jobs.Create(ctx, aps.CreateParams{
//	    HorizonStart: start,
//	    HorizonEnd:   end,
//	})
//	plan, err := jobs.Run(ctx, created.ID)
//	if err == nil {
//	    plans.Publish(ctx, plan.ID, "first cut", false)
//	}
package aps

import (
	"gorm.io/gorm"

	"github.com/openmes/aps/pkg/attrs"
	"github.com/openmes/aps/pkg/core"
	"github.com/openmes/aps/pkg/engine"
	"github.com/openmes/aps/pkg/job"
	"github.com/openmes/aps/pkg/plan"
	"github.com/openmes/aps/pkg/reconcile"
	"github.com/openmes/aps/pkg/request"
	"github.com/openmes/aps/pkg/storage"
)

// Type aliases for the public API surface
type (
	// ScheduleJob is one scheduling run requested against the engine.
	ScheduleJob = core.ScheduleJob

	// SchedulePlan is one solver outcome persisted for a job.
	SchedulePlan = core.SchedulePlan

	// PlanBucket is one scheduled unit of work within a plan.
	PlanBucket = core.PlanBucket

	// PlanConflict is an append-only finding attached to a plan.
	PlanConflict = core.PlanConflict

	// PlanStat is the single aggregate statistics row of a plan.
	PlanStat = core.PlanStat

	// RawEngineResult is the verbatim engine response kept for audit.
	RawEngineResult = core.RawEngineResult

	// ManualAdjustLog records one manual edit session on a draft plan.
	ManualAdjustLog = core.ManualAdjustLog

	// ProductionOrder is the read-side view of a schedulable order.
	ProductionOrder = core.ProductionOrder

	// OrderAttribute is one key/value attribute row of an order.
	OrderAttribute = core.OrderAttribute

	// JobStatus represents the current state of a schedule job.
	JobStatus = core.JobStatus

	// PlanStatus represents the current state of a schedule plan.
	PlanStatus = core.PlanStatus

	// ConflictSeverity grades a plan conflict.
	ConflictSeverity = core.ConflictSeverity

	// ScopeSpec narrows which orders a job schedules.
	ScopeSpec = core.ScopeSpec

	// ObjectiveSpec carries the user-facing weight sliders.
	ObjectiveSpec = core.ObjectiveSpec

	// ConstraintSpec carries per-job resource limit overrides.
	ConstraintSpec = core.ConstraintSpec

	// Storage defines the persistence layer.
	Storage = core.Storage

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// Engine is the gateway to the external optimization engine.
	Engine = engine.Engine

	// HTTPEngine talks JSON over HTTP to an engine deployment.
	HTTPEngine = engine.HTTPEngine

	// EngineRequest is one solve attempt sent to the engine.
	EngineRequest = engine.Request

	// EngineResult is the normalized engine response.
	EngineResult = engine.Result

	// EngineStatus is the engine-side state of an async job.
	EngineStatus = engine.Status

	// InvocationError wraps transport/protocol failures from the engine.
	InvocationError = engine.InvocationError

	// JobManager owns the job lifecycle.
	JobManager = job.Manager

	// CreateParams are the inputs for a new schedule job.
	CreateParams = job.CreateParams

	// PlanManager owns the plan lifecycle.
	PlanManager = plan.Manager

	// Change is one structural edit applied during manual adjustment.
	Change = plan.Change

	// ChangeType names a structural edit kind.
	ChangeType = plan.ChangeType

	// AdjustParams carries one manual adjustment session.
	AdjustParams = plan.AdjustParams

	// ChangeValidator is the adjustment validation extension point.
	ChangeValidator = plan.ChangeValidator

	// WorkOrderGenerator is the downstream collaborator invoked on publish.
	WorkOrderGenerator = plan.WorkOrderGenerator

	// RequestBuilder turns a job into an engine request.
	RequestBuilder = request.Builder

	// Reconciler persists engine output as a draft plan.
	Reconciler = reconcile.Reconciler

	// AttributeResolver resolves per-order attributes with defaults.
	AttributeResolver = attrs.Resolver

	// AttributeBundle is a resolved attribute set.
	AttributeBundle = attrs.Bundle
)

// Job status constants
const (
	JobPending   = core.JobPending
	JobRunning   = core.JobRunning
	JobSucceeded = core.JobSucceeded
	JobFailed    = core.JobFailed
)

// Plan status constants
const (
	PlanDraft     = core.PlanDraft
	PlanPublished = core.PlanPublished
	PlanDiscarded = core.PlanDiscarded
)

// Conflict severity constants
const (
	SeverityInfo    = core.SeverityInfo
	SeverityWarning = core.SeverityWarning
	SeverityFatal   = core.SeverityFatal
)

// Adjustment change types
const (
	ChangeMove   = plan.ChangeMove
	ChangeSwap   = plan.ChangeSwap
	ChangeDelete = plan.ChangeDelete
	ChangeInsert = plan.ChangeInsert
)

// Engine status constants
const (
	EngineRunning   = engine.StatusRunning
	EngineCompleted = engine.StatusCompleted
)

// Error variables
var (
	ErrNoOrdersInScope           = core.ErrNoOrdersInScope
	ErrOrdersNotFound            = core.ErrOrdersNotFound
	ErrInvalidJobState           = core.ErrInvalidJobState
	ErrJobNotFound               = core.ErrJobNotFound
	ErrJobHasPublished           = core.ErrJobHasPublished
	ErrPlanNotFound              = core.ErrPlanNotFound
	ErrInvalidPlanState          = core.ErrInvalidPlanState
	ErrFatalConflictsPresent     = core.ErrFatalConflictsPresent
	ErrUnsupportedAdjustmentType = core.ErrUnsupportedAdjustmentType
	ErrBucketNotFound            = core.ErrBucketNotFound
	ErrEngineJobNotFound         = core.ErrEngineJobNotFound
	ErrEngineJobNotReady         = core.ErrEngineJobNotReady
)

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewHTTPEngine creates an engine gateway for the given base URL.
func NewHTTPEngine(baseURL string, opts ...engine.HTTPOption) *HTTPEngine {
	return engine.NewHTTPEngine(baseURL, opts...)
}

// NewJobManager creates a job manager over the given storage and engine.
func NewJobManager(store Storage, eng Engine) *JobManager {
	return job.NewManager(store, eng)
}

// NewPlanManager creates a plan manager over the given storage.
func NewPlanManager(store Storage) *PlanManager {
	return plan.NewManager(store)
}

// NewRequestBuilder creates a request builder over the given storage.
func NewRequestBuilder(store Storage) *RequestBuilder {
	return request.NewBuilder(store)
}

// NewReconciler creates a reconciler writing through the given storage.
func NewReconciler(store Storage) *Reconciler {
	return reconcile.NewReconciler(store)
}

// NewAttributeResolver creates an attribute resolver over the given storage.
func NewAttributeResolver(store Storage) *AttributeResolver {
	return attrs.NewResolver(store)
}
