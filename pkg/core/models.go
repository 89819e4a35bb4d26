package core

import (
	"time"

	"gorm.io/gorm"
)

// JobStatus represents the current state of a schedule job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// PlanStatus represents the current state of a schedule plan.
// Published and discarded are terminal: no bucket, conflict or stat
// row of such a plan may be mutated afterwards.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanPublished PlanStatus = "published"
	PlanDiscarded PlanStatus = "discarded"
)

// ConflictSeverity grades a plan conflict. Fatal conflicts block publish.
type ConflictSeverity string

const (
	SeverityInfo    ConflictSeverity = "INFO"
	SeverityWarning ConflictSeverity = "WARNING"
	SeverityFatal   ConflictSeverity = "FATAL"
)

// ScheduleJob is one scheduling run requested against the optimization
// engine. Jobs are created pending, driven through running to a terminal
// succeeded/failed state by the job manager, and soft-deleted only.
//
// Scope, objective and constraint configuration are stored as opaque JSON
// blobs; the typed views live in ScopeSpec, ObjectiveSpec and
// ConstraintSpec and are (de)serialized by the job manager.
type ScheduleJob struct {
	ID           string    `gorm:"primaryKey;size:36"`
	JobNo        string    `gorm:"uniqueIndex;size:64;not null"`
	HorizonStart time.Time `gorm:"not null"`
	HorizonEnd   time.Time `gorm:"not null"`
	Scope        []byte    `gorm:"type:bytes"`
	Objective    []byte    `gorm:"type:bytes"`
	Constraints  []byte    `gorm:"type:bytes"`
	Status       JobStatus `gorm:"index;size:20;default:'pending'"`
	LastError    string    `gorm:"type:text"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedBy    string         `gorm:"size:64"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// ScopeSpec narrows which production orders a job schedules.
// Empty OrderIDs means "all approved orders".
type ScopeSpec struct {
	OrderIDs    []int64  `json:"order_ids,omitempty"`
	ProcessType string   `json:"process_type,omitempty"`
	LineIDs     []string `json:"line_ids,omitempty"`
}

// ObjectiveSpec carries the user-facing weight sliders, each 0-100.
// A nil spec (or nil slider) falls back to the engine default vector.
type ObjectiveSpec struct {
	OnTimeWeight     *int `json:"on_time_weight,omitempty"`
	ChangeoverWeight *int `json:"changeover_weight,omitempty"`
}

// ConstraintSpec carries per-job resource limit overrides.
type ConstraintSpec struct {
	MaxEnergyPerShift   *float64 `json:"max_energy_per_shift,omitempty"`
	MaxEmissionPerShift *float64 `json:"max_emission_per_shift,omitempty"`
}

// SchedulePlan is one solver outcome persisted for a job, with the KPI
// snapshot the engine reported at solve time. A plan never changes after
// it is published.
type SchedulePlan struct {
	ID     string     `gorm:"primaryKey;size:36"`
	JobID  string     `gorm:"index;size:36;not null"`
	PlanNo string     `gorm:"uniqueIndex;size:64;not null"`
	IsBest bool       `gorm:"index;default:false"`
	Status PlanStatus `gorm:"index;size:20;default:'draft'"`

	// KPI snapshot copied from the engine summary at reconciliation.
	Cost              float64
	TotalTardinessMin float64
	MaxTardinessMin   float64
	ColorChangeovers  int
	ConfigChangeovers int
	SolveMillis       int64

	Remark    string         `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Terminal reports whether the plan can no longer transition.
func (p *SchedulePlan) Terminal() bool {
	return p.Status == PlanPublished || p.Status == PlanDiscarded
}

// PlanBucket is one scheduled unit of work: an order placed on a line,
// date, shift and in-shift sequence slot. Ordering (date, shift, seq)
// is significant and preserved on copy.
type PlanBucket struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PlanID      string    `gorm:"index;size:36;not null"`
	ProcessType string    `gorm:"size:32"`
	LineID      string    `gorm:"size:64"`
	BucketDate  time.Time `gorm:"index;not null"`
	ShiftCode   string    `gorm:"size:16"`
	Seq         int       `gorm:"not null"`
	OrderID     int64     `gorm:"index;not null"`
	Qty         int       `gorm:"default:1"`

	ChangeoverFromKey string  `gorm:"size:64"`
	ChangeoverToKey   string  `gorm:"size:64"`
	ChangeoverMinutes float64 // left 0 pending downstream enrichment
	ChangeoverCost    float64

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PlanConflict is an append-only finding attached to a plan during
// reconciliation. Fatal rows block publish.
type PlanConflict struct {
	ID       string           `gorm:"primaryKey;size:36"`
	PlanID   string           `gorm:"index;size:36;not null"`
	Type     string           `gorm:"size:64"`
	Severity ConflictSeverity `gorm:"size:16;not null"`
	RefType  string           `gorm:"size:32"`
	RefID    string           `gorm:"size:64"`
	Message  string           `gorm:"type:text"`
	Payload  []byte           `gorm:"type:bytes"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PlanStat is the single aggregate statistics row of a plan. It is
// recomputed wholesale on each reconciliation or copy, never patched.
type PlanStat struct {
	ID              string  `gorm:"primaryKey;size:36"`
	PlanID          string  `gorm:"uniqueIndex;size:36;not null"`
	OnTimeRate      float64 // placeholder: 100 iff zero total tardiness
	ChangeoverCount int
	AvgLineLoad     float64 // placeholder until a real utilization calc exists

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// RawEngineResult is the verbatim engine response kept for audit and
// replay. Write-once, keyed by job.
type RawEngineResult struct {
	ID        string    `gorm:"primaryKey;size:36"`
	JobID     string    `gorm:"index;size:36;not null"`
	Payload   []byte    `gorm:"type:bytes"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ManualAdjustLog records one manual structural edit session on a draft
// plan: who changed what, when, and why. Append-only.
type ManualAdjustLog struct {
	ID        string    `gorm:"primaryKey;size:36"`
	PlanID    string    `gorm:"index;size:36;not null"`
	User      string    `gorm:"size:64"`
	Changes   []byte    `gorm:"type:bytes"`
	Remark    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
