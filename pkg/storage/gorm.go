package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmes/aps/pkg/core"
)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying gorm handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the underlying database is SQLite.
func (s *GormStorage) IsSQLite() bool {
	if s.db == nil {
		return false
	}
	return s.db.Dialector.Name() == "sqlite"
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&core.ScheduleJob{},
		&core.SchedulePlan{},
		&core.PlanBucket{},
		&core.PlanConflict{},
		&core.PlanStat{},
		&core.RawEngineResult{},
		&core.ManualAdjustLog{},
		&core.ProductionOrder{},
		&core.OrderAttribute{},
	)
}

// Transaction runs fn against a transaction-scoped storage. Any error
// returned by fn rolls back every write made through it.
func (s *GormStorage) Transaction(ctx context.Context, fn func(tx core.Storage) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStorage{db: tx})
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Schedule jobs
// ──────────────────────────────────────────────────────────────────────────────

// CreateJob persists a new schedule job, generating its id when absent.
func (s *GormStorage) CreateJob(ctx context.Context, job *core.ScheduleJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = core.JobPending
	}
	return s.db.WithContext(ctx).Create(job).Error
}

// GetJob fetches a job by id.
func (s *GormStorage) GetJob(ctx context.Context, jobID string) (*core.ScheduleJob, error) {
	var job core.ScheduleJob
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (s *GormStorage) ListJobs(ctx context.Context, status core.JobStatus, limit int) ([]*core.ScheduleJob, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var jobs []*core.ScheduleJob
	return jobs, q.Find(&jobs).Error
}

// TransitionJob moves a job between statuses with the state check and the
// write in one conditional UPDATE, so concurrent callers racing on the
// same transition cannot both win.
func (s *GormStorage) TransitionJob(ctx context.Context, jobID string, from, to core.JobStatus, errText string) error {
	now := time.Now()
	updates := map[string]any{
		"status":     to,
		"last_error": core.SanitizeErrorText(errText),
	}
	switch to {
	case core.JobRunning:
		updates["started_at"] = now
	case core.JobSucceeded, core.JobFailed:
		updates["finished_at"] = now
	}

	result := s.db.WithContext(ctx).
		Model(&core.ScheduleJob{}).
		Where("id = ? AND status = ?", jobID, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing job from one in the wrong state.
		var count int64
		if err := s.db.WithContext(ctx).Model(&core.ScheduleJob{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return core.ErrJobNotFound
		}
		return core.ErrInvalidJobState
	}
	return nil
}

// DeleteJob soft-deletes a job.
func (s *GormStorage) DeleteJob(ctx context.Context, jobID string) error {
	result := s.db.WithContext(ctx).Delete(&core.ScheduleJob{}, "id = ?", jobID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrJobNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Production orders (read side)
// ──────────────────────────────────────────────────────────────────────────────

// GetOrdersByIDs fetches orders by id, ordered by id so natural-key
// index building is deterministic.
func (s *GormStorage) GetOrdersByIDs(ctx context.Context, ids []int64) ([]core.ProductionOrder, error) {
	var orders []core.ProductionOrder
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// GetOrdersByStatus fetches all orders in the given status, ordered by id.
func (s *GormStorage) GetOrdersByStatus(ctx context.Context, status string) ([]core.ProductionOrder, error) {
	var orders []core.ProductionOrder
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// GetOrderAttributes fetches all non-deleted attribute rows of an order,
// oldest first so "first non-blank value wins" is stable.
func (s *GormStorage) GetOrderAttributes(ctx context.Context, orderID int64) ([]core.OrderAttribute, error) {
	var attrs []core.OrderAttribute
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&attrs).Error
	return attrs, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Plans
// ──────────────────────────────────────────────────────────────────────────────

// CreatePlan persists a new plan, generating its id when absent.
func (s *GormStorage) CreatePlan(ctx context.Context, plan *core.SchedulePlan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.Status == "" {
		plan.Status = core.PlanDraft
	}
	return s.db.WithContext(ctx).Create(plan).Error
}

// GetPlan fetches a plan by id.
func (s *GormStorage) GetPlan(ctx context.Context, planID string) (*core.SchedulePlan, error) {
	var plan core.SchedulePlan
	err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlansByJob returns all non-deleted plans of a job, newest first.
func (s *GormStorage) ListPlansByJob(ctx context.Context, jobID string) ([]*core.SchedulePlan, error) {
	var plans []*core.SchedulePlan
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&plans).Error
	return plans, err
}

// TransitionPlan moves a plan between statuses with a conditional UPDATE.
func (s *GormStorage) TransitionPlan(ctx context.Context, planID string, from, to core.PlanStatus) error {
	result := s.db.WithContext(ctx).
		Model(&core.SchedulePlan{}).
		Where("id = ? AND status = ?", planID, from).
		Update("status", to)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&core.SchedulePlan{}).Where("id = ?", planID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return core.ErrPlanNotFound
		}
		return core.ErrInvalidPlanState
	}
	return nil
}

// SetPlanRemark updates a plan's free-text remark.
func (s *GormStorage) SetPlanRemark(ctx context.Context, planID string, remark string) error {
	result := s.db.WithContext(ctx).
		Model(&core.SchedulePlan{}).
		Where("id = ?", planID).
		Update("remark", remark)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrPlanNotFound
	}
	return nil
}

// ClearBest unsets IsBest on every non-deleted plan of the job.
// "No best plan" is a valid transient state between ClearBest and
// MarkBest, which is why callers wrap the pair in Transaction.
func (s *GormStorage) ClearBest(ctx context.Context, jobID string) error {
	return s.db.WithContext(ctx).
		Model(&core.SchedulePlan{}).
		Where("job_id = ? AND is_best = ?", jobID, true).
		Update("is_best", false).Error
}

// MarkBest sets IsBest on one plan.
func (s *GormStorage) MarkBest(ctx context.Context, planID string) error {
	result := s.db.WithContext(ctx).
		Model(&core.SchedulePlan{}).
		Where("id = ?", planID).
		Update("is_best", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrPlanNotFound
	}
	return nil
}

// HasPublishedPlan reports whether any non-deleted plan of the job is
// published.
func (s *GormStorage) HasPublishedPlan(ctx context.Context, jobID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&core.SchedulePlan{}).
		Where("job_id = ? AND status = ?", jobID, core.PlanPublished).
		Count(&count).Error
	return count > 0, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Buckets
// ──────────────────────────────────────────────────────────────────────────────

// CreateBuckets persists a batch of buckets, generating ids when absent.
func (s *GormStorage) CreateBuckets(ctx context.Context, buckets []*core.PlanBucket) error {
	if len(buckets) == 0 {
		return nil
	}
	for _, b := range buckets {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		if b.Qty == 0 {
			b.Qty = 1
		}
	}
	return s.db.WithContext(ctx).CreateInBatches(buckets, 200).Error
}

// GetBuckets returns the plan's buckets in schedule order.
func (s *GormStorage) GetBuckets(ctx context.Context, planID string) ([]*core.PlanBucket, error) {
	var buckets []*core.PlanBucket
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("bucket_date ASC, shift_code ASC, seq ASC").
		Find(&buckets).Error
	return buckets, err
}

// GetBucket fetches one bucket by id.
func (s *GormStorage) GetBucket(ctx context.Context, bucketID string) (*core.PlanBucket, error) {
	var bucket core.PlanBucket
	err := s.db.WithContext(ctx).First(&bucket, "id = ?", bucketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrBucketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

// UpdateBucket saves all fields of a bucket.
func (s *GormStorage) UpdateBucket(ctx context.Context, bucket *core.PlanBucket) error {
	return s.db.WithContext(ctx).Save(bucket).Error
}

// DeleteBucket removes one bucket row.
func (s *GormStorage) DeleteBucket(ctx context.Context, bucketID string) error {
	result := s.db.WithContext(ctx).Delete(&core.PlanBucket{}, "id = ?", bucketID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrBucketNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Conflicts, stats, audit
// ──────────────────────────────────────────────────────────────────────────────

// CreateConflicts persists a batch of conflicts, generating ids when absent.
func (s *GormStorage) CreateConflicts(ctx context.Context, conflicts []*core.PlanConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	for _, c := range conflicts {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
	}
	return s.db.WithContext(ctx).CreateInBatches(conflicts, 200).Error
}

// GetConflicts returns all conflicts of a plan, oldest first.
func (s *GormStorage) GetConflicts(ctx context.Context, planID string) ([]*core.PlanConflict, error) {
	var conflicts []*core.PlanConflict
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&conflicts).Error
	return conflicts, err
}

// CountConflicts counts a plan's conflicts at one severity.
func (s *GormStorage) CountConflicts(ctx context.Context, planID string, severity core.ConflictSeverity) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&core.PlanConflict{}).
		Where("plan_id = ? AND severity = ?", planID, severity).
		Count(&count).Error
	return count, err
}

// CreateStat persists the single stat row of a plan.
func (s *GormStorage) CreateStat(ctx context.Context, stat *core.PlanStat) error {
	if stat.ID == "" {
		stat.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(stat).Error
}

// GetStat fetches a plan's stat row, nil when none exists.
func (s *GormStorage) GetStat(ctx context.Context, planID string) (*core.PlanStat, error) {
	var stat core.PlanStat
	err := s.db.WithContext(ctx).First(&stat, "plan_id = ?", planID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// CreateRawResult persists the verbatim engine payload for audit.
func (s *GormStorage) CreateRawResult(ctx context.Context, raw *core.RawEngineResult) error {
	if raw.ID == "" {
		raw.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(raw).Error
}

// CreateAdjustLog appends one manual-adjustment audit row.
func (s *GormStorage) CreateAdjustLog(ctx context.Context, entry *core.ManualAdjustLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// GetAdjustLogs returns a plan's adjustment audit trail, oldest first.
func (s *GormStorage) GetAdjustLogs(ctx context.Context, planID string) ([]*core.ManualAdjustLog, error) {
	var logs []*core.ManualAdjustLog
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
