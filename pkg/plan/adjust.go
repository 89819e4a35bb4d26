package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openmes/aps/pkg/core"
)

// ChangeType names a structural edit on a plan's buckets.
type ChangeType string

const (
	ChangeMove   ChangeType = "move"
	ChangeSwap   ChangeType = "swap"
	ChangeDelete ChangeType = "delete"
	ChangeInsert ChangeType = "insert"
)

// Change is one structural edit. Which fields matter depends on Type:
//
//	move:   BucketID plus any of LineID/ShiftCode/Date/Seq to change
//	swap:   BucketID and OtherBucketID exchange their slots
//	delete: BucketID
//	insert: OrderID plus the full slot (LineID, ShiftCode, Date, Seq)
type Change struct {
	Type          ChangeType `json:"type"`
	BucketID      string     `json:"bucket_id,omitempty"`
	OtherBucketID string     `json:"other_bucket_id,omitempty"`
	LineID        string     `json:"line_id,omitempty"`
	ShiftCode     string     `json:"shift_code,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Seq           *int       `json:"seq,omitempty"`
	OrderID       int64      `json:"order_id,omitempty"`
	ProcessType   string     `json:"process_type,omitempty"`
}

// ChangeValidator is the extension point for per-change validation.
// The default validator checks structural well-formedness only; richer
// rules (capacity, calendar, tooling) belong to the caller's domain.
type ChangeValidator interface {
	Validate(plan *core.SchedulePlan, change Change) error
}

type structuralValidator struct{}

func (structuralValidator) Validate(_ *core.SchedulePlan, change Change) error {
	switch change.Type {
	case ChangeMove, ChangeDelete:
		if change.BucketID == "" {
			return fmt.Errorf("aps: %s change requires a bucket id", change.Type)
		}
	case ChangeSwap:
		if change.BucketID == "" || change.OtherBucketID == "" {
			return fmt.Errorf("aps: swap change requires two bucket ids")
		}
		if change.BucketID == change.OtherBucketID {
			return fmt.Errorf("aps: swap change requires two distinct buckets")
		}
	case ChangeInsert:
		if change.OrderID == 0 {
			return fmt.Errorf("aps: insert change requires an order id")
		}
		if change.LineID == "" || change.ShiftCode == "" || change.Date == nil || change.Seq == nil {
			return fmt.Errorf("aps: insert change requires a full line/shift/date/seq slot")
		}
	default:
		return core.ErrUnsupportedAdjustmentType
	}
	return nil
}

// AdjustParams carries one manual adjustment session.
type AdjustParams struct {
	User    string
	Changes []Change
	Remark  string
}

// Adjust applies an ordered list of structural changes to a draft plan
// and appends one audit row capturing the acting user, the full change
// list and the remark. The whole session is one transaction. KPI and
// conflict figures are not recomputed and go stale after an edit; that
// recomputation is a follow-on concern owned by the caller.
func (m *Manager) Adjust(ctx context.Context, planID string, params AdjustParams) error {
	return m.store.Transaction(ctx, func(tx core.Storage) error {
		target, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if target.Status != core.PlanDraft {
			return core.ErrInvalidPlanState
		}

		for _, change := range params.Changes {
			if err := m.validator.Validate(target, change); err != nil {
				return err
			}
			if err := applyChange(ctx, tx, target, change); err != nil {
				return err
			}
		}

		changes, err := json.Marshal(params.Changes)
		if err != nil {
			return err
		}
		return tx.CreateAdjustLog(ctx, &core.ManualAdjustLog{
			PlanID:  planID,
			User:    params.User,
			Changes: changes,
			Remark:  params.Remark,
		})
	})
}

func applyChange(ctx context.Context, tx core.Storage, target *core.SchedulePlan, change Change) error {
	switch change.Type {
	case ChangeMove:
		return applyMove(ctx, tx, target, change)
	case ChangeSwap:
		return applySwap(ctx, tx, target, change)
	case ChangeDelete:
		bucket, err := planBucket(ctx, tx, target, change.BucketID)
		if err != nil {
			return err
		}
		return tx.DeleteBucket(ctx, bucket.ID)
	case ChangeInsert:
		return tx.CreateBuckets(ctx, []*core.PlanBucket{{
			PlanID:      target.ID,
			ProcessType: change.ProcessType,
			LineID:      change.LineID,
			BucketDate:  *change.Date,
			ShiftCode:   change.ShiftCode,
			Seq:         *change.Seq,
			OrderID:     change.OrderID,
			Qty:         1,
		}})
	default:
		return core.ErrUnsupportedAdjustmentType
	}
}

func applyMove(ctx context.Context, tx core.Storage, target *core.SchedulePlan, change Change) error {
	bucket, err := planBucket(ctx, tx, target, change.BucketID)
	if err != nil {
		return err
	}
	if change.LineID != "" {
		bucket.LineID = change.LineID
	}
	if change.ShiftCode != "" {
		bucket.ShiftCode = change.ShiftCode
	}
	if change.Date != nil {
		bucket.BucketDate = *change.Date
	}
	if change.Seq != nil {
		bucket.Seq = *change.Seq
	}
	return tx.UpdateBucket(ctx, bucket)
}

func applySwap(ctx context.Context, tx core.Storage, target *core.SchedulePlan, change Change) error {
	a, err := planBucket(ctx, tx, target, change.BucketID)
	if err != nil {
		return err
	}
	b, err := planBucket(ctx, tx, target, change.OtherBucketID)
	if err != nil {
		return err
	}

	a.LineID, b.LineID = b.LineID, a.LineID
	a.BucketDate, b.BucketDate = b.BucketDate, a.BucketDate
	a.ShiftCode, b.ShiftCode = b.ShiftCode, a.ShiftCode
	a.Seq, b.Seq = b.Seq, a.Seq

	if err := tx.UpdateBucket(ctx, a); err != nil {
		return err
	}
	return tx.UpdateBucket(ctx, b)
}

// planBucket fetches a bucket and checks it belongs to the plan being
// adjusted.
func planBucket(ctx context.Context, tx core.Storage, target *core.SchedulePlan, bucketID string) (*core.PlanBucket, error) {
	bucket, err := tx.GetBucket(ctx, bucketID)
	if err != nil {
		return nil, err
	}
	if bucket.PlanID != target.ID {
		return nil, core.ErrBucketNotFound
	}
	return bucket, nil
}
