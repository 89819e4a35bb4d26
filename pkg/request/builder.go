// Package request turns a schedule job's scope, objective and constraint
// configuration into an engine-ready request.
package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openmes/aps/pkg/attrs"
	"github.com/openmes/aps/pkg/core"
	"github.com/openmes/aps/pkg/engine"
)

// Default per-process stage durations in minutes, applied when no
// routing data supplies real values.
const (
	DefaultMoldingMinutes  = 30
	DefaultTrimmingMinutes = 15
	DefaultAssemblyMinutes = 20
	DefaultPackingMinutes  = 10
)

// Default auxiliary scoring constants per order.
const (
	DefaultEnergyScore   = 1.0
	DefaultEmissionScore = 1.0
)

// Weight slider translation: sliders are 0-100, rescaled by /10; the
// color-changeover sub-weight is 1.5x the rescaled changeover weight,
// the configuration sub-weight 1.0x.
const (
	sliderScale           = 10.0
	colorChangeoverFactor = 1.5
)

// Builder constructs engine requests from schedule jobs.
type Builder struct {
	store    core.Storage
	resolver *attrs.Resolver

	// Solver parameter defaults, overridable per builder.
	Algorithm     string
	TimeBudgetSec int
	Seed          int64
}

// NewBuilder creates a request builder using the given storage for order
// lookups.
func NewBuilder(store core.Storage) *Builder {
	return &Builder{
		store:         store,
		resolver:      attrs.NewResolver(store),
		Algorithm:     engine.DefaultAlgorithm,
		TimeBudgetSec: engine.DefaultTimeBudgetSec,
		Seed:          engine.DefaultSeed,
	}
}

// Build resolves the job's order scope and produces an engine request
// plus the resolved orders (the reconciler needs them for its natural-key
// index). A fresh request id is generated per attempt.
func (b *Builder) Build(ctx context.Context, job *core.ScheduleJob) (*engine.Request, []core.ProductionOrder, error) {
	orders, err := b.resolveScope(ctx, job)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]engine.JobEntry, 0, len(orders))
	for _, order := range orders {
		bundle, err := b.resolver.Resolve(ctx, order.ID)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, engine.JobEntry{
			Key:             order.OrderNo,
			DueMS:           dueMillis(order.DueDate),
			Color:           bundle.Color,
			ConfigCode:      configCode(bundle),
			MoldCode:        bundle.MoldCode,
			FixtureCode:     bundle.Fixture,
			MoldingMinutes:  DefaultMoldingMinutes,
			TrimmingMinutes: DefaultTrimmingMinutes,
			AssemblyMinutes: DefaultAssemblyMinutes,
			PackingMinutes:  DefaultPackingMinutes,
			EnergyScore:     DefaultEnergyScore,
			EmissionScore:   DefaultEmissionScore,
		})
	}

	params, err := b.buildParams(job)
	if err != nil {
		return nil, nil, err
	}

	return &engine.Request{
		RequestID:      uuid.New().String(),
		HorizonStartMS: job.HorizonStart.UnixMilli(),
		Jobs:           entries,
		Params:         params,
	}, orders, nil
}

// resolveScope picks the orders a job schedules: explicit ids when the
// scope names them (all must exist), otherwise every approved order,
// narrowed by the process-type filter when set.
func (b *Builder) resolveScope(ctx context.Context, job *core.ScheduleJob) ([]core.ProductionOrder, error) {
	scope, err := job.ScopeSpec()
	if err != nil {
		return nil, err
	}

	if len(scope.OrderIDs) > 0 {
		ids := dedupe(scope.OrderIDs)
		orders, err := b.store.GetOrdersByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(orders) != len(ids) {
			return nil, core.ErrOrdersNotFound
		}
		return orders, nil
	}

	orders, err := b.store.GetOrdersByStatus(ctx, core.OrderApproved)
	if err != nil {
		return nil, err
	}
	if scope.ProcessType != "" {
		filtered := orders[:0]
		for _, order := range orders {
			if order.ProcessType == scope.ProcessType {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}
	if len(orders) == 0 {
		return nil, core.ErrNoOrdersInScope
	}
	return orders, nil
}

// buildParams assembles the solved-parameters block, translating the
// user sliders over the default weight vector and applying constraint
// overrides over the default limits.
func (b *Builder) buildParams(job *core.ScheduleJob) (engine.Params, error) {
	weights := engine.DefaultWeights()

	objective, err := job.ObjectiveSpec()
	if err != nil {
		return engine.Params{}, err
	}
	if objective != nil {
		weights = TranslateWeights(objective)
	}

	limits := engine.DefaultLimits()
	constraints, err := job.ConstraintSpec()
	if err != nil {
		return engine.Params{}, err
	}
	if constraints != nil {
		if constraints.MaxEnergyPerShift != nil {
			limits.MaxEnergyPerShift = *constraints.MaxEnergyPerShift
		}
		if constraints.MaxEmissionPerShift != nil {
			limits.MaxEmissionPerShift = *constraints.MaxEmissionPerShift
		}
	}

	return engine.Params{
		Algorithm:     b.Algorithm,
		TimeBudgetSec: b.TimeBudgetSec,
		Seed:          b.Seed,
		Weights:       weights,
		Limits:        limits,
	}, nil
}

// TranslateWeights rescales the 0-100 user sliders onto the engine
// weight vector. Sliders left nil keep the documented defaults.
func TranslateWeights(spec *core.ObjectiveSpec) engine.Weights {
	weights := engine.DefaultWeights()
	if spec == nil {
		return weights
	}
	if spec.OnTimeWeight != nil {
		weights.Tardiness = float64(*spec.OnTimeWeight) / sliderScale
	}
	if spec.ChangeoverWeight != nil {
		base := float64(*spec.ChangeoverWeight) / sliderScale
		weights.ColorChangeover = base * colorChangeoverFactor
		weights.ConfigChangeover = base
	}
	return weights
}

// dueMillis expresses a due date as its local midnight in epoch
// milliseconds.
func dueMillis(due time.Time) int64 {
	local := due.Local()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	return midnight.UnixMilli()
}

// configCode derives the configuration changeover key from the mold and
// fixture codes.
func configCode(bundle attrs.Bundle) string {
	if bundle.Fixture == "" {
		return bundle.MoldCode
	}
	if bundle.MoldCode == "" {
		return bundle.Fixture
	}
	return bundle.MoldCode + ":" + bundle.Fixture
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
