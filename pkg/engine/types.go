package engine

// Default solver parameters used when a job supplies no overrides.
const (
	DefaultAlgorithm     = "sa"
	DefaultTimeBudgetSec = 10
	DefaultSeed          = 42
)

// Default objective weight vector.
const (
	DefaultTardinessWeight        = 10.0
	DefaultColorChangeoverWeight  = 50.0
	DefaultConfigChangeoverWeight = 30.0
	DefaultEnergyExcessWeight     = 2.0
	DefaultEmissionExcessWeight   = 3.0
	DefaultMaterialShortageWeight = 0.0
)

// Default per-shift resource limits.
const (
	DefaultMaxEnergyPerShift   = 5000.0
	DefaultMaxEmissionPerShift = 2500.0
)

// Weights is the objective weight vector sent to the engine.
type Weights struct {
	Tardiness        float64 `json:"tardiness"`
	ColorChangeover  float64 `json:"color_changeover"`
	ConfigChangeover float64 `json:"config_changeover"`
	EnergyExcess     float64 `json:"energy_excess"`
	EmissionExcess   float64 `json:"emission_excess"`
	MaterialShortage float64 `json:"material_shortage"`
}

// DefaultWeights returns the documented default weight vector.
func DefaultWeights() Weights {
	return Weights{
		Tardiness:        DefaultTardinessWeight,
		ColorChangeover:  DefaultColorChangeoverWeight,
		ConfigChangeover: DefaultConfigChangeoverWeight,
		EnergyExcess:     DefaultEnergyExcessWeight,
		EmissionExcess:   DefaultEmissionExcessWeight,
		MaterialShortage: DefaultMaterialShortageWeight,
	}
}

// Limits caps per-shift resource consumption.
type Limits struct {
	MaxEnergyPerShift   float64 `json:"max_energy_per_shift"`
	MaxEmissionPerShift float64 `json:"max_emission_per_shift"`
}

// DefaultLimits returns the documented default resource limits.
func DefaultLimits() Limits {
	return Limits{
		MaxEnergyPerShift:   DefaultMaxEnergyPerShift,
		MaxEmissionPerShift: DefaultMaxEmissionPerShift,
	}
}

// Params is the solved-parameters block of a request.
type Params struct {
	Algorithm     string  `json:"algorithm"`
	TimeBudgetSec int     `json:"time_budget_sec"`
	Seed          int64   `json:"seed"`
	Weights       Weights `json:"weights"`
	Limits        Limits  `json:"limits"`
}

// JobEntry is one order as the engine sees it, addressed by its natural
// key rather than any internal id.
type JobEntry struct {
	Key             string  `json:"key"`
	DueMS           int64   `json:"due_ms"`
	Color           string  `json:"color"`
	ConfigCode      string  `json:"config_code"`
	MoldCode        string  `json:"mold_code"`
	FixtureCode     string  `json:"fixture_code"`
	MoldingMinutes  int     `json:"molding_minutes"`
	TrimmingMinutes int     `json:"trimming_minutes"`
	AssemblyMinutes int     `json:"assembly_minutes"`
	PackingMinutes  int     `json:"packing_minutes"`
	EnergyScore     float64 `json:"energy_score"`
	EmissionScore   float64 `json:"emission_score"`
}

// Request is one solve attempt. RequestID is caller-generated and unique
// per attempt.
type Request struct {
	RequestID      string     `json:"request_id"`
	HorizonStartMS int64      `json:"horizon_start_ms"`
	Jobs           []JobEntry `json:"jobs"`
	Params         Params     `json:"params"`
}

// Summary is the engine's KPI summary of a solve.
type Summary struct {
	Cost              float64 `json:"cost"`
	TotalTardinessMin float64 `json:"total_tardiness_min"`
	MaxTardinessMin   float64 `json:"max_tardiness_min"`
	ColorChangeovers  int     `json:"color_changeovers"`
	ConfigChangeovers int     `json:"config_changeovers"`
	ElapsedMillis     int64   `json:"elapsed_ms"`
}

// ScheduleItem is one scheduled unit in the engine output, addressed by
// natural key.
type ScheduleItem struct {
	Key         string `json:"key"`
	ProcessType string `json:"process_type"`
	LineID      string `json:"line_id"`
	ShiftID     string `json:"shift_id"`
	Seq         int    `json:"seq"`
	StartMS     int64  `json:"start_ms"`
}

// Violation is one per-shift resource violation reported by the engine.
type Violation struct {
	ShiftID string  `json:"shift_id"`
	Type    string  `json:"type"`
	Excess  float64 `json:"excess"`
}

// Result is the normalized engine response. Raw holds the verbatim
// response body as received on the wire, kept for the audit copy; it is
// not part of the JSON shape itself.
type Result struct {
	Summary          *Summary       `json:"summary,omitempty"`
	Schedule         []ScheduleItem `json:"schedule,omitempty"`
	DetailedSchedule []ScheduleItem `json:"detailed_schedule,omitempty"`
	Violations       []Violation    `json:"violations,omitempty"`

	Raw []byte `json:"-"`
}

// Items returns the detailed schedule when present, falling back to the
// simplified schedule list.
func (r *Result) Items() []ScheduleItem {
	if len(r.DetailedSchedule) > 0 {
		return r.DetailedSchedule
	}
	return r.Schedule
}
