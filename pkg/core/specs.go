package core

import "encoding/json"

// ScopeSpec decodes the job's scope blob; a missing blob is an empty scope.
func (j *ScheduleJob) ScopeSpec() (ScopeSpec, error) {
	var spec ScopeSpec
	if len(j.Scope) == 0 {
		return spec, nil
	}
	err := json.Unmarshal(j.Scope, &spec)
	return spec, err
}

// ObjectiveSpec decodes the job's objective blob, nil when absent.
func (j *ScheduleJob) ObjectiveSpec() (*ObjectiveSpec, error) {
	if len(j.Objective) == 0 {
		return nil, nil
	}
	var spec ObjectiveSpec
	if err := json.Unmarshal(j.Objective, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ConstraintSpec decodes the job's constraint blob, nil when absent.
func (j *ScheduleJob) ConstraintSpec() (*ConstraintSpec, error) {
	if len(j.Constraints) == 0 {
		return nil, nil
	}
	var spec ConstraintSpec
	if err := json.Unmarshal(j.Constraints, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// EncodeScope serializes a scope spec for storage on a job.
func EncodeScope(spec ScopeSpec) ([]byte, error) {
	return json.Marshal(spec)
}

// EncodeObjective serializes an objective spec, nil in nil out.
func EncodeObjective(spec *ObjectiveSpec) ([]byte, error) {
	if spec == nil {
		return nil, nil
	}
	return json.Marshal(spec)
}

// EncodeConstraints serializes a constraint spec, nil in nil out.
func EncodeConstraints(spec *ConstraintSpec) ([]byte, error) {
	if spec == nil {
		return nil, nil
	}
	return json.Marshal(spec)
}
