package execution

import "time"

// RunRecord captures the outcome of one top-level run for later inspection.
// Records live in the runtime's DAO for the lifetime of the process only.
type RunRecord struct {
	ID          string     `json:"id"`
	RootUnit    string     `json:"rootUnit"`
	Input       string     `json:"input"`
	State       RunState   `json:"state"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	History     []string   `json:"history,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Clone returns a deep copy so stored records stay isolated from caller
// mutation.
func (r *RunRecord) Clone() *RunRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Result = r.Result.Clone()
	clone.History = append([]string(nil), r.History...)
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		clone.CompletedAt = &at
	}
	return &clone
}

// Finish transitions the record into a terminal state.
func (r *RunRecord) Finish(state RunState, result *Result, err error, at time.Time) {
	r.State = state
	r.Result = result
	if err != nil {
		r.Error = err.Error()
	}
	r.CompletedAt = &at
}
