package pipeline

import (
	"errors"
	"time"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StagePlanner    Stage = "planner"
	StageStoryboard Stage = "storyboard"
	StagePolish     Stage = "polish"
	StageIcons      Stage = "icons"
	StageCritic     Stage = "critic"
	StageSafety     Stage = "safety"
	StageFinalize   Stage = "finalize"
)

// Stages lists the stages in run order.
var Stages = []Stage{StagePlanner, StageStoryboard, StagePolish, StageIcons, StageCritic, StageSafety, StageFinalize}

// State is the outcome of one stage.
type State string

const (
	StateNotAttempted State = "not_attempted"
	StateSucceeded    State = "succeeded"
	StateFallback     State = "fallback" // failed, deterministic fallback used
	StateSkipped      State = "skipped"  // not run, e.g. budget exhausted
)

// ErrInvalidTransition is returned when a stage state change is not allowed.
var ErrInvalidTransition = errors.New("invalid stage state transition")

// ValidTransitions defines allowed stage state transitions. A stage settles
// exactly once.
var ValidTransitions = map[State][]State{
	StateNotAttempted: {StateSucceeded, StateFallback, StateSkipped},
	StateSucceeded:    {},
	StateFallback:     {},
	StateSkipped:      {},
}

// CanTransitionTo checks if a transition from current state to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts the transition and returns an error if invalid.
func (s State) TransitionTo(target State) (State, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// Report records how a stage ended.
type Report struct {
	Stage    Stage         `json:"stage"`
	State    State         `json:"state"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Reason   string        `json:"reason,omitempty"`
	Code     string        `json:"code,omitempty"`
}

// Trace holds one report per stage in run order.
type Trace struct {
	reports []Report
	index   map[Stage]int
}

func newTrace() *Trace {
	t := &Trace{index: map[Stage]int{}}
	for _, s := range Stages {
		t.index[s] = len(t.reports)
		t.reports = append(t.reports, Report{Stage: s, State: StateNotAttempted})
	}
	return t
}

// settle moves a stage out of not_attempted.
func (t *Trace) settle(r Report) error {
	i := t.index[r.Stage]
	next, err := t.reports[i].State.TransitionTo(r.State)
	if err != nil {
		return err
	}
	r.State = next
	t.reports[i] = r
	return nil
}

// Get returns the report for stage.
func (t *Trace) Get(stage Stage) Report {
	return t.reports[t.index[stage]]
}

// Reports returns every report in run order.
func (t *Trace) Reports() []Report {
	return append([]Report(nil), t.reports...)
}
