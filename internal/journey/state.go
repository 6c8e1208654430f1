package journey

import "time"

// Failure records one SOFT step failure.
type Failure struct {
	Step   string `json:"failure"`
	Reason string `json:"reason"`
}

// StepStatus is the outcome of one executed step.
type StepStatus string

const (
	StepPassed StepStatus = "passed"
	StepFailed StepStatus = "failed"
)

// StepRecord is what the run remembers about an executed step.
type StepRecord struct {
	Number       int
	Category     string
	CategoryStep int
	Description  string
	Policy       Policy
	Status       StepStatus
	Start        time.Duration
	Elapsed      time.Duration
	Error        string
}

// State is the bookkeeping of one journey execution. It is only touched from
// the single sequential execution path.
type State struct {
	step          int
	categorySteps map[string]int
	failures      []Failure
	hardFailure   string
	records       []StepRecord
}

func NewState() *State {
	return &State{
		step:          1,
		categorySteps: make(map[string]int),
	}
}

// next allocates the global and per-category numbers for a new step.
func (s *State) next(category string) (int, int) {
	n := s.step
	s.step++
	if _, ok := s.categorySteps[category]; !ok {
		s.categorySteps[category] = 1
	}
	c := s.categorySteps[category]
	s.categorySteps[category]++
	return n, c
}

// NextStep is the global number the next step will get.
func (s *State) NextStep() int { return s.step }

// CategoryCounter is the number the next step in category will get, or 0 if
// no step of that category has run.
func (s *State) CategoryCounter(category string) int { return s.categorySteps[category] }

func (s *State) Failures() []Failure { return append([]Failure(nil), s.failures...) }

// HardFailure is the label of the step that aborted the journey, if any.
func (s *State) HardFailure() string { return s.hardFailure }

func (s *State) Records() []StepRecord { return append([]StepRecord(nil), s.records...) }

// Failed reports whether the journey is failed so far.
func (s *State) Failed() bool {
	return s.hardFailure != "" || len(s.failures) > 0
}
