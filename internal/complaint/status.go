package complaint

import "strings"

// Stage is one of the five fixed points in the resolution workflow.
type Stage int

const (
	StageSubmitted Stage = iota
	StageForwarded
	StageAssigned
	StageInProgress
	StageResolved
)

type stageInfo struct {
	name        string
	label       string
	description string
}

var stages = [...]stageInfo{
	StageSubmitted:  {"SUBMITTED", "Submitted", "Complaint received successfully"},
	StageForwarded:  {"FORWARDED", "Forwarded to Ward Office", "Sent to the ward office"},
	StageAssigned:   {"ASSIGNED", "Officer Assigned", "An officer has been assigned"},
	StageInProgress: {"IN_PROGRESS", "Work Started", "Work is in progress"},
	StageResolved:   {"RESOLVED", "Resolved", "Issue has been resolved"},
}

// Stages returns all stages in workflow order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	for i := range stages {
		out[i] = Stage(i)
	}
	return out
}

// String returns the stored status name, e.g. "IN_PROGRESS".
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stages) {
		return "UNKNOWN"
	}
	return stages[s].name
}

// ParseStatus is the strict lookup used where statuses are written.
func ParseStatus(status string) (Stage, bool) {
	norm := strings.ToUpper(strings.TrimSpace(status))
	for i, st := range stages {
		if st.name == norm {
			return Stage(i), true
		}
	}
	return StageSubmitted, false
}

// StageIndex locates status in the workflow. Unknown values map to
// StageSubmitted.
func StageIndex(status string) Stage {
	st, _ := ParseStatus(status)
	return st
}

// StatusStep is one row of the progress timeline.
type StatusStep struct {
	Stage       Stage  `json:"-"`
	Status      string `json:"status"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Active      bool   `json:"active"`
}

// Timeline projects the stored status onto all five stages.
func Timeline(status string) []StatusStep {
	current := StageIndex(status)
	steps := make([]StatusStep, len(stages))
	for i, st := range stages {
		stage := Stage(i)
		steps[i] = StatusStep{
			Stage:       stage,
			Status:      st.name,
			Label:       st.label,
			Description: st.description,
			Completed:   stage < current,
			Active:      stage == current,
		}
	}
	return steps
}
