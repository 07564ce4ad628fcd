package pipeline

import "os"

// Phases of a newsletter run, in execution order.
const (
	PhaseResearch = "research"
	PhaseWriting  = "writing"
	PhaseDesign   = "design"
)

// Gate decides which phases run from the presence of the content file.
type Gate struct {
	ContentPath string
}

// Decision is the outcome of a gate check.
type Decision struct {
	ContentExists bool
	Run           []string
	Skip          []string
}

// Check looks at the content file. Only a regular file counts as present.
func (g Gate) Check() Decision {
	info, err := os.Stat(g.ContentPath)
	if err == nil && info.Mode().IsRegular() {
		return designOnly()
	}
	return fullRun()
}

func fullRun() Decision {
	return Decision{Run: []string{PhaseResearch, PhaseWriting, PhaseDesign}}
}

func designOnly() Decision {
	return Decision{
		ContentExists: true,
		Run:           []string{PhaseDesign},
		Skip:          []string{PhaseResearch, PhaseWriting},
	}
}

// Runs reports whether phase is scheduled.
func (d Decision) Runs(phase string) bool {
	for _, p := range d.Run {
		if p == phase {
			return true
		}
	}
	return false
}
