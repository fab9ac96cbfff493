package organize

import (
	"fmt"

	"github.com/quidome/media-sorter/pkg/createdat"
)

// Action is what happened to an item.
type Action string

const (
	ActionMove  Action = "move"
	ActionCopy  Action = "copy"
	ActionSkip  Action = "skip"
	ActionError Action = "error"
)

// Outcome records the result for one item of a run.
type Outcome struct {
	Source      string
	Rel         string
	Folder      string
	Name        string
	Destination string
	Provenance  createdat.Provenance
	Action      Action
	Simulated   bool

	// Companions counts the videos skipped together with a master image.
	Companions int
	// Master is the relative path of the image a companion video followed.
	Master string

	Size int64
	Err  error
}

// Files returns how many input files the outcome accounts for.
func (o Outcome) Files() int {
	return 1 + o.Companions
}

// Verb returns the leading action word of the outcome line.
func (o Outcome) Verb() string {
	switch o.Action {
	case ActionMove:
		if o.Simulated {
			return "Would move"
		}
		return "Moved"
	case ActionCopy:
		if o.Simulated {
			return "Would copy"
		}
		return "Copied"
	case ActionSkip:
		return "Skipping (no date found)"
	default:
		return "Error with " + o.Rel
	}
}

// String renders the outcome line consumed by front ends:
//
//	<Verb>: <rel> -> <folder>/<name> (<provenance>)
func (o Outcome) String() string {
	switch o.Action {
	case ActionSkip:
		if o.Companions > 0 {
			return fmt.Sprintf("%s: %s (+ %d video)", o.Verb(), o.Rel, o.Companions)
		}
		return fmt.Sprintf("%s: %s", o.Verb(), o.Rel)
	case ActionError:
		return fmt.Sprintf("%s: %v", o.Verb(), o.Err)
	default:
		return fmt.Sprintf("%s: %s -> %s/%s (%s)", o.Verb(), o.Rel, o.Folder, o.Name, o.Provenance)
	}
}

// Report is the ordered list of outcomes of a run.
type Report struct {
	// Found is the number of media files the run started with.
	Found int

	Pairs   int
	Singles int

	Outcomes []Outcome
}

// Count returns the number of outcomes with action a.
func (r Report) Count(a Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == a {
			n++
		}
	}
	return n
}

// SkippedFiles counts input files left untouched by skip outcomes, companions included.
func (r Report) SkippedFiles() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == ActionSkip {
			n += o.Files()
		}
	}
	return n
}

// Bytes sums the sizes of relocated (or, when simulating, planned) files.
func (r Report) Bytes() int64 {
	var n int64
	for _, o := range r.Outcomes {
		if o.Action == ActionMove || o.Action == ActionCopy {
			n += o.Size
		}
	}
	return n
}

// Lines renders every outcome.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		lines = append(lines, o.String())
	}
	return lines
}
