package sim

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Outcome names how a run ended.
type Outcome string

const (
	OutcomeStable      Outcome = "stable"
	OutcomeOscillation Outcome = "oscillation"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeStopped     Outcome = "stopped"
)

// Statistics is what engine.Stop() returns: the shape of a completed
// run, independent of how it ended.
type Statistics struct {
	Iterations          int
	WallTime            time.Duration
	ComponentsEvaluated int
	DirtyPeak           int
	Outcome             Outcome
	OscillationOffenders []string
}

// String renders the statistics as a single human-readable log line, with
// thousands-separated counts and the wall time rounded to the microsecond.
func (s Statistics) String() string {
	line := fmt.Sprintf("%s after %s iterations in %s (%s components evaluated, dirty peak %s)",
		s.Outcome,
		humanize.Comma(int64(s.Iterations)),
		s.WallTime.Round(time.Microsecond),
		humanize.Comma(int64(s.ComponentsEvaluated)),
		humanize.Comma(int64(s.DirtyPeak)),
	)
	if len(s.OscillationOffenders) > 0 {
		line += fmt.Sprintf(", offenders=%v", s.OscillationOffenders)
	}
	return line
}
