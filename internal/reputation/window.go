package reputation

import (
	"context"
	"fmt"
	"log"
)

// #region window-struct
// Window reduces the most recent self-revision outcomes for a run to a
// reputation scalar in [0,1].
type Window struct {
	reader OutcomeReader
}

// NewWindow creates a window over an injected outcome reader.
func NewWindow(reader OutcomeReader) *Window {
	return &Window{reader: reader}
}

// #endregion window-struct

// #region reputation
// Reputation fetches up to n outcomes for the run and maps their mean score
// (Beneficial +1, Neutral 0, Harmful -1) affinely into [0,1]. An empty window
// returns the neutral prior (0.5, 0). A storage failure is logged and treated
// as an empty window; it is never propagated. A negative or zero n is a
// programmer error and is the only error this method returns.
func (w *Window) Reputation(ctx context.Context, runID int64, n int) (float64, int, error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("window size must be positive, got %d", n)
	}

	rows, err := w.reader.RecentOutcomes(ctx, runID, n)
	if err != nil {
		log.Printf("[REPWIN] read failed for run %d, using neutral prior: %v", runID, err)
		return 0.5, 0, nil
	}
	if len(rows) == 0 {
		return 0.5, 0, nil
	}

	var sum int
	for _, r := range rows {
		sum += scoreClass(r.Class)
	}
	mean := float64(sum) / float64(len(rows))
	rep := clamp01(0.5 + 0.5*mean)
	return rep, len(rows), nil
}

// #endregion reputation

// #region cap-for
// CapFor maps reputation to a cap multiplier via a piecewise-constant
// three-step map. The steps keep the posture stable across small reputation
// fluctuations; the result is always one of {0.50, 0.75, 1.00}.
func CapFor(rep float64) float64 {
	switch {
	case rep < 0.40:
		return 0.50
	case rep < 0.60:
		return 0.75
	default:
		return 1.00
	}
}

// #endregion cap-for

// #region helpers
func scoreClass(c OutcomeClass) int {
	switch c {
	case OutcomeBeneficial:
		return 1
	case OutcomeHarmful:
		return -1
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
