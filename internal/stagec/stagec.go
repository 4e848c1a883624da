// Package stagec implements the reputation-aware reduction layer: it reads
// the recent self-revision outcome window for a run and composes the mapped
// cap multiplier into the envelope under evaluation.
package stagec

import (
	"context"

	"github.com/kibbyd/autonomy-plane/internal/envelope"
	"github.com/kibbyd/autonomy-plane/internal/reputation"
)

// DefaultWindowSize is the outcome window consulted per evaluation.
const DefaultWindowSize = 20

// #region result
// Result reports what an evaluation did.
type Result struct {
	Reputation float64
	Cap        float64
	WindowN    int
	Applied    bool
}

// #endregion result

// #region gate-struct
// Gate composes the reputation window and the cap mapper.
type Gate struct {
	window     *reputation.Window
	windowSize int
}

// NewGate creates a gate over an injected outcome reader. A windowSize of 0
// selects DefaultWindowSize.
func NewGate(reader reputation.OutcomeReader, windowSize int) *Gate {
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}
	return &Gate{
		window:     reputation.NewWindow(reader),
		windowSize: windowSize,
	}
}

// #endregion gate-struct

// #region evaluate-apply
// EvaluateAndApply reads the run's outcome window and, when history exists,
// composes the mapped cap into the envelope. With an empty window the cap is
// reported as 1.0 and the envelope is left untouched: no history gives no
// justification to reduce. Applying twice composes the reduction twice, so
// the control loop must call this exactly once per envelope.
func (g *Gate) EvaluateAndApply(ctx context.Context, env *envelope.Envelope, runID int64) (Result, error) {
	rep, n, err := g.window.Reputation(ctx, runID, g.windowSize)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		return Result{Reputation: rep, Cap: 1.0, WindowN: 0, Applied: false}, nil
	}

	capMult := reputation.CapFor(rep)
	env.ApplyCap(capMult)
	return Result{Reputation: rep, Cap: capMult, WindowN: n, Applied: true}, nil
}

// #endregion evaluate-apply
