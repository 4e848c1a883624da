package reputation

import "context"

// #region outcome-class
// OutcomeClass classifies a completed self-revision attempt. The literal
// strings are the persistence-boundary form.
type OutcomeClass string

const (
	OutcomeBeneficial OutcomeClass = "Beneficial"
	OutcomeNeutral    OutcomeClass = "Neutral"
	OutcomeHarmful    OutcomeClass = "Harmful"
)

// Known reports whether c is one of the three defined classes.
func (c OutcomeClass) Known() bool {
	return c == OutcomeBeneficial || c == OutcomeNeutral || c == OutcomeHarmful
}

// #endregion outcome-class

// #region outcome
// Outcome is one persisted self-revision outcome row.
type Outcome struct {
	RunID int64
	TsMs  int64
	Class OutcomeClass
}

// #endregion outcome

// #region reader-interface
// OutcomeReader abstracts the decision-log read so the window can be tested
// without a database. Implementations return the most recent up to n rows for
// the run, newest first.
type OutcomeReader interface {
	RecentOutcomes(ctx context.Context, runID int64, n int) ([]Outcome, error)
}

// #endregion reader-interface
