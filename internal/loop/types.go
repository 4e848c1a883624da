package loop

import (
	"context"
	"fmt"

	"github.com/kibbyd/autonomy-plane/internal/actionfilter"
	"github.com/kibbyd/autonomy-plane/internal/envelope"
	"github.com/kibbyd/autonomy-plane/internal/stagec"
)

// #region interfaces

// Appender abstracts the decision log write so the loop can be tested with an
// in-memory fake.
type Appender interface {
	Append(ctx context.Context, runID, tsMs int64, kind string, payload any) (int64, error)
}

// StageGate abstracts the Stage-C gate.
type StageGate interface {
	EvaluateAndApply(ctx context.Context, env *envelope.Envelope, runID int64) (stagec.Result, error)
}

// #endregion interfaces

// #region step-io

// ActionRequest is one candidate action under consideration this step.
type ActionRequest struct {
	Kind    string
	Posture actionfilter.Posture
}

// StepInput bundles everything the adapter consumes for one step.
type StepInput struct {
	Inputs  envelope.Inputs
	Context string
	Actions []ActionRequest
}

// ActionVerdict pairs an action kind with its filter verdict.
type ActionVerdict struct {
	Kind string
	actionfilter.Verdict
}

// StepResult is the verdict set returned to the caller after one step.
type StepResult struct {
	Envelope envelope.Envelope
	StageC   stagec.Result
	Verdicts []ActionVerdict

	// Unlogged is set when a decision-log append failed. The decision
	// itself still stands; callers surface this to observability.
	Unlogged bool
}

// #endregion step-io

// #region step-error

// FailureKind is the reason code carried by a StepError.
type FailureKind string

const (
	FailPrecondition FailureKind = "precondition_violation"
	FailInvariant    FailureKind = "invariant_violation"
)

// StepError is the single typed failure surfaced by the adapter. Storage
// failures are recovered inside the window and the log and never appear here.
type StepError struct {
	Kind FailureKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// #endregion step-error
