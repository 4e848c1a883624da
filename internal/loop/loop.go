// Package loop drives one run's control loop: per step it computes a base
// envelope, reduces it through the Stage-C gate, filters candidate actions,
// and appends every decision to the log. Steps within a run execute serially;
// the gate binds before any filter call.
package loop

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kibbyd/autonomy-plane/internal/actionfilter"
	"github.com/kibbyd/autonomy-plane/internal/decisionlog"
	"github.com/kibbyd/autonomy-plane/internal/envelope"
)

// #region adapter-struct

// Adapter orchestrates the per-step decision sequence for one run.
type Adapter struct {
	gate  StageGate
	dlog  Appender
	runID int64

	step     uint64
	lastTsMs int64

	now   func() time.Time
	newID func() string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter creates a control loop adapter for one run over injected
// gate and log dependencies.
func NewAdapter(gate StageGate, dlog Appender, runID int64, opts ...Option) *Adapter {
	a := &Adapter{
		gate:  gate,
		dlog:  dlog,
		runID: runID,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunID returns the run this adapter serves.
func (a *Adapter) RunID() int64 {
	return a.runID
}

// #endregion adapter-struct

// #region step

// Step executes one full decision sequence: snapshot, compute, Stage-C,
// per-action filter, log. Storage failures downgrade to Unlogged; NaN inputs
// and post-condition breaches surface as a StepError.
func (a *Adapter) Step(ctx context.Context, in StepInput) (StepResult, error) {
	if in.Inputs.HasNaN() {
		return StepResult{}, &StepError{Kind: FailPrecondition, Err: fmt.Errorf("NaN in autonomy inputs")}
	}
	clamped := in.Inputs.Clamped()

	tsMs := a.nextTs()
	a.step++
	decisionID := a.newID()

	env := envelope.Compute(clamped, tsMs, a.step, in.Context)
	if err := checkInvariants(env); err != nil {
		env.Valid = false
		return StepResult{Envelope: env}, &StepError{Kind: FailInvariant, Err: err}
	}

	// The cap must bind before any action is filtered.
	gateRes, err := a.gate.EvaluateAndApply(ctx, &env, a.runID)
	if err != nil {
		return StepResult{}, &StepError{Kind: FailPrecondition, Err: err}
	}
	if err := checkInvariants(env); err != nil {
		env.Valid = false
		return StepResult{Envelope: env}, &StepError{Kind: FailInvariant, Err: err}
	}

	res := StepResult{Envelope: env, StageC: gateRes}

	res.Unlogged = a.append(ctx, tsMs, decisionlog.KindCompute, decisionlog.ComputeDoc{
		DecisionID: decisionID,
		Envelope:   decisionlog.NewEnvelopeDoc(env),
		Inputs:     decisionlog.NewInputsDoc(clamped),
		Rationale:  env.Rationale,
	}) || res.Unlogged

	if gateRes.Applied {
		res.Unlogged = a.append(ctx, tsMs, decisionlog.KindStageCApply,
			decisionlog.NewStageCDoc(decisionID, gateRes)) || res.Unlogged
	}

	for _, act := range in.Actions {
		posture := act.Posture
		posture.SandboxActionsEnabled = posture.SandboxActionsEnabled && env.AllowAction

		v := actionfilter.Check(act.Kind, posture)
		res.Verdicts = append(res.Verdicts, ActionVerdict{Kind: act.Kind, Verdict: v})

		res.Unlogged = a.append(ctx, tsMs, decisionlog.KindActionFilter,
			decisionlog.NewActionFilterDoc(decisionID, act.Kind, posture, v)) || res.Unlogged
	}

	return res, nil
}

// #endregion step

// #region helpers

// nextTs returns a millisecond timestamp that never decreases within the run.
func (a *Adapter) nextTs() int64 {
	ts := a.now().UnixMilli()
	if ts < a.lastTsMs {
		ts = a.lastTsMs
	}
	a.lastTsMs = ts
	return ts
}

// append writes one record and reports whether the write failed.
func (a *Adapter) append(ctx context.Context, tsMs int64, kind string, payload any) bool {
	if _, err := a.dlog.Append(ctx, a.runID, tsMs, kind, payload); err != nil {
		log.Printf("[LOOP] run %d: %s record unlogged: %v", a.runID, kind, err)
		return true
	}
	return false
}

// checkInvariants verifies the envelope post-conditions: score and components
// bounded, cap multiplier in range, effective score never above base.
func checkInvariants(env envelope.Envelope) error {
	if env.AutonomyScore < 0 || env.AutonomyScore > 1 {
		return fmt.Errorf("autonomy score %v out of [0,1]", env.AutonomyScore)
	}
	for _, c := range []float64{env.SelfComponent, env.EthicsComponent, env.SocialComponent} {
		if c < 0 || c > 1 {
			return fmt.Errorf("component %v out of [0,1]", c)
		}
	}
	if env.CapMultiplier < 0.5 || env.CapMultiplier > 1.0 {
		return fmt.Errorf("cap multiplier %v out of [0.5,1.0]", env.CapMultiplier)
	}
	if env.EffectiveScore() > env.AutonomyScore {
		return fmt.Errorf("effective score %v exceeds base %v", env.EffectiveScore(), env.AutonomyScore)
	}
	return nil
}

// #endregion helpers
