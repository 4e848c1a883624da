package stagec

import (
	"context"
	"math"
	"testing"

	"github.com/kibbyd/autonomy-plane/internal/envelope"
	"github.com/kibbyd/autonomy-plane/internal/reputation"
)

type fakeReader struct {
	outcomes []reputation.Outcome
}

func (f *fakeReader) RecentOutcomes(_ context.Context, runID int64, n int) ([]reputation.Outcome, error) {
	if len(f.outcomes) > n {
		return f.outcomes[:n], nil
	}
	return f.outcomes, nil
}

func repeated(class reputation.OutcomeClass, n int) []reputation.Outcome {
	out := make([]reputation.Outcome, n)
	for i := range out {
		out[i] = reputation.Outcome{RunID: 1, Class: class}
	}
	return out
}

func uniformInputs(v float64) envelope.Inputs {
	return envelope.Inputs{
		IdentityConfidence: v,
		SelfTrust:          v,
		EthicsScore:        v,
		SocialAlignment:    v,
		Reputation:         v,
	}
}

func approx(t *testing.T, got, want float64, label string) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func TestEmptyWindowLeavesEnvelopeUntouched(t *testing.T) {
	g := NewGate(&fakeReader{}, 0)
	env := envelope.Compute(uniformInputs(0.9), 0, 1, "")
	before := env

	res, err := g.EvaluateAndApply(context.Background(), &env, 1)
	if err != nil {
		t.Fatalf("EvaluateAndApply: %v", err)
	}
	if res.Applied {
		t.Fatal("empty window must not apply")
	}
	if res.Cap != 1.0 {
		t.Fatalf("empty window must report cap 1.0, got %v", res.Cap)
	}
	if res.WindowN != 0 {
		t.Fatalf("expected window_n 0, got %d", res.WindowN)
	}
	approx(t, res.Reputation, 0.5, "neutral prior")
	if env != before {
		t.Fatal("envelope mutated despite empty window")
	}
}

func TestHarmfulWindowCapsToNone(t *testing.T) {
	// All scalars 0.5 → base 0.500 SHADOW; 20 harmful → reputation 0,
	// cap 0.50, effective 0.25 → NONE.
	g := NewGate(&fakeReader{outcomes: repeated(reputation.OutcomeHarmful, 20)}, 20)
	env := envelope.Compute(uniformInputs(0.5), 0, 1, "")
	approx(t, env.AutonomyScore, 0.5, "base score")
	if env.Tier != envelope.TierShadow {
		t.Fatalf("expected SHADOW before gate, got %s", env.Tier)
	}

	res, err := g.EvaluateAndApply(context.Background(), &env, 1)
	if err != nil {
		t.Fatalf("EvaluateAndApply: %v", err)
	}
	if !res.Applied {
		t.Fatal("expected applied")
	}
	approx(t, res.Reputation, 0.0, "reputation")
	approx(t, res.Cap, 0.50, "cap")
	approx(t, env.EffectiveScore(), 0.25, "effective")
	if env.Tier != envelope.TierNone {
		t.Fatalf("expected NONE after cap, got %s", env.Tier)
	}
}

func TestBeneficialWindowKeepsPermissions(t *testing.T) {
	// All scalars 0.7 → base 0.700 CONDITIONAL; 20 beneficial →
	// reputation 1.0, cap 1.00, effective unchanged.
	g := NewGate(&fakeReader{outcomes: repeated(reputation.OutcomeBeneficial, 20)}, 20)
	env := envelope.Compute(uniformInputs(0.7), 0, 1, "")
	if env.Tier != envelope.TierConditional {
		t.Fatalf("expected CONDITIONAL before gate, got %s", env.Tier)
	}

	res, err := g.EvaluateAndApply(context.Background(), &env, 1)
	if err != nil {
		t.Fatalf("EvaluateAndApply: %v", err)
	}
	if !res.Applied {
		t.Fatal("expected applied")
	}
	approx(t, res.Reputation, 1.0, "reputation")
	approx(t, res.Cap, 1.00, "cap")
	approx(t, env.EffectiveScore(), 0.7, "effective")
	if env.Tier != envelope.TierConditional {
		t.Fatalf("tier changed under unity cap: %s", env.Tier)
	}
	if !env.AllowAction || !env.AllowGoalCommit {
		t.Fatal("permissions must survive a unity cap")
	}
}

func TestMixedWindowMidCap(t *testing.T) {
	// identity=trust=0.6, ethics=0.85, social=rep=0.6 → base ≈ 0.700;
	// 10 beneficial + 10 harmful → reputation 0.5, cap 0.75,
	// effective 0.525 → SHADOW.
	rows := append(repeated(reputation.OutcomeBeneficial, 10), repeated(reputation.OutcomeHarmful, 10)...)
	g := NewGate(&fakeReader{outcomes: rows}, 20)

	env := envelope.Compute(envelope.Inputs{
		IdentityConfidence: 0.6,
		SelfTrust:          0.6,
		EthicsScore:        0.85,
		SocialAlignment:    0.6,
		Reputation:         0.6,
	}, 0, 1, "")
	approx(t, env.AutonomyScore, 0.700, "base score")

	res, err := g.EvaluateAndApply(context.Background(), &env, 1)
	if err != nil {
		t.Fatalf("EvaluateAndApply: %v", err)
	}
	approx(t, res.Reputation, 0.5, "reputation")
	approx(t, res.Cap, 0.75, "cap")
	approx(t, env.EffectiveScore(), 0.525, "effective")
	if env.Tier != envelope.TierShadow {
		t.Fatalf("expected SHADOW, got %s", env.Tier)
	}
}

func TestGateNeverAmplifies(t *testing.T) {
	windows := [][]reputation.Outcome{
		nil,
		repeated(reputation.OutcomeBeneficial, 20),
		repeated(reputation.OutcomeNeutral, 20),
		repeated(reputation.OutcomeHarmful, 20),
	}
	for _, rows := range windows {
		for _, v := range []float64{0.0, 0.3, 0.55, 0.7, 0.9, 1.0} {
			g := NewGate(&fakeReader{outcomes: rows}, 20)
			env := envelope.Compute(uniformInputs(v), 0, 1, "")
			beforeEff := env.EffectiveScore()
			beforeTier := env.Tier
			beforeAllow := env.AllowAction

			if _, err := g.EvaluateAndApply(context.Background(), &env, 1); err != nil {
				t.Fatalf("EvaluateAndApply: %v", err)
			}
			if env.EffectiveScore() > beforeEff+1e-9 {
				t.Fatalf("effective score raised: %v → %v", beforeEff, env.EffectiveScore())
			}
			if env.Tier > beforeTier {
				t.Fatalf("tier raised: %s → %s", beforeTier, env.Tier)
			}
			if env.AllowAction && !beforeAllow {
				t.Fatal("permissions broadened by gate")
			}
		}
	}
}

func TestGateRejectsBadWindowSize(t *testing.T) {
	g := NewGate(&fakeReader{}, -5)
	env := envelope.Compute(uniformInputs(0.5), 0, 1, "")
	if _, err := g.EvaluateAndApply(context.Background(), &env, 1); err == nil {
		t.Fatal("expected error for negative window size")
	}
}

func TestDefaultWindowSize(t *testing.T) {
	g := NewGate(&fakeReader{}, 0)
	if g.windowSize != DefaultWindowSize {
		t.Fatalf("expected default window %d, got %d", DefaultWindowSize, g.windowSize)
	}
}
