package envelope

import (
	"math"
	"strings"
	"testing"
)

const eps = 1e-9

func approx(t *testing.T, got, want float64, label string) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func allNines() Inputs {
	return Inputs{
		IdentityConfidence: 0.9,
		SelfTrust:          0.9,
		EthicsScore:        0.9,
		SocialAlignment:    0.9,
		Reputation:         0.9,
	}
}

func TestComputeFullTier(t *testing.T) {
	env := Compute(allNines(), 1000, 1, "")

	approx(t, env.AutonomyScore, 0.9, "score")
	approx(t, env.SelfComponent, 0.9, "self component")
	approx(t, env.EthicsComponent, 0.9, "ethics component")
	approx(t, env.SocialComponent, 0.9, "social component")
	if env.Tier != TierFull {
		t.Fatalf("expected FULL, got %s", env.Tier)
	}
	if !env.AllowAction || !env.AllowGoalCommit {
		t.Fatal("FULL tier must allow action and goal commit")
	}
	if env.AllowSelfRevision {
		t.Fatal("self revision must never be granted by compute")
	}
	if env.CapMultiplier != 1.0 {
		t.Fatalf("initial cap multiplier must be 1.0, got %v", env.CapMultiplier)
	}
	if !env.Valid {
		t.Fatal("expected valid envelope")
	}
	if env.TsMs != 1000 || env.Step != 1 {
		t.Fatalf("ts/step not carried: %d/%d", env.TsMs, env.Step)
	}
}

func TestComputeEthicsHardBlock(t *testing.T) {
	in := allNines()
	in.EthicsHardBlock = true
	env := Compute(in, 0, 0, "")

	if env.AutonomyScore != 0 {
		t.Fatalf("hard block must zero the score, got %v", env.AutonomyScore)
	}
	if env.Tier != TierNone {
		t.Fatalf("expected NONE, got %s", env.Tier)
	}
	if env.AllowAction || env.AllowGoalCommit {
		t.Fatal("hard block must clear permissions")
	}
	// Components retain pre-veto values for audit.
	approx(t, env.SelfComponent, 0.9, "self component after veto")
	approx(t, env.EthicsComponent, 0.9, "ethics component after veto")
	approx(t, env.SocialComponent, 0.9, "social component after veto")
	if !strings.Contains(env.Rationale, "veto=ethics_hard_block") {
		t.Fatalf("rationale missing veto flag: %s", env.Rationale)
	}
}

func TestComputeComponentWeights(t *testing.T) {
	in := Inputs{
		IdentityConfidence: 1.0,
		SelfTrust:          0.0,
		EthicsScore:        0.85,
		SocialAlignment:    1.0,
		Reputation:         0.0,
	}
	env := Compute(in, 0, 0, "")

	approx(t, env.SelfComponent, 0.5, "self = 0.5*identity + 0.5*trust")
	approx(t, env.EthicsComponent, 0.85, "ethics passthrough")
	approx(t, env.SocialComponent, 0.7, "social = 0.7*alignment + 0.3*reputation")
	approx(t, env.AutonomyScore, 0.35*0.5+0.40*0.85+0.25*0.7, "score weights")
}

func TestComputeClampSafety(t *testing.T) {
	extremes := []Inputs{
		{IdentityConfidence: 99, SelfTrust: 99, EthicsScore: 99, SocialAlignment: 99, Reputation: 99},
		{IdentityConfidence: -99, SelfTrust: -99, EthicsScore: -99, SocialAlignment: -99, Reputation: -99},
		{IdentityConfidence: math.Inf(1), SelfTrust: math.Inf(-1), EthicsScore: 2, SocialAlignment: -1, Reputation: 0.5},
	}
	for _, in := range extremes {
		env := Compute(in, 0, 0, "")
		if env.AutonomyScore < 0 || env.AutonomyScore > 1 {
			t.Fatalf("score %v out of [0,1] for %+v", env.AutonomyScore, in)
		}
		for _, c := range []float64{env.SelfComponent, env.EthicsComponent, env.SocialComponent} {
			if c < 0 || c > 1 {
				t.Fatalf("component %v out of [0,1] for %+v", c, in)
			}
		}
		if env.CapMultiplier < 0.5 || env.CapMultiplier > 1.0 {
			t.Fatalf("cap multiplier %v out of [0.5,1.0]", env.CapMultiplier)
		}
	}
}

func TestTierThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Tier
	}{
		{0.0, TierNone},
		{0.29999, TierNone},
		{0.30, TierShadow},
		{0.54999, TierShadow},
		{0.55, TierConditional},
		{0.79999, TierConditional},
		{0.80, TierFull},
		{1.0, TierFull},
	}
	for _, c := range cases {
		if got := TierFor(c.score); got != c.want {
			t.Errorf("TierFor(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestScoreMonotonicInEachScalar(t *testing.T) {
	base := Inputs{
		IdentityConfidence: 0.5,
		SelfTrust:          0.5,
		EthicsScore:        0.5,
		SocialAlignment:    0.5,
		Reputation:         0.5,
	}
	bump := []func(Inputs, float64) Inputs{
		func(in Inputs, v float64) Inputs { in.IdentityConfidence = v; return in },
		func(in Inputs, v float64) Inputs { in.SelfTrust = v; return in },
		func(in Inputs, v float64) Inputs { in.EthicsScore = v; return in },
		func(in Inputs, v float64) Inputs { in.SocialAlignment = v; return in },
		func(in Inputs, v float64) Inputs { in.Reputation = v; return in },
	}
	for i, set := range bump {
		prev := -1.0
		for v := 0.0; v <= 1.0+eps; v += 0.1 {
			env := Compute(set(base, v), 0, 0, "")
			if env.AutonomyScore+eps < prev {
				t.Fatalf("scalar %d: score decreased at %v", i, v)
			}
			prev = env.AutonomyScore
		}
	}
}

func TestApplyCapReducesAndRederives(t *testing.T) {
	env := Compute(allNines(), 0, 0, "")
	before := env.EffectiveScore()

	env.ApplyCap(0.5)

	if env.CapMultiplier != 0.5 {
		t.Fatalf("expected cap 0.5, got %v", env.CapMultiplier)
	}
	approx(t, env.EffectiveScore(), 0.45, "effective after cap")
	if env.EffectiveScore() > before {
		t.Fatal("cap must not amplify")
	}
	if env.Tier != TierShadow {
		t.Fatalf("expected SHADOW after cap, got %s", env.Tier)
	}
	if env.AllowAction || env.AllowGoalCommit {
		t.Fatal("capped below CONDITIONAL must clear permissions")
	}
}

func TestApplyCapComposes(t *testing.T) {
	env := Compute(allNines(), 0, 0, "")
	env.ApplyCap(0.75)
	env.ApplyCap(0.75)
	approx(t, env.CapMultiplier, 0.5625, "composed multiplier")
	approx(t, env.EffectiveScore(), 0.9*0.5625, "composed effective")
}

func TestApplyCapBoundsInput(t *testing.T) {
	env := Compute(allNines(), 0, 0, "")
	env.ApplyCap(2.0) // clamped to 1.0
	approx(t, env.CapMultiplier, 1.0, "over-unity cap clamped")
	env.ApplyCap(0.1) // clamped to 0.5
	approx(t, env.CapMultiplier, 0.5, "sub-floor cap clamped")
}

func TestRationaleCarriesContext(t *testing.T) {
	env := Compute(allNines(), 0, 0, "nightly-run")
	for _, want := range []string{"score=0.900", "tier=FULL", "ctx=nightly-run"} {
		if !strings.Contains(env.Rationale, want) {
			t.Fatalf("rationale missing %q: %s", want, env.Rationale)
		}
	}
}

func TestHasNaN(t *testing.T) {
	in := allNines()
	if in.HasNaN() {
		t.Fatal("clean inputs flagged as NaN")
	}
	in.SocialAlignment = math.NaN()
	if !in.HasNaN() {
		t.Fatal("NaN input not flagged")
	}
}

func TestTierStringRoundTrip(t *testing.T) {
	for _, tier := range []Tier{TierNone, TierShadow, TierConditional, TierFull} {
		if got := TierFromString(tier.String()); got != tier {
			t.Errorf("round trip %s → %s", tier, got)
		}
	}
	if got := TierFromString("bogus"); got != TierNone {
		t.Errorf("unknown tier name should map to NONE, got %s", got)
	}
}
