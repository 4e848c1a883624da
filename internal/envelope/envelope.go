package envelope

import (
	"fmt"
	"math"
)

// Weights for the component and score aggregation. The component split keeps
// the three signal families separately auditable; the score weights sum to 1.
const (
	weightIdentity = 0.5
	weightTrust    = 0.5
	weightSocial   = 0.7
	weightRep      = 0.3

	weightSelf   = 0.35
	weightEthics = 0.40
	weightSoc    = 0.25
)

// Tier thresholds on the (effective) autonomy score.
const (
	tierShadowMin      = 0.30
	tierConditionalMin = 0.55
	tierFullMin        = 0.80
)

// #region clamp
// Clamp01 bounds a scalar to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamped returns a copy of the inputs with all scalars bounded to [0,1].
func (in Inputs) Clamped() Inputs {
	in.IdentityConfidence = Clamp01(in.IdentityConfidence)
	in.SelfTrust = Clamp01(in.SelfTrust)
	in.EthicsScore = Clamp01(in.EthicsScore)
	in.SocialAlignment = Clamp01(in.SocialAlignment)
	in.Reputation = Clamp01(in.Reputation)
	return in
}

// HasNaN reports whether any scalar input is NaN. NaN inputs are a
// precondition violation and must be rejected before Compute.
func (in Inputs) HasNaN() bool {
	return math.IsNaN(in.IdentityConfidence) ||
		math.IsNaN(in.SelfTrust) ||
		math.IsNaN(in.EthicsScore) ||
		math.IsNaN(in.SocialAlignment) ||
		math.IsNaN(in.Reputation)
}

// #endregion clamp

// #region tier-for
// TierFor maps a score to its tier class.
func TierFor(score float64) Tier {
	switch {
	case score >= tierFullMin:
		return TierFull
	case score >= tierConditionalMin:
		return TierConditional
	case score >= tierShadowMin:
		return TierShadow
	default:
		return TierNone
	}
}

// #endregion tier-for

// #region compute
// Compute derives a full envelope from one input snapshot. Pure, deterministic,
// total. The hard-block veto zeroes the score after component aggregation so
// the components retain their pre-veto values for audit.
func Compute(in Inputs, tsMs int64, step uint64, context string) Envelope {
	c := in.Clamped()

	selfComp := weightIdentity*c.IdentityConfidence + weightTrust*c.SelfTrust
	ethicsComp := c.EthicsScore
	socialComp := weightSocial*c.SocialAlignment + weightRep*c.Reputation

	score := weightSelf*selfComp + weightEthics*ethicsComp + weightSoc*socialComp
	if c.EthicsHardBlock {
		score = 0
	}
	score = Clamp01(score)

	tier := TierFor(score)

	env := Envelope{
		AutonomyScore:   score,
		Tier:            tier,
		SelfComponent:   selfComp,
		EthicsComponent: ethicsComp,
		SocialComponent: socialComp,
		CapMultiplier:   1.0,
		AllowAction:     tier == TierConditional || tier == TierFull,
		AllowGoalCommit: tier == TierConditional || tier == TierFull,
		// AllowSelfRevision is never granted here; only an out-of-band
		// promotion path may raise it.
		AllowSelfRevision: false,
		TsMs:              tsMs,
		Step:              step,
		Valid:             true,
	}
	env.Rationale = rationale(env, c.EthicsHardBlock, context)
	return env
}

// #endregion compute

// #region effective
// EffectiveScore is the base score reduced by the composed cap multiplier.
func (e *Envelope) EffectiveScore() float64 {
	return e.AutonomyScore * e.CapMultiplier
}

// ApplyCap composes a cap multiplier into the envelope and re-derives tier
// and permission bits from the capped effective score. Caps only reduce:
// m is bounded to [0.5, 1.0] per the governance contract, so a single
// application can never amplify the effective score.
func (e *Envelope) ApplyCap(m float64) {
	if m < 0.5 {
		m = 0.5
	}
	if m > 1.0 {
		m = 1.0
	}
	e.CapMultiplier *= m

	eff := e.EffectiveScore()
	e.Tier = TierFor(eff)
	e.AllowAction = e.Tier == TierConditional || e.Tier == TierFull
	e.AllowGoalCommit = e.AllowAction
	// AllowSelfRevision is not tier-derived and is never raised here.
}

// #endregion effective

// #region rationale
func rationale(e Envelope, hardBlock bool, context string) string {
	s := fmt.Sprintf("score=%.3f self=%.3f ethics=%.3f social=%.3f tier=%s",
		e.AutonomyScore, e.SelfComponent, e.EthicsComponent, e.SocialComponent, e.Tier)
	if hardBlock {
		s += " veto=ethics_hard_block"
	}
	if context != "" {
		s += " ctx=" + context
	}
	return s
}

// #endregion rationale
