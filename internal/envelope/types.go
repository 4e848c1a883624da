package envelope

// #region tier
// Tier is the discrete agency class derived from the autonomy score.
type Tier int

const (
	TierNone Tier = iota
	TierShadow
	TierConditional
	TierFull
)

// String returns the persistence-boundary name of the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "NONE"
	case TierShadow:
		return "SHADOW"
	case TierConditional:
		return "CONDITIONAL"
	case TierFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// TierFromString parses a persisted tier name. Unknown names map to TierNone.
func TierFromString(s string) Tier {
	switch s {
	case "SHADOW":
		return TierShadow
	case "CONDITIONAL":
		return TierConditional
	case "FULL":
		return TierFull
	default:
		return TierNone
	}
}

// #endregion tier

// #region inputs
// Inputs is an immutable snapshot of upstream signals for one decision.
// All scalars are clamped to [0,1] before use; EthicsHardBlock is a veto flag.
type Inputs struct {
	IdentityConfidence float64
	SelfTrust          float64
	EthicsScore        float64
	EthicsHardBlock    bool
	SocialAlignment    float64
	Reputation         float64
}

// #endregion inputs

// #region envelope-struct
// Envelope is the derived decision record for one step: score, components,
// tier, permission bits, cap multiplier, rationale.
type Envelope struct {
	AutonomyScore float64
	Tier          Tier

	// Intermediate aggregates, retained for audit.
	SelfComponent   float64
	EthicsComponent float64
	SocialComponent float64

	// Cap multiplier composed by governance layers; starts at 1.0.
	CapMultiplier float64

	AllowAction       bool
	AllowGoalCommit   bool
	AllowSelfRevision bool

	TsMs int64
	Step uint64

	Rationale string
	Valid     bool
}

// #endregion envelope-struct
