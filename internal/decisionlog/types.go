package decisionlog

import (
	"github.com/kibbyd/autonomy-plane/internal/actionfilter"
	"github.com/kibbyd/autonomy-plane/internal/envelope"
	"github.com/kibbyd/autonomy-plane/internal/stagec"
)

// Record kind tags. One step emits a "compute" record, a "stage_c_apply"
// record when the gate mutated the envelope, and one "action_filter" record
// per candidate action.
const (
	KindCompute      = "compute"
	KindStageCApply  = "stage_c_apply"
	KindActionFilter = "action_filter"
)

// #region envelope-doc
// EnvelopeDoc is the JSON form of an envelope inside a payload doc.
type EnvelopeDoc struct {
	AutonomyScore     float64 `json:"autonomy_score"`
	EffectiveScore    float64 `json:"effective_score"`
	Tier              string  `json:"tier"`
	SelfComponent     float64 `json:"self_component"`
	EthicsComponent   float64 `json:"ethics_component"`
	SocialComponent   float64 `json:"social_component"`
	CapMultiplier     float64 `json:"autonomy_cap_multiplier"`
	AllowAction       bool    `json:"allow_action"`
	AllowGoalCommit   bool    `json:"allow_goal_commit"`
	AllowSelfRevision bool    `json:"allow_self_revision"`
	TsMs              int64   `json:"ts_ms"`
	Step              uint64  `json:"step"`
	Rationale         string  `json:"rationale"`
	Valid             bool    `json:"valid"`
}

// NewEnvelopeDoc converts an envelope to its payload form.
func NewEnvelopeDoc(e envelope.Envelope) EnvelopeDoc {
	return EnvelopeDoc{
		AutonomyScore:     e.AutonomyScore,
		EffectiveScore:    e.EffectiveScore(),
		Tier:              e.Tier.String(),
		SelfComponent:     e.SelfComponent,
		EthicsComponent:   e.EthicsComponent,
		SocialComponent:   e.SocialComponent,
		CapMultiplier:     e.CapMultiplier,
		AllowAction:       e.AllowAction,
		AllowGoalCommit:   e.AllowGoalCommit,
		AllowSelfRevision: e.AllowSelfRevision,
		TsMs:              e.TsMs,
		Step:              e.Step,
		Rationale:         e.Rationale,
		Valid:             e.Valid,
	}
}

// #endregion envelope-doc

// #region inputs-doc
// InputsDoc captures the clamped input snapshot that fed the computation.
type InputsDoc struct {
	IdentityConfidence float64 `json:"identity_confidence"`
	SelfTrust          float64 `json:"self_trust"`
	EthicsScore        float64 `json:"ethics_score"`
	EthicsHardBlock    bool    `json:"ethics_hard_block"`
	SocialAlignment    float64 `json:"social_alignment"`
	Reputation         float64 `json:"reputation"`
}

// NewInputsDoc converts clamped inputs to their payload form.
func NewInputsDoc(in envelope.Inputs) InputsDoc {
	return InputsDoc{
		IdentityConfidence: in.IdentityConfidence,
		SelfTrust:          in.SelfTrust,
		EthicsScore:        in.EthicsScore,
		EthicsHardBlock:    in.EthicsHardBlock,
		SocialAlignment:    in.SocialAlignment,
		Reputation:         in.Reputation,
	}
}

// #endregion inputs-doc

// #region compute-doc
// ComputeDoc is the payload of a "compute" record: the envelope plus the
// clamped inputs and rationale. DecisionID links the step's records together.
type ComputeDoc struct {
	DecisionID string      `json:"decision_id"`
	Envelope   EnvelopeDoc `json:"envelope"`
	Inputs     InputsDoc   `json:"inputs"`
	Rationale  string      `json:"rationale"`
}

// #endregion compute-doc

// #region stagec-doc
// StageCDoc is the payload of a "stage_c_apply" record.
type StageCDoc struct {
	DecisionID string  `json:"decision_id"`
	Reputation float64 `json:"reputation"`
	Cap        float64 `json:"cap"`
	WindowN    int     `json:"window_n"`
	Applied    bool    `json:"applied"`
}

// NewStageCDoc converts a gate result to its payload form.
func NewStageCDoc(decisionID string, r stagec.Result) StageCDoc {
	return StageCDoc{
		DecisionID: decisionID,
		Reputation: r.Reputation,
		Cap:        r.Cap,
		WindowN:    r.WindowN,
		Applied:    r.Applied,
	}
}

// #endregion stagec-doc

// #region actionfilter-doc
// ActionFilterDoc is the payload of an "action_filter" record: the action
// kind and the exact posture flags at decision time.
type ActionFilterDoc struct {
	DecisionID            string `json:"decision_id"`
	ActionKind            string `json:"action_kind"`
	SandboxActionsEnabled bool   `json:"sandbox_actions_enabled"`
	AnomalyDecision       string `json:"anomaly_decision"`
	EthicsDecision        string `json:"ethics_decision"`
	SimulateFlag          int    `json:"simulate_flag"`
	Allow                 bool   `json:"allow"`
	Reason                string `json:"reason"`
}

// NewActionFilterDoc captures one filter call and its verdict.
func NewActionFilterDoc(decisionID, kind string, p actionfilter.Posture, v actionfilter.Verdict) ActionFilterDoc {
	return ActionFilterDoc{
		DecisionID:            decisionID,
		ActionKind:            kind,
		SandboxActionsEnabled: p.SandboxActionsEnabled,
		AnomalyDecision:       p.AnomalyDecision,
		EthicsDecision:        p.EthicsDecision,
		SimulateFlag:          p.SimulateFlag,
		Allow:                 v.Allow,
		Reason:                v.Reason,
	}
}

// #endregion actionfilter-doc
