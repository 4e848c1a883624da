// Package actionfilter emits per-action allow/deny verdicts from the sandbox
// posture and the external phase decisions.
package actionfilter

// Reason strings are part of the external contract and must not be reused
// with different meanings.
const (
	ReasonOK            = "ok"
	ReasonNoWebActions  = "no_web_actions"
	ReasonPhase15Deny   = "phase15_deny"
	ReasonPhase13Freeze = "phase13_freeze"
)

// Phase decision values meaningful to the filter. Other values pass through.
const (
	AnomalyDeny  = "deny"
	EthicsFreeze = "freeze"
)

// #region posture
// Posture bundles the external flags consulted per action-filter call.
type Posture struct {
	SandboxActionsEnabled bool
	AnomalyDecision       string // phase 15 anomaly verdict; only "deny" is meaningful
	EthicsDecision        string // phase 13 ethics verdict; only "freeze" is meaningful
	SimulateFlag          int    // recorded for metrics; never decisive
}

// #endregion posture

// #region verdict
// Verdict is the outbound decision for one candidate action.
type Verdict struct {
	Allow  bool
	Reason string
}

// #endregion verdict

// #region check
// Check applies the deny policy in fixed precedence, first match wins:
// sandbox closed, then anomaly deny, then ethics freeze. The action kind is
// logged by the caller but does not influence the policy; it exists so future
// extensions can gate per action class without changing call sites.
func Check(kind string, p Posture) Verdict {
	_ = kind

	if !p.SandboxActionsEnabled {
		return Verdict{Allow: false, Reason: ReasonNoWebActions}
	}
	if p.AnomalyDecision == AnomalyDeny {
		return Verdict{Allow: false, Reason: ReasonPhase15Deny}
	}
	if p.EthicsDecision == EthicsFreeze {
		return Verdict{Allow: false, Reason: ReasonPhase13Freeze}
	}
	return Verdict{Allow: true, Reason: ReasonOK}
}

// #endregion check
