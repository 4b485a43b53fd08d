package schemas

// -- Action Schemas --

// Action identifies the request type a loop cycle issues against the remote
// interface. Exactly one action is pending between cycles, chosen by the
// control loop from the previous cycle's outcome.
type Action string

const (
	// ActionPrimary is the main recurring request. Its cadence is governed
	// by the cooldown gate.
	ActionPrimary Action = "PRIMARY"
	// ActionLiquidate disposes of held resources after a depletion outcome.
	ActionLiquidate Action = "LIQUIDATE"
	// ActionReplenish acquires the configured resource in bulk after a
	// liquidation has been confirmed.
	ActionReplenish Action = "REPLENISH"
)

// Valid reports whether a is one of the three enumerated actions. The loop
// treats anything else as an internal logic defect, never as remote input.
func (a Action) Valid() bool {
	switch a {
	case ActionPrimary, ActionLiquidate, ActionReplenish:
		return true
	}
	return false
}

// Corrective reports whether a is a reactive action that bypasses the
// cooldown gate.
func (a Action) Corrective() bool {
	return a == ActionLiquidate || a == ActionReplenish
}

// -- Outcome Schemas --

// Outcome is the semantic classification of the latest settled response
// text. Outcomes are derived purely from text content and never persist
// beyond the cycle that produced them.
type Outcome string

const (
	// OutcomeUnclassified is reserved for uninitialized values. The
	// classifier never returns it; unknown text maps to OutcomeNormalResult.
	OutcomeUnclassified Outcome = "UNCLASSIFIED"
	// OutcomeNormalResult covers a successful primary result and any
	// unrecognized text, both of which resume the primary action.
	OutcomeNormalResult Outcome = "NORMAL_RESULT"
	// OutcomeResourceDepleted means the remote side reported the consumable
	// resource ran out and the corrective chain must run.
	OutcomeResourceDepleted Outcome = "RESOURCE_DEPLETED"
	// OutcomeLiquidationConfirmed acknowledges a liquidate request.
	OutcomeLiquidationConfirmed Outcome = "LIQUIDATION_CONFIRMED"
	// OutcomeReplenishConfirmed acknowledges a replenish request.
	OutcomeReplenishConfirmed Outcome = "REPLENISH_CONFIRMED"
	// OutcomeChallengeIssued marks a cycle that was preempted by a
	// credential challenge before normal classification applied.
	OutcomeChallengeIssued Outcome = "CHALLENGE_ISSUED"
)

// -- Challenge Schemas --

// ChallengeKind distinguishes solvable text challenges from image
// challenges, which terminate the loop.
type ChallengeKind string

const (
	ChallengeText  ChallengeKind = "TEXT"
	ChallengeImage ChallengeKind = "IMAGE"
)

// Challenge is a credential-style interruption detected in the timeline.
// SolutionCode is non-empty if and only if Kind is ChallengeText. A
// Challenge is consumed within the cycle that detected it and is never
// carried across cycles.
type Challenge struct {
	Kind         ChallengeKind `json:"kind"`
	SolutionCode string        `json:"solution_code,omitempty"`
	RawText      string        `json:"raw_text"`
}

// Solvable reports whether the challenge carries an extractable code.
func (c Challenge) Solvable() bool {
	return c.Kind == ChallengeText && c.SolutionCode != ""
}
