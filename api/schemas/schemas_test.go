package schemas_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// TestConstants verifies that all defined constants hold their expected
// string values. The journal format and the watch command both depend on
// these staying stable.
func TestConstants(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		constant interface{}
		expected string
	}{
		// Actions
		{"ActionPrimary", schemas.ActionPrimary, "PRIMARY"},
		{"ActionLiquidate", schemas.ActionLiquidate, "LIQUIDATE"},
		{"ActionReplenish", schemas.ActionReplenish, "REPLENISH"},

		// Outcomes
		{"OutcomeUnclassified", schemas.OutcomeUnclassified, "UNCLASSIFIED"},
		{"OutcomeNormalResult", schemas.OutcomeNormalResult, "NORMAL_RESULT"},
		{"OutcomeResourceDepleted", schemas.OutcomeResourceDepleted, "RESOURCE_DEPLETED"},
		{"OutcomeLiquidationConfirmed", schemas.OutcomeLiquidationConfirmed, "LIQUIDATION_CONFIRMED"},
		{"OutcomeReplenishConfirmed", schemas.OutcomeReplenishConfirmed, "REPLENISH_CONFIRMED"},
		{"OutcomeChallengeIssued", schemas.OutcomeChallengeIssued, "CHALLENGE_ISSUED"},

		// Challenge kinds
		{"ChallengeText", schemas.ChallengeText, "TEXT"},
		{"ChallengeImage", schemas.ChallengeImage, "IMAGE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, fmt.Sprintf("%v", tc.constant))
		})
	}
}

func TestActionValid(t *testing.T) {
	t.Parallel()

	assert.True(t, schemas.ActionPrimary.Valid())
	assert.True(t, schemas.ActionLiquidate.Valid())
	assert.True(t, schemas.ActionReplenish.Valid())

	assert.False(t, schemas.Action("").Valid())
	assert.False(t, schemas.Action("REEL").Valid())
}

func TestActionCorrective(t *testing.T) {
	t.Parallel()

	// Only the reactive actions bypass the cooldown gate.
	assert.False(t, schemas.ActionPrimary.Corrective())
	assert.True(t, schemas.ActionLiquidate.Corrective())
	assert.True(t, schemas.ActionReplenish.Corrective())
}

func TestChallengeSolvable(t *testing.T) {
	t.Parallel()

	solvable := schemas.Challenge{Kind: schemas.ChallengeText, SolutionCode: "Q7W2", RawText: "Anti-bot verification. Code: Q7W2"}
	assert.True(t, solvable.Solvable())

	image := schemas.Challenge{Kind: schemas.ChallengeImage, RawText: "Anti-bot verification."}
	assert.False(t, image.Solvable())

	// A text challenge without a code should never be constructed, but if
	// it is, it must not be treated as solvable.
	malformed := schemas.Challenge{Kind: schemas.ChallengeText}
	assert.False(t, malformed.Solvable())
}
