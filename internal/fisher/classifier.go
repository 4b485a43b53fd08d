package fisher

import (
	"strings"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// recentEntryDepth is how many trailing timeline entries a cycle inspects.
// Responses can arrive as two messages within a few hundred milliseconds of
// each other, so a single-entry check would race the second message.
const recentEntryDepth = 2

// classificationRules is the ordered decision table mapping response text
// to outcomes. Matching is case-insensitive substring containment and the
// first hit wins; depletion outranks the confirmations to guard against
// accidental phrase overlap.
var classificationRules = []struct {
	needle  string
	outcome schemas.Outcome
}{
	{"ran out of", schemas.OutcomeResourceDepleted},
	{"sold all", schemas.OutcomeLiquidationConfirmed},
	{"you bought", schemas.OutcomeReplenishConfirmed},
	{"successfully bought", schemas.OutcomeReplenishConfirmed},
}

// Classify maps the trailing timeline entries to a semantic outcome.
// Entries arrive oldest first; the newest entry is consulted first and an
// older entry is only consulted when the newest one matches nothing, which
// covers a result message interleaved with a challenge message. Unknown
// text is benign and maps to OutcomeNormalResult so the loop resumes the
// primary action rather than stalling on unrecognized content.
func Classify(entries []string) schemas.Outcome {
	for i := len(entries) - 1; i >= 0 && i >= len(entries)-recentEntryDepth; i-- {
		lowered := strings.ToLower(entries[i])
		if lowered == "" {
			continue
		}
		for _, rule := range classificationRules {
			if strings.Contains(lowered, rule.needle) {
				return rule.outcome
			}
		}
	}
	return schemas.OutcomeNormalResult
}

// NextAction maps an outcome to the following cycle's pending action.
// Everything that is not part of the corrective chain resumes the primary
// action.
func NextAction(outcome schemas.Outcome) schemas.Action {
	switch outcome {
	case schemas.OutcomeResourceDepleted:
		return schemas.ActionLiquidate
	case schemas.OutcomeLiquidationConfirmed:
		return schemas.ActionReplenish
	default:
		return schemas.ActionPrimary
	}
}
