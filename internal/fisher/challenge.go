package fisher

import (
	"regexp"
	"strings"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// challengeMarker is the phrase that identifies a credential challenge in
// the timeline. Detection runs before normal classification every cycle,
// since a challenge can share a settle window with a result message.
const challengeMarker = "anti-bot"

// codePattern extracts the verification code from a text challenge. The
// remote side labels it "Code: XXXX"; the code itself is alphanumeric.
var codePattern = regexp.MustCompile(`(?i)\bcode:\s*([A-Za-z0-9]+)`)

// DetectChallenge scans the trailing entries, newest first, for the
// challenge marker. A marker entry with an extractable code yields a text
// challenge; without one, an image challenge. Detection is a pure read and
// is idempotent over the same entries.
func DetectChallenge(entries []string) *schemas.Challenge {
	for i := len(entries) - 1; i >= 0 && i >= len(entries)-recentEntryDepth; i-- {
		entry := entries[i]
		if !strings.Contains(strings.ToLower(entry), challengeMarker) {
			continue
		}
		challenge := &schemas.Challenge{
			Kind:    schemas.ChallengeImage,
			RawText: entry,
		}
		if m := codePattern.FindStringSubmatch(entry); m != nil {
			challenge.Kind = schemas.ChallengeText
			challenge.SolutionCode = m[1]
		}
		return challenge
	}
	return nil
}
