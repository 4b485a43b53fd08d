package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryText(t *testing.T) {
	testCases := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "plain text",
			markup: `<li id="chat-messages-1">You caught a Common Fish!</li>`,
			want:   "You caught a Common Fish!",
		},
		{
			name:   "inline markup is flattened",
			markup: `<li>You caught a <strong>Rare</strong> Fish!</li>`,
			want:   "You caught a Rare Fish!",
		},
		{
			name:   "nested blocks collapse to single spaces",
			markup: `<li><div><span>Anti-bot check!</span></div><div>Code:</div><div>Q7W2</div></li>`,
			want:   "Anti-bot check! Code: Q7W2",
		},
		{
			name:   "whitespace runs are normalized",
			markup: "<li>\n\tYou   sold all\n\tyour fish!\n</li>",
			want:   "You sold all your fish!",
		},
		{
			name:   "script and style text is dropped",
			markup: `<li>You bought 50 worms.<script>track()</script><style>.a{}</style></li>`,
			want:   "You bought 50 worms.",
		},
		{
			name:   "image-only entry has no text",
			markup: `<li><img src="captcha.png" alt=""/></li>`,
			want:   "",
		},
		{
			name:   "empty markup",
			markup: "",
			want:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := entryText(tc.markup)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
