package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormState(t *testing.T) {
	tests := []struct {
		name       string
		state      FormState
		mode       Mode
		target     CommentID
		hasTarget  bool
		editTarget bool
		str        string
	}{
		{name: "zero value is idle", state: FormState{}, mode: ModeIdle, str: "Idle"},
		{name: "replying", state: Replying(3, "alice"), mode: ModeReplying, target: 3, hasTarget: true, str: `Replying(3, "alice")`},
		{name: "editing", state: Editing(5), mode: ModeEditing, target: 5, hasTarget: true, editTarget: true, str: "Editing(5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mode, tt.state.Mode())

			target, ok := tt.state.Target()
			assert.Equal(t, tt.hasTarget, ok)
			assert.Equal(t, tt.target, target)

			_, ok = tt.state.EditTarget()
			assert.Equal(t, tt.editTarget, ok)

			assert.Equal(t, tt.str, tt.state.String())
		})
	}
}

func TestQuoteReply(t *testing.T) {
	assert.Equal(t, "bob:<blockquote>it <b>fails</b></blockquote>\n", QuoteReply("bob", "it <b>fails</b>"))
}
