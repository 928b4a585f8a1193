package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"create_project", ActionCreateProject},
		{"create_task", ActionCreateTask},
		{"invite_member", ActionInviteMember},
		{"use_ai", ActionUseAI},
		{"upload_file", ActionUploadFile},
		{"UPLOAD_FILE", ActionUploadFile},
		{"nonexistent_action", ActionUnrecognized},
		{"", ActionUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAction(tt.in))
		})
	}
}

func TestAction_String(t *testing.T) {
	for _, a := range Actions() {
		assert.True(t, a.IsRecognized())
		assert.Equal(t, a, ParseAction(a.String()))
	}
	assert.False(t, ActionUnrecognized.IsRecognized())
	assert.Equal(t, "unrecognized", ActionUnrecognized.String())
}
