package billing

import "strings"

// Action is a tenant-initiated operation that may be subject to a plan limit
type Action int

const (
	// ActionUnrecognized is any action name outside the known set. It is allowed.
	ActionUnrecognized Action = iota
	ActionCreateProject
	ActionCreateTask
	ActionInviteMember
	ActionUseAI
	ActionUploadFile
)

var actionNames = map[Action]string{
	ActionCreateProject: "create_project",
	ActionCreateTask:    "create_task",
	ActionInviteMember:  "invite_member",
	ActionUseAI:         "use_ai",
	ActionUploadFile:    "upload_file",
}

// ParseAction maps a wire action name to an Action. Unknown names yield ActionUnrecognized.
func ParseAction(s string) Action {
	name := strings.ToLower(strings.TrimSpace(s))
	for a, n := range actionNames {
		if n == name {
			return a
		}
	}
	return ActionUnrecognized
}

// String returns the wire name of the action
func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unrecognized"
}

// IsRecognized reports whether the action belongs to the known set
func (a Action) IsRecognized() bool {
	_, ok := actionNames[a]
	return ok
}

// Actions returns all recognized actions
func Actions() []Action {
	return []Action{
		ActionCreateProject,
		ActionCreateTask,
		ActionInviteMember,
		ActionUseAI,
		ActionUploadFile,
	}
}
