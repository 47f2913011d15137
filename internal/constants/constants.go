package constants

// Context and session keys
const (
	ContextKeyIdentity  = "identity"
	ContextKeyRequestID = "request_id"

	SessionKeyUserID  = "user_id"
	SessionCookieName = "project_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 1_000_000
)

// Validation
const (
	MinPasswordLength = 8
	MaxAISuggestions  = 20
)

// Realtime events
const (
	EventJoinProject  = "joinProject"
	EventLeaveProject = "leaveProject"
	EventTaskUpdate   = "taskUpdate"
	EventTaskUpdated  = "taskUpdated"

	EventJoinedProject = "joinedProject"
	EventLeftProject   = "leftProject"
	EventError         = "error"
)

const HeaderRequestID = "X-Request-ID"
