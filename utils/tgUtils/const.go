package tgUtils

const (
	ChatActionTyping = "typing"

	ErrBlockedByUser     = "Forbidden: bot was blocked by the user"
	ErrChatNotFound      = "Bad Request: chat not found"
	ErrNotStartedByUser  = "Forbidden: bot can't initiate conversation with a user"
	ErrUserIsDeactivated = "Forbidden: user is deactivated"
)
