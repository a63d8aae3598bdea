// Package response holds the JSON envelopes shared by handlers, middleware
// and the error handler.
package response

// User-facing messages. Some are asserted by clients verbatim.
const (
	MsgAuthRequired  = "Authentication required"
	MsgInvalidToken  = "Invalid or expired token"
	MsgBadLogin      = "Invalid username/email/phone or password"
	MsgRateLimited   = "Too many login attempts, please try again later"
	MsgInvalidBody   = "Invalid request body"
	MsgForbidden     = "Access forbidden"
	MsgInternalError = "Internal server error"
)

// Error is the canonical error envelope for all API errors.
type Error struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func Fail(message string) Error {
	return Error{Message: message}
}

func FailField(field, message string) Error {
	return Error{Message: message, Field: field}
}
