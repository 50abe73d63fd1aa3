package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Session token ─────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidOption  ErrCode = "INVALID_OPTION"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Quiz ──────────────────────────────────────────────────────────
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "A quiz session token is required."
	case ErrTokenInvalid:
		return "The quiz session token is invalid or expired."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidOption:
		return "Option must be one of A, B, C or D."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrSessionNotFound:
		return "Quiz session not found. Please start a new quiz."

	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
