package shared

import "errors"

var (
	// ErrNotFound indicates a resource absent or outside the caller's organization.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates an operation rejected by a lifecycle guard.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
)

// UserSafeMessage maps an error to a message presentable to API consumers.
// Internal errors collapse to a generic message so store details never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "requested record was not found"
	case errors.Is(err, ErrInvalidState):
		return err.Error()
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "internal error, please retry later"
	}
}
