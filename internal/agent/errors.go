package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hattiebot/conduit/internal/core"
)

// ProviderError marks a failed model call. The request is aborted; the
// session stays usable.
type ProviderError struct {
	Turn int
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model call (turn %d): %v", e.Turn, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// isTransient reports provider failures worth telling the user to retry.
func isTransient(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "overloaded") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "504") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "temporarily unavailable")
}

// UserMessage turns a request error into text suitable for the user. Raw
// provider errors are not shown.
func UserMessage(err error) string {
	var perr *ProviderError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrMaxTurns):
		return "I hit the turn limit for this request. Please try a shorter or simpler ask, or break it into separate messages."
	case errors.As(err, &perr) && isTransient(perr.Err):
		return "The model provider is temporarily unavailable. Please try again in a moment."
	case errors.As(err, &perr):
		return "The model provider returned an error. Please try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}
