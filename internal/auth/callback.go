package auth

import (
	"errors"
	"net/url"
)

// ErrInvalidCallback is returned when a redirect callback carries neither a
// code nor an error parameter.
var ErrInvalidCallback = errors.New("invalid authentication callback")

// CallbackKind discriminates the three possible outcomes of the interactive
// authentication step.
type CallbackKind int

const (
	// CallbackCode means the user consented and the provider returned an
	// authorization code.
	CallbackCode CallbackKind = iota
	// CallbackError means the provider reported an error on the redirect.
	CallbackError
	// CallbackCancelled means the user dismissed the authentication
	// session without completing it.
	CallbackCancelled
)

// CallbackResult is the outcome delivered by the interactive step. The
// orchestrator consumes it without knowing how the redirect was captured,
// so synthetic results can drive it in tests.
type CallbackResult struct {
	Kind   CallbackKind
	Code   string
	Reason string
}

// ParseCallback classifies the query parameters of a redirect callback.
// An error parameter wins over a code parameter.
func ParseCallback(q url.Values) (CallbackResult, error) {
	if msg := q.Get("error"); msg != "" {
		reason := msg
		if desc := q.Get("error_description"); desc != "" {
			reason = desc
		}
		return CallbackResult{Kind: CallbackError, Reason: reason}, nil
	}
	if code := q.Get("code"); code != "" {
		return CallbackResult{Kind: CallbackCode, Code: code}, nil
	}
	return CallbackResult{}, ErrInvalidCallback
}

// Cancelled is the result reported when the user abandons the session.
func Cancelled() CallbackResult {
	return CallbackResult{Kind: CallbackCancelled}
}
