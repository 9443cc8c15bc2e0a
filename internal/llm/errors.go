package llm

import "fmt"

// Kind classifies a reply generation failure.
type Kind int

const (
	// KindAuth covers HTTP 401 and a missing credential. Never retried.
	KindAuth Kind = iota
	// KindRateLimit covers HTTP 429.
	KindRateLimit
	// KindUnavailable covers HTTP 503.
	KindUnavailable
	// KindTimeout covers network timeouts and aborted requests.
	KindTimeout
	// KindEmptyResponse covers responses with no extractable text.
	KindEmptyResponse
	// KindUpstream covers every other upstream failure.
	KindUpstream
)

// Error is a classified reply generation failure. Message is safe to show
// to the caller in an error envelope.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	return e.Kind != KindAuth
}

func authError(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}
