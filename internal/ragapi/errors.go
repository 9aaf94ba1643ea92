package ragapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoKnowledgeBase
	KindServerError
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNoKnowledgeBase:
		return "no_knowledge_base"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails at the transport boundary.
type Error struct {
	Kind       Kind
	StatusCode int    // 0 when no response was received
	Detail     string // backend "detail" field, if any
	Err        error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrNoKnowledgeBase = &Error{Kind: KindNoKnowledgeBase}
	ErrServerError     = &Error{Kind: KindServerError}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrUnknown         = &Error{Kind: KindUnknown}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf classifies any error returned by the client.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if isTimeout(err) {
		return KindTimeout
	}
	return KindUnknown
}

// statusError builds the classified error for a non-2xx response.
// Only 400 and 500 have a dedicated kind.
func statusError(code int, detail string) *Error {
	kind := KindUnknown
	switch code {
	case http.StatusBadRequest:
		kind = KindNoKnowledgeBase
	case http.StatusInternalServerError:
		kind = KindServerError
	}
	return &Error{Kind: kind, StatusCode: code, Detail: detail}
}

// transportError classifies a failure where no usable response arrived.
func transportError(err error) *Error {
	if isTimeout(err) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
