package requester

import (
	"net/http"
	"strings"
	"time"
)

// Request is a fully resolved, transport-ready call
type Request struct {
	ID      string
	URL     string
	Method  string
	Headers map[string]string
	// Body is nil for GET and HEAD. For other methods it holds the
	// caller's parameters unchanged; encoding happens at send time.
	Body    any
	Timeout time.Duration
}

// OutcomeKind tags which variant an Outcome holds
type OutcomeKind int

const (
	KindSuccess OutcomeKind = iota
	KindHTTPError
	KindTransportError
	KindCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindTransportError:
		return "transport_error"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of executing a Request. Only the
// fields belonging to Kind are set:
//
//   - KindSuccess: Payload holds the decoded JSON body
//   - KindHTTPError: Status and Body (decoded JSON, or the raw text as "{status: text}")
//   - KindTransportError: Cause holds the original error
//   - KindCancelled: Cause holds the cancellation cause
type Outcome struct {
	Kind    OutcomeKind
	Payload any
	Status  int
	Body    any
	Cause   error
}

// Err converts the outcome into an error: nil on success, otherwise an
// *HTTPError, *TransportError or *CancelledError.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindHTTPError:
		return &HTTPError{Status: o.Status, Body: o.Body}
	case KindTransportError:
		return &TransportError{Cause: o.Cause}
	case KindCancelled:
		return &CancelledError{Cause: o.Cause}
	default:
		return &TransportError{Cause: ErrNoResponse}
	}
}

func success(payload any) Outcome {
	return Outcome{Kind: KindSuccess, Payload: payload}
}

func httpError(status int, body any) Outcome {
	return Outcome{Kind: KindHTTPError, Status: status, Body: body}
}

func transportError(cause error) Outcome {
	return Outcome{Kind: KindTransportError, Cause: cause}
}

func cancelled(cause error) Outcome {
	return Outcome{Kind: KindCancelled, Cause: cause}
}

// IsReadOnly reports whether method carries its parameters in the query
// string rather than the body.
func IsReadOnly(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return true
	default:
		return false
	}
}
