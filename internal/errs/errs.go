// Package errs models the abstract error kinds the pipeline distinguishes
// between: transient conditions the HTTP layer retries on its own, and
// terminal conditions the ingester must classify and act on.
package errs

import "errors"

// Kind classifies an error for retry/propagation decisions.
type Kind int

const (
	// KindUnknown is the zero value and names no specific error kind.
	KindUnknown Kind = iota
	// KindTransientTransport covers connection resets, timeouts, and DNS failures.
	KindTransientTransport
	// KindRateLimited covers HTTP 429 responses.
	KindRateLimited
	// KindPermanentHTTP covers 4xx responses other than 429.
	KindPermanentHTTP
	// KindMalformedResponse covers JSON parse failures and missing required fields.
	KindMalformedResponse
	// KindDomainViolation covers validation failures: empty content, unknown
	// document kind, and similar domain-level rejections.
	KindDomainViolation
)

func (k Kind) String() string {
	switch k {
	case KindTransientTransport:
		return "transient_transport"
	case KindRateLimited:
		return "rate_limited"
	case KindPermanentHTTP:
		return "permanent_http"
	case KindMalformedResponse:
		return "malformed_response"
	case KindDomainViolation:
		return "domain_violation"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind so callers can branch on
// classification via errors.As without string-matching messages.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind. If err is nil, New returns nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Retryable reports whether the HTTP layer should retry an error of this kind.
func Retryable(err error) bool {
	return Is(err, KindTransientTransport) || Is(err, KindRateLimited)
}
