package resilience

import (
	"errors"
	"net"
	"regexp"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry (429, 5xx, network trouble).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient. statusCode may be 0.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// statusInMessage catches retryable status codes that only survive as text
// in wrapped client errors. A bare number is not enough: the code must follow
// "status"/"HTTP" or precede its reason phrase. Matched against lowercased text.
var statusInMessage = regexp.MustCompile(
	`(?:\bstatus(?: code)?:?\s*|\bhttp(?:/\d(?:\.\d)?)?\s+)(?:408|429|500|502|503|504|529)\b` +
		`|\b(?:408 request timeout|429 too many requests|500 internal server error|502 bad gateway|503 service unavailable|504 gateway timeout)\b`,
)

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"overloaded",
}

// IsTransient reports whether err, or anything it wraps, is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return statusInMessage.MatchString(msg)
}

// IsTransientHTTPStatus reports whether an HTTP status is retryable.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504, 529:
		return true
	default:
		return false
	}
}

// ClassifyError categorizes an error as "transient" or "permanent" for logs.
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
