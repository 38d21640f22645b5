package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"
)

// ErrorKind classifies a failed GitHub API call.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindNotFound
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate limited"
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "network error"
	default:
		return "unexpected response"
	}
}

// APIError is returned by every Fetcher method on failure.
type APIError struct {
	Kind   ErrorKind
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an *APIError anywhere in err's chain.
// Errors that are not API errors report KindUnexpected.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnexpected
}

// classify turns a go-github error into an *APIError.
func classify(op string, resp *github.Response, err error) *APIError {
	apiErr := &APIError{Op: op, Err: err}
	if resp != nil && resp.Response != nil {
		apiErr.Status = resp.StatusCode
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr), resp != nil && isSecondaryLimited(resp.Response):
		apiErr.Kind = KindRateLimited
		return apiErr
	case apiErr.Status == 0:
		apiErr.Kind = KindNetwork
		return apiErr
	}

	switch apiErr.Status {
	case http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
	case http.StatusForbidden:
		apiErr.Kind = KindForbidden
		// GitHub signals an exhausted primary limit with 403 and a zero remaining count.
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			apiErr.Kind = KindRateLimited
		}
	case http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimited
	case http.StatusNotFound:
		apiErr.Kind = KindNotFound
	default:
		apiErr.Kind = KindUnexpected
	}
	return apiErr
}
