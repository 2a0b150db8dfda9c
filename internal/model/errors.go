package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBusy              = errors.New("previous request is still pending")
	ErrEmptyRequest      = errors.New("empty request")
	ErrMissingCredential = errors.New("api credential is not configured")

	ErrHistoryDoesNotExist = errors.New("history does not exist")
	ErrThemeDoesNotExist   = errors.New("theme does not exist")

	ErrMalformedResponse     = errors.New("unexpected response format")
	ErrUnauthorized          = errors.New("invalid api token")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrBadRequest            = errors.New("bad request")
	ErrModelUnavailable      = errors.New("model unavailable")
	ErrModelNotFound         = fmt.Errorf("%w: model not found", ErrModelUnavailable)
	ErrModelLoading          = fmt.Errorf("%w: model is loading", ErrModelUnavailable)
	ErrEmptyOrInvalidPayload = errors.New("empty or non-image response")
)

// HTTPError is a non-success response from a remote API. Kind is one of the
// sentinels above, or nil when the status has no dedicated meaning.
type HTTPError struct {
	StatusCode int
	Body       string
	Kind       error
}

func NewHTTPError(statusCode int, body string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Body:       body,
		Kind:       ClassifyStatus(statusCode),
	}
}

func (e *HTTPError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("api error %d: %v", e.StatusCode, e.Kind)
	}
	if e.Body != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

func ClassifyStatus(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusServiceUnavailable:
		return ErrModelLoading
	default:
		return nil
	}
}
