package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the geocoder has no match for a city.
	ErrNotFound = errors.New("city not found")
	// ErrMalformedResponse is returned when an upstream body does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// FetchKind classifies a failed outbound call.
type FetchKind int

const (
	FetchOther FetchKind = iota
	FetchConnectTimeout
	FetchReadTimeout
	FetchConnectionRefused
)

func (k FetchKind) String() string {
	switch k {
	case FetchConnectTimeout:
		return "connect timeout"
	case FetchReadTimeout:
		return "read timeout"
	case FetchConnectionRefused:
		return "connection refused"
	default:
		return "request error"
	}
}

// FetchError is a transport level failure of a single outbound call.
// An HTTP response carrying an error body is never a FetchError.
type FetchError struct {
	Kind FetchKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
