package usgs

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	// KindTransport covers DNS, connection, timeout and cancellation failures.
	KindTransport ErrorKind = "transport"
	// KindStatus is a non-200 response from the feed.
	KindStatus ErrorKind = "status"
	// KindMalformed is a 200 response whose body is not a feature collection.
	KindMalformed ErrorKind = "malformed"
)

// FetchError is returned by Client.Fetch for every request-level failure.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int // set for KindStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("usgs feed: status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("usgs feed: %s: %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the kind of a FetchError anywhere in err's chain, or "" if
// err is not a fetch failure.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
