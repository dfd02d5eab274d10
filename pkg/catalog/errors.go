package catalog

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a refresh did not produce a snapshot
type FetchErrorKind string

const (
	KindNetwork          FetchErrorKind = "network"            // Transport failure or timeout
	KindStatus           FetchErrorKind = "status"             // Feed answered with a non-2xx status
	KindMalformedBody    FetchErrorKind = "malformed_body"     // Body is not a {"results": [...]} document
	KindTooManyMalformed FetchErrorKind = "too_many_malformed" // Malformed records above the configured ratio
)

// FetchError is returned by Refresh when the snapshot was left untouched
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // Set for KindStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus && e.Err != nil:
		return fmt.Sprintf("fetch offers: status %d: %v", e.StatusCode, e.Err)
	case e.Kind == KindStatus:
		return fmt.Sprintf("fetch offers: status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch offers: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch offers: %s", e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// asFetchError classifies an error returned by a Source. Anything the source
// did not classify itself, context errors included, is a network failure.
func asFetchError(err error) *FetchError {
	var ferr *FetchError
	if errors.As(err, &ferr) {
		return ferr
	}
	return &FetchError{Kind: KindNetwork, Err: err}
}
