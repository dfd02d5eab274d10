package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// ErrAlreadyInitialized is returned by a second call to CatalogService.Initialize
var ErrAlreadyInitialized = errors.New("catalog already initialized")

// StaleSelectionError is returned when the selected key is not in the current snapshot.
// The catalog may have refreshed between render and click; the caller should re-render.
type StaleSelectionError struct {
	Key models.OfferKey
}

func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("offer %q is no longer in the catalog", string(e.Key))
}

// SubmissionKind classifies a failed bet submission
type SubmissionKind string

const (
	SubmissionNetwork  SubmissionKind = "network"  // Request did not complete
	SubmissionRejected SubmissionKind = "rejected" // Endpoint answered with a non-success status
)

// SubmissionError is returned when a selected offer could not be placed
type SubmissionError struct {
	Kind       SubmissionKind
	AttemptID  uuid.UUID
	Key        models.OfferKey
	StatusCode int    // Set for SubmissionRejected
	Reason     string // Set for SubmissionRejected
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Kind == SubmissionRejected {
		return fmt.Sprintf("bet rejected (status %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("bet submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
