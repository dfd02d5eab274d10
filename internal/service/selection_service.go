package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/internal/client"
	"github.com/cypherlabdev/offer-catalog-service/internal/metrics"
	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// Selection outcome labels
const (
	outcomeConfirmed = "confirmed"
	outcomeStale     = "stale"
)

// SelectionService turns a selected offer key into one bet submission
type SelectionService struct {
	offers  OfferLookup
	placer  BetPlacer
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// NewSelectionService creates a new selection service
func NewSelectionService(
	offers OfferLookup,
	placer BetPlacer,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SelectionService {
	return &SelectionService{
		offers:  offers,
		placer:  placer,
		metrics: metrics,
		now:     time.Now,
		logger:  logger.With().Str("component", "selection_service").Logger(),
	}
}

// Select resolves key against the current snapshot and submits the offer once.
// A key missing from the snapshot fails with *StaleSelectionError and nothing
// is submitted. Submission failures are *SubmissionError. There is no retry;
// a new selection starts a new attempt.
func (s *SelectionService) Select(ctx context.Context, key models.OfferKey) (*models.BetReceipt, error) {
	offer, found := s.offers.Lookup(key)
	if !found {
		s.metrics.ObserveSelection(outcomeStale)
		s.logger.Info().
			Str("key", string(key)).
			Msg("selected offer is no longer in the catalog")
		return nil, &StaleSelectionError{Key: key}
	}

	attempt := newAttempt(key)
	if err := attempt.advance(models.SelectionSubmitting); err != nil {
		return nil, err
	}

	start := s.now()
	result, err := s.placer.PlaceBet(ctx, &offer, attempt.id.String())
	s.metrics.ObserveSubmission(s.now().Sub(start))

	if err != nil {
		if advErr := attempt.advance(models.SelectionFailed); advErr != nil {
			return nil, advErr
		}

		serr := classifySubmission(err, attempt)
		s.metrics.ObserveSelection(string(serr.Kind))
		s.logger.Error().
			Err(err).
			Str("attempt_id", attempt.id.String()).
			Str("key", string(key)).
			Str("kind", string(serr.Kind)).
			Int("status", serr.StatusCode).
			Msg("bet submission failed")
		return nil, serr
	}

	if err := attempt.advance(models.SelectionConfirmed); err != nil {
		return nil, err
	}

	statusCode := 0
	if result != nil {
		statusCode = result.StatusCode
	}

	s.metrics.ObserveSelection(outcomeConfirmed)
	s.logger.Info().
		Str("attempt_id", attempt.id.String()).
		Str("key", string(key)).
		Str("event_id", offer.EventID).
		Str("market", offer.MarketKey).
		Float64("price", offer.Price).
		Msg("bet confirmed")

	return &models.BetReceipt{
		AttemptID:   attempt.id,
		Key:         key,
		Offer:       offer,
		State:       attempt.state,
		StatusCode:  statusCode,
		SubmittedAt: start,
		ConfirmedAt: s.now(),
	}, nil
}

// classifySubmission maps a placer error to a SubmissionError
func classifySubmission(err error, attempt *selectionAttempt) *SubmissionError {
	serr := &SubmissionError{
		Kind:      SubmissionNetwork,
		AttemptID: attempt.id,
		Key:       attempt.key,
		Err:       err,
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		serr.Kind = SubmissionRejected
		serr.StatusCode = statusErr.StatusCode
		serr.Reason = statusErr.Reason
	}

	return serr
}

// selectionAttempt is one run of Idle -> Submitting -> Confirmed | Failed.
// Attempts are never resumed.
type selectionAttempt struct {
	id    uuid.UUID
	key   models.OfferKey
	state models.SelectionState
}

func newAttempt(key models.OfferKey) *selectionAttempt {
	return &selectionAttempt{
		id:    uuid.New(),
		key:   key,
		state: models.SelectionIdle,
	}
}

var allowedTransitions = map[models.SelectionState][]models.SelectionState{
	models.SelectionIdle:       {models.SelectionSubmitting},
	models.SelectionSubmitting: {models.SelectionConfirmed, models.SelectionFailed},
}

func (a *selectionAttempt) advance(to models.SelectionState) error {
	for _, next := range allowedTransitions[a.state] {
		if next == to {
			a.state = to
			return nil
		}
	}
	return fmt.Errorf("selection attempt %s: invalid transition %s -> %s", a.id, a.state, to)
}
