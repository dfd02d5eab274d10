package models

import (
	"time"

	"github.com/google/uuid"
)

// SelectionState is the state of a single bet selection attempt
type SelectionState string

const (
	SelectionIdle       SelectionState = "idle"
	SelectionSubmitting SelectionState = "submitting"
	SelectionConfirmed  SelectionState = "confirmed"
	SelectionFailed     SelectionState = "failed"
)

// Terminal reports whether no further transition is possible
func (s SelectionState) Terminal() bool {
	return s == SelectionConfirmed || s == SelectionFailed
}

// PlacementResult is what the bet-placement endpoint returned for an accepted bet
type PlacementResult struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body,omitempty"`
}

// BetReceipt represents a confirmed bet submission
type BetReceipt struct {
	AttemptID   uuid.UUID      `json:"attempt_id"`
	Key         OfferKey       `json:"key"`
	Offer       Offer          `json:"offer"`
	State       SelectionState `json:"state"`
	StatusCode  int            `json:"status_code"` // Status returned by the bet endpoint
	SubmittedAt time.Time      `json:"submitted_at"`
	ConfirmedAt time.Time      `json:"confirmed_at"`
}

// CachedSnapshot is the form in which an accepted catalog snapshot is mirrored
type CachedSnapshot struct {
	Version     uint64    `json:"version"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Offers      []Offer   `json:"offers"`
}

// OffersUpdatedMessage is the notification published when the upstream feed has new offers
type OffersUpdatedMessage struct {
	BatchID   string    `json:"batch_id"`
	Timestamp time.Time `json:"timestamp"`
}
