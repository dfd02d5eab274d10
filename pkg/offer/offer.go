// Package offer validates raw offer-feed records into models.Offer values.
package offer

import (
	"encoding/json"
	"fmt"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// MalformedOfferError is returned when a feed record fails validation
type MalformedOfferError struct {
	Index  int    // Position of the record in the feed, -1 when parsed on its own
	Field  string // Offending wire field, empty when the record itself is unusable
	Reason string
}

func (e *MalformedOfferError) Error() string {
	prefix := "malformed offer"
	if e.Index >= 0 {
		prefix = fmt.Sprintf("malformed offer[%d]", e.Index)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", prefix, e.Reason)
	}
	return fmt.Sprintf("%s: field %s: %s", prefix, e.Field, e.Reason)
}

// ComputeKey returns the identity of an offer
func ComputeKey(o *models.Offer) models.OfferKey {
	return models.ComputeKey(o.EventID, o.MarketKey, o.OutcomeDesc, o.OutcomeName)
}

// Parse validates a single feed record.
//
// EventId, MarketKey, OutcomeName and OutcomeDesc must be strings and Price
// must be a number. The remaining modeled fields default to their zero value
// when absent or null. A field of the wrong type always fails.
func Parse(raw json.RawMessage) (*models.Offer, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &MalformedOfferError{Index: -1, Reason: "record is not a JSON object"}
	}

	r := &fieldReader{fields: fields}
	o := &models.Offer{
		EventID:       r.requiredString(models.FieldEventID),
		SportKey:      r.optionalString(models.FieldSportKey),
		EventHomeTeam: r.optionalString(models.FieldEventHomeTeam),
		EventAwayTeam: r.optionalString(models.FieldEventAwayTeam),
		CommenceTime:  r.commenceTime(models.FieldCommenceTime),
		Bookmaker:     r.optionalString(models.FieldBookmaker),
		MarketKey:     r.requiredString(models.FieldMarketKey),
		OutcomeName:   r.requiredString(models.FieldOutcomeName),
		OutcomeDesc:   r.requiredString(models.FieldOutcomeDesc),
		OutcomePoint:  r.optionalNumber(models.FieldOutcomePoint),
		Price:         r.requiredNumber(models.FieldPrice),
		OutlierScore:  r.optionalNumber(models.FieldOutlierScore),
	}
	if r.err != nil {
		return nil, r.err
	}

	for name, value := range fields {
		if models.IsModeledField(name) {
			continue
		}
		if o.Extra == nil {
			o.Extra = make(map[string]json.RawMessage)
		}
		o.Extra[name] = value
	}

	return o, nil
}

// ParseAll parses feed records in order. Records that fail validation are
// dropped and reported, one error per dropped record.
func ParseAll(records []json.RawMessage) ([]*models.Offer, []*MalformedOfferError) {
	offers := make([]*models.Offer, 0, len(records))
	var malformed []*MalformedOfferError

	for i, raw := range records {
		o, err := Parse(raw)
		if err != nil {
			merr := err.(*MalformedOfferError)
			merr.Index = i
			malformed = append(malformed, merr)
			continue
		}
		offers = append(offers, o)
	}

	return offers, malformed
}

// fieldReader decodes fields and keeps the first validation failure
type fieldReader struct {
	fields map[string]json.RawMessage
	err    *MalformedOfferError
}

func (r *fieldReader) lookup(name string) (json.RawMessage, bool) {
	raw, ok := r.fields[name]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func (r *fieldReader) fail(name, reason string) {
	if r.err == nil {
		r.err = &MalformedOfferError{Index: -1, Field: name, Reason: reason}
	}
}

func (r *fieldReader) requiredString(name string) string {
	raw, ok := r.lookup(name)
	if !ok {
		r.fail(name, "missing")
		return ""
	}
	return r.decodeString(name, raw)
}

func (r *fieldReader) optionalString(name string) string {
	raw, ok := r.lookup(name)
	if !ok {
		return ""
	}
	return r.decodeString(name, raw)
}

func (r *fieldReader) decodeString(name string, raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.fail(name, "expected string")
		return ""
	}
	return s
}

func (r *fieldReader) requiredNumber(name string) float64 {
	raw, ok := r.lookup(name)
	if !ok {
		r.fail(name, "missing")
		return 0
	}
	return r.decodeNumber(name, raw)
}

func (r *fieldReader) optionalNumber(name string) float64 {
	raw, ok := r.lookup(name)
	if !ok {
		return 0
	}
	return r.decodeNumber(name, raw)
}

func (r *fieldReader) decodeNumber(name string, raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		r.fail(name, "expected number")
		return 0
	}
	return f
}

func (r *fieldReader) commenceTime(name string) models.CommenceTime {
	var t models.CommenceTime
	raw, ok := r.lookup(name)
	if !ok {
		return t
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		r.fail(name, "expected RFC 3339 timestamp")
		return models.CommenceTime{}
	}
	return t
}
