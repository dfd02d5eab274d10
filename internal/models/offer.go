package models

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"
)

// OfferKey is the derived identity of an offer within a catalog snapshot
type OfferKey string

// offerKeySeparator never appears inside an escaped component
const offerKeySeparator = ":"

// Wire names of the fields the offer feed sends
const (
	FieldEventID       = "EventId"
	FieldSportKey      = "SportKey"
	FieldEventHomeTeam = "EventHomeTeam"
	FieldEventAwayTeam = "EventAwayTeam"
	FieldCommenceTime  = "CommenceTime"
	FieldBookmaker     = "Bookmaker"
	FieldMarketKey     = "MarketKey"
	FieldOutcomeName   = "OutcomeName"
	FieldOutcomeDesc   = "OutcomeDesc"
	FieldOutcomePoint  = "OutcomePoint"
	FieldPrice         = "Price"
	FieldOutlierScore  = "OutlierScore"
)

var modeledFields = map[string]struct{}{
	FieldEventID:       {},
	FieldSportKey:      {},
	FieldEventHomeTeam: {},
	FieldEventAwayTeam: {},
	FieldCommenceTime:  {},
	FieldBookmaker:     {},
	FieldMarketKey:     {},
	FieldOutcomeName:   {},
	FieldOutcomeDesc:   {},
	FieldOutcomePoint:  {},
	FieldPrice:         {},
	FieldOutlierScore:  {},
}

// IsModeledField reports whether name is one of the Offer's own wire fields
func IsModeledField(name string) bool {
	_, ok := modeledFields[name]
	return ok
}

// Offer represents a single quoted betting line for one outcome of one market in one event.
// Field names on the wire keep the capitalized casing used by the offer feed.
type Offer struct {
	EventID       string       `json:"EventId"`
	SportKey      string       `json:"SportKey"`
	EventHomeTeam string       `json:"EventHomeTeam"`
	EventAwayTeam string       `json:"EventAwayTeam"`
	CommenceTime  CommenceTime `json:"CommenceTime"`
	Bookmaker     string       `json:"Bookmaker,omitempty"`
	MarketKey     string       `json:"MarketKey"`
	OutcomeName   string       `json:"OutcomeName"`
	OutcomeDesc   string       `json:"OutcomeDesc"`
	OutcomePoint  float64      `json:"OutcomePoint"`
	Price         float64      `json:"Price"`
	OutlierScore  float64      `json:"OutlierScore"` // Computed upstream, opaque here

	// Extra holds upstream fields this service does not model. They are
	// written back verbatim when the offer is submitted.
	Extra map[string]json.RawMessage `json:"-"`
}

// ComputeKey derives the identity of an offer from its four identity components.
// Components are query-escaped before joining, so two keys are equal only
// when all four components are equal.
func ComputeKey(eventID, marketKey, outcomeDesc, outcomeName string) OfferKey {
	parts := []string{
		url.QueryEscape(eventID),
		url.QueryEscape(marketKey),
		url.QueryEscape(outcomeDesc),
		url.QueryEscape(outcomeName),
	}
	return OfferKey(strings.Join(parts, offerKeySeparator))
}

// Key returns the identity of the offer
func (o *Offer) Key() OfferKey {
	return ComputeKey(o.EventID, o.MarketKey, o.OutcomeDesc, o.OutcomeName)
}

// Clone returns a deep copy of the offer
func (o *Offer) Clone() Offer {
	c := *o
	if o.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// MarshalJSON encodes the modeled fields followed by any pass-through fields
func (o Offer) MarshalJSON() ([]byte, error) {
	type plain Offer
	data, err := json.Marshal(plain(o))
	if err != nil || len(o.Extra) == 0 {
		return data, err
	}

	keys := make([]string, 0, len(o.Extra))
	for k := range o.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(o.Extra[k])
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the modeled fields and keeps the rest in Extra.
// It performs no validation; feed records go through the offer package.
func (o *Offer) UnmarshalJSON(data []byte) error {
	type plain Offer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for name, raw := range fields {
		if IsModeledField(name) {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[name] = raw
	}

	*o = Offer(p)
	return nil
}

// CommenceTime is the scheduled start of an event. The text received from the
// feed is kept so the offer re-encodes exactly as it arrived.
type CommenceTime struct {
	time.Time
	raw string
}

// NewCommenceTime wraps a time that did not come from the feed
func NewCommenceTime(t time.Time) CommenceTime {
	return CommenceTime{Time: t}
}

// UnmarshalJSON parses an RFC 3339 timestamp
func (c *CommenceTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = CommenceTime{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}

	c.Time = t
	c.raw = s
	return nil
}

// MarshalJSON writes the original feed text when available
func (c CommenceTime) MarshalJSON() ([]byte, error) {
	if c.raw != "" {
		return json.Marshal(c.raw)
	}
	if c.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(c.Time.Format(time.RFC3339Nano))
}
