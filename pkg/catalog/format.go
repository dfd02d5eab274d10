package catalog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// clockLayout renders 12-hour time with zero-padded minutes, e.g. 9:30am, 12:00am
const clockLayout = "3:04pm"

// FormatClock formats a start time as a 12-hour clock string
func FormatClock(t time.Time) string {
	return t.Format(clockLayout)
}

// FormatOutlierScore rounds the score to two decimal places for display
func FormatOutlierScore(score float64) string {
	return decimal.NewFromFloat(score).Round(2).String()
}

// Title renders "{start}: {away} @ {home}" with the start time in loc
func Title(o *models.Offer, loc *time.Location) string {
	return fmt.Sprintf("%s: %s @ %s", FormatClock(o.CommenceTime.In(loc)), o.EventAwayTeam, o.EventHomeTeam)
}

// OutcomeLine renders "{desc} - {name} {point}"
func OutcomeLine(o *models.Offer) string {
	return fmt.Sprintf("%s - %s %s", o.OutcomeDesc, o.OutcomeName, strconv.FormatFloat(o.OutcomePoint, 'f', -1, 64))
}
