package domain

import (
	"fmt"
	"strings"
)

// AuctionDuration is a closed set of listing lengths. Free-form durations are
// rejected at the API boundary so the core only ever sees these values.
type AuctionDuration string

const (
	DurationMinute   AuctionDuration = "MINUTE"
	DurationDay      AuctionDuration = "DAY"
	DurationWeek     AuctionDuration = "WEEK"
	DurationTwoWeeks AuctionDuration = "TWO_WEEKS"
	DurationMonth    AuctionDuration = "MONTH"
)

var durationMillis = map[AuctionDuration]int64{
	DurationMinute:   60 * 1000,
	DurationDay:      24 * 60 * 60 * 1000,
	DurationWeek:     7 * 24 * 60 * 60 * 1000,
	DurationTwoWeeks: 14 * 24 * 60 * 60 * 1000,
	DurationMonth:    30 * 24 * 60 * 60 * 1000,
}

func (d AuctionDuration) Millis() int64 {
	return durationMillis[d]
}

func (d AuctionDuration) Valid() bool {
	_, ok := durationMillis[d]
	return ok
}

func ParseAuctionDuration(s string) (AuctionDuration, error) {
	d := AuctionDuration(strings.ToUpper(s))
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown auction duration %q", ErrBadInput, s)
	}
	return d, nil
}
