// Package schedule decides whether a subscriber is due for an episode at a given instant.
package schedule

import (
	"time"

	"commutecast/internal/domain/entity"
)

// IsDue reports whether now falls in the preferred delivery minute.
// The comparison is exact on hour and minute; seconds are ignored.
func IsDue(now time.Time, preferred entity.DeliveryTime) bool {
	return now.Hour() == preferred.Hour && now.Minute() == preferred.Minute
}

// Gate evaluates delivery times in a fixed location.
// A nil Location means UTC.
type Gate struct {
	Location *time.Location
}

// NewGate loads the named IANA zone. An empty name selects UTC.
func NewGate(tz string) (Gate, error) {
	if tz == "" {
		return Gate{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Gate{}, err
	}
	return Gate{Location: loc}, nil
}

// IsDue converts now into the gate's location before comparing.
func (g Gate) IsDue(now time.Time, preferred entity.DeliveryTime) bool {
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	return IsDue(now.In(loc), preferred)
}
