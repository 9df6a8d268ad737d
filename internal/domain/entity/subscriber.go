package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// DeliveryTime is a subscriber's preferred delivery minute of the day.
type DeliveryTime struct {
	Hour   int
	Minute int
}

// ParseDeliveryTime parses a "HH:MM" string in 24-hour format.
func ParseDeliveryTime(s string) (DeliveryTime, error) {
	invalid := &ValidationError{Field: "delivery_time", Message: fmt.Sprintf("invalid format %q, must be HH:MM", s)}
	if len(s) != 5 || s[2] != ':' {
		return DeliveryTime{}, invalid
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return DeliveryTime{}, invalid
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return DeliveryTime{}, invalid
	}
	dt := DeliveryTime{Hour: h, Minute: m}
	if err := dt.Validate(); err != nil {
		return DeliveryTime{}, err
	}
	return dt, nil
}

// Validate checks the hour and minute ranges.
func (d DeliveryTime) Validate() error {
	if d.Hour < 0 || d.Hour > 23 {
		return &ValidationError{Field: "delivery_time", Message: fmt.Sprintf("hour %d must be between 0 and 23", d.Hour)}
	}
	if d.Minute < 0 || d.Minute > 59 {
		return &ValidationError{Field: "delivery_time", Message: fmt.Sprintf("minute %d must be between 0 and 59", d.Minute)}
	}
	return nil
}

// String returns the zero-padded "HH:MM" form.
func (d DeliveryTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// Subscriber is the read-only context a pipeline run works from.
// It is loaded fresh for every batch and owned by the preferences store.
type Subscriber struct {
	ID             string
	Email          string
	DeliveryTime   DeliveryTime
	Topics         []Topic
	EpisodeMinutes int
	Voice          string
}

// HasTopics reports whether at least one non-blank topic is configured.
func (s *Subscriber) HasTopics() bool {
	for _, t := range s.Topics {
		if strings.TrimSpace(string(t)) != "" {
			return true
		}
	}
	return false
}

// Validate checks the fields the pipeline depends on.
func (s *Subscriber) Validate() error {
	if s.ID == "" {
		return &ValidationError{Field: "id", Message: "subscriber id is required"}
	}
	if err := ValidateEmail(s.Email); err != nil {
		return err
	}
	if s.EpisodeMinutes < 0 {
		return &ValidationError{Field: "episode_minutes", Message: "episode_minutes cannot be negative"}
	}
	return s.DeliveryTime.Validate()
}
