// Package entity defines the core domain entities of the episode pipeline:
// news items gathered from providers, subscribers and the episodes produced for them.
package entity

import "time"

// NewsItem is a single article returned by a news provider.
// The URL identifies the item for deduplication within one aggregation run.
type NewsItem struct {
	Title       string
	Description string
	URL         string
	SourceName  string
	PublishedAt time.Time
	Content     string
}

// Validate checks that the item carries a title and a usable URL.
func (n NewsItem) Validate() error {
	if n.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return ValidateURL(n.URL)
}

// Body returns the richest text available for the item.
// Content wins over Description, and Title is the last resort.
func (n NewsItem) Body() string {
	switch {
	case n.Content != "":
		return n.Content
	case n.Description != "":
		return n.Description
	default:
		return n.Title
	}
}

// Topic is a subscriber-chosen query label. It is passed to providers verbatim.
type Topic string
