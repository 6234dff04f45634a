// Package risk implements the entity risk-monitoring core: the event model,
// the per-attribute freshness cache, the keyword gate, candidate
// deduplication, and the fetch→gate→validate orchestration engine.
//
// External collaborators (signal sources, the threat validator, alert sinks)
// enter through the ports declared in ports.go; everything in this package
// is deterministic given those ports.
package risk

import (
	"time"

	"github.com/turtacn/riskwatch/pkg/errors"
)

// EntityEvent represents one observed state of a monitored entity, e.g.
// "supplier Acme Corp operates in Ruritania".
//
// EventTime is the logical timestamp assigned by the stream source, not a
// wall-clock read. Every freshness decision in the pipeline uses this value
// so that replays and backfills behave deterministically.
type EntityEvent struct {
	// EntityKey is the stable unique identifier of the monitored subject
	// (supplier firm, company).
	EntityKey string `json:"entity_key"`

	// LookupAttribute is the dimension used to fetch external signals
	// (country, company+category). Multiple entities may share one
	// attribute and therefore one cache entry.
	LookupAttribute string `json:"lookup_attribute"`

	// EventTime is the logical timestamp assigned by the stream source.
	EventTime time.Time `json:"event_time"`
}

// Validate reports whether the event carries everything the pipeline needs.
func (e EntityEvent) Validate() error {
	if e.EntityKey == "" {
		return errors.New(errors.ErrCodeEventInvalid, "entity key must not be empty")
	}
	if e.LookupAttribute == "" {
		return errors.New(errors.ErrCodeEventInvalid, "lookup attribute must not be empty")
	}
	if e.EventTime.IsZero() {
		return errors.New(errors.ErrCodeEventInvalid, "event time must be set")
	}
	return nil
}

// Candidate is a raw unvalidated signal returned by a fetcher.
type Candidate struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`

	// SourceTag identifies provenance ("gnews", "synthetic", "rss").
	SourceTag string `json:"source_tag"`

	// MatchedKeyword is the risk term that passed the keyword gate; empty
	// before gating.
	MatchedKeyword string `json:"matched_keyword,omitempty"`
}

// ValidatedAlert is a Candidate confirmed genuine by the external oracle.
// It is immutable after creation.
type ValidatedAlert struct {
	EntityKey       string    `json:"entity_key"`
	LookupAttribute string    `json:"lookup_attribute"`
	ThreatType      string    `json:"threat_type"`
	Headline        string    `json:"headline"`
	Description     string    `json:"description"`
	Source          string    `json:"source"`

	// ValidatedAt is a wall-clock audit timestamp. It plays no part in
	// freshness decisions.
	ValidatedAt time.Time `json:"validated_at"`
}

// CacheEntry is the per-attribute record of the last completed fetch cycle.
// An entry with an empty Alerts slice means "checked, clean", a state
// distinct from "never checked" (no entry at all).
type CacheEntry struct {
	// CheckedAt is the event time of the cycle that produced this entry.
	// Monotonically non-decreasing per key.
	CheckedAt time.Time `json:"checked_at"`

	// Alerts holds the validated alerts of the last cycle, in validation
	// order.
	Alerts []ValidatedAlert `json:"alerts"`
}

//Personal.AI order the ending
