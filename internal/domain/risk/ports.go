package risk

import (
	"context"
	"time"
)

// Fetcher is the pluggable signal-source port. Implementations query one
// external provider for candidate signals about a lookup attribute.
//
// A Fetcher must honour ctx cancellation and its own per-call timeout, and
// must never panic across this boundary. Returning an error marks the
// source as failed for the cycle; the engine isolates the failure from the
// other sources.
type Fetcher interface {
	// Name returns the stable source tag stamped onto candidates
	// ("gnews", "synthetic", "rss"). Used as a metrics label.
	Name() string

	// Fetch returns zero or more candidates for the attribute.
	Fetch(ctx context.Context, attribute string) ([]Candidate, error)
}

// Validator is the external threat-classification oracle. It is treated as
// an opaque, possibly slow, possibly failing boolean classifier.
//
// The engine applies fail-safe semantics: any non-nil error means the
// candidate is NOT validated and is never emitted. Implementations should
// therefore return errors freely rather than guessing.
type Validator interface {
	Validate(ctx context.Context, entityKey, attribute string, c Candidate) (bool, error)
}

// AlertSink receives one cycle's validated alerts as a single batch. The
// batch for a key is emitted only after every candidate of that cycle has
// been validated; sinks may rely on never seeing a partial cycle.
//
// Emit errors are surfaced through logs and metrics by the caller but must
// not abort processing of other keys.
type AlertSink interface {
	Emit(ctx context.Context, alerts []ValidatedAlert) error
}

// CycleSummary describes one finished fetch cycle.
type CycleSummary struct {
	LookupAttribute string
	Candidates      int
	Alerts          int
	CheckedAt       time.Time
}

// CycleReporter receives a notification after every completed cycle, fresh
// cache replays excluded. Implementations must not block the cycle; failures
// are theirs to log, never to return.
type CycleReporter interface {
	ReportCycle(ctx context.Context, s CycleSummary)
}

//Personal.AI order the ending
