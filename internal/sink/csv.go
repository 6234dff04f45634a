// Package sink delivers validated alerts to their destinations: an
// append-only CSV audit file, the risk.alert.validated Kafka topic, and an
// in-memory ring buffer backing the ops API. A MultiSink fans one emission
// out to all of them with per-sink error isolation.
package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/pkg/errors"
)

var csvHeader = []string{
	"entity_key", "lookup_attribute", "threat_type",
	"headline", "description", "source", "validated_at",
}

// CSVSink appends alerts to a CSV file. The file and its parent directory
// are created on first use; the header is written only when the file is new.
// Every record is flushed immediately so a crash never truncates a row.
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	closed bool
}

// NewCSVSink opens (or creates) the file at path for appending.
func NewCSVSink(path string) (*CSVSink, error) {
	if path == "" {
		return nil, errors.InvalidParam("csv sink path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to create output directory")
		}
	}

	info, statErr := os.Stat(path)
	needHeader := statErr != nil || info.Size() == 0

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to open csv sink file")
	}

	s := &CSVSink{file: file, writer: csv.NewWriter(file)}
	if needHeader {
		if err := s.writer.Write(csvHeader); err != nil {
			file.Close()
			return nil, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to write csv header")
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			file.Close()
			return nil, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to flush csv header")
		}
	}
	return s, nil
}

// Emit implements risk.AlertSink. The whole batch is written under one lock
// acquisition, so batches from concurrent cycles never interleave.
func (s *CSVSink) Emit(ctx context.Context, alerts []risk.ValidatedAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrCodeSinkClosed, "csv sink is closed")
	}
	for _, a := range alerts {
		row := []string{
			a.EntityKey,
			a.LookupAttribute,
			a.ThreatType,
			a.Headline,
			a.Description,
			a.Source,
			a.ValidatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := s.writer.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to write csv row")
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to flush csv rows")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.writer.Flush()
	return s.file.Close()
}

// interface guard
var _ risk.AlertSink = (*CSVSink)(nil)

//Personal.AI order the ending
