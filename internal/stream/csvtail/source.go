// Package csvtail streams entity events from an append-only CSV file, the
// shape produced by the bundled simulator: one row per entity observation,
// a new row appended every poll interval.
//
// Expected header: entity_key,lookup_attribute[,event_time]. When the
// event_time column is absent or unparsable the read time is used, bumped
// forward if needed so event times stay strictly monotone per file.
package csvtail

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/internal/stream"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// Source tails one CSV file. Run may only be called once.
type Source struct {
	path   string
	logger logging.Logger

	file   *os.File
	offset int64

	keyIdx  int
	attrIdx int
	timeIdx int

	lastEventTime time.Time
}

// New opens the file and parses its header. The file must exist; the
// simulator creates it with a header row before the monitor starts.
func New(path string, logger logging.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.InvalidParam("csvtail path required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEventInvalid, "failed to open event csv")
	}
	s := &Source{
		path:    path,
		logger:  logger.Named("csvtail"),
		file:    file,
		keyIdx:  -1,
		attrIdx: -1,
		timeIdx: -1,
	}
	if err := s.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return s, nil
}

func (s *Source) readHeader() error {
	reader := csv.NewReader(s.file)
	header, err := reader.Read()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeEventInvalid, "failed to read csv header")
	}
	for i, col := range header {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case "entity_key", "supplier", "company":
			s.keyIdx = i
		case "lookup_attribute", "country":
			s.attrIdx = i
		case "event_time", "timestamp":
			s.timeIdx = i
		}
	}
	if s.keyIdx < 0 || s.attrIdx < 0 {
		return errors.New(errors.ErrCodeEventInvalid,
			"event csv must have entity_key and lookup_attribute columns")
	}
	// the csv reader buffers past the header; re-derive the byte offset
	return s.resetAfterHeader()
}

// resetAfterHeader positions offset just past the header line.
func (s *Source) resetAfterHeader() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, errors.ErrCodeEventInvalid, "failed to rewind csv")
	}
	buf := make([]byte, 1)
	var off int64
	for {
		n, err := s.file.Read(buf)
		if n > 0 {
			off++
			if buf[0] == '\n' {
				break
			}
		}
		if err != nil {
			break
		}
	}
	s.offset = off
	return nil
}

// Run delivers existing rows, then follows appends until ctx is cancelled.
func (s *Source) Run(ctx context.Context, handler stream.EventHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create csv watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(s.path); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to watch event csv")
	}

	// catch up on rows already present
	if err := s.drain(ctx, handler); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Write == 0 {
				continue
			}
			if err := s.drain(ctx, handler); err != nil {
				return err
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("csv watcher error", logging.Err(werr))
		}
	}
}

// drain reads every complete row appended since the last offset.
func (s *Source) drain(ctx context.Context, handler stream.EventHandler) error {
	if _, err := s.file.Seek(s.offset, io.SeekStart); err != nil {
		return errors.Wrap(err, errors.ErrCodeEventInvalid, "failed to seek event csv")
	}
	data, err := io.ReadAll(s.file)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeEventInvalid, "failed to read event csv")
	}
	if len(data) == 0 {
		return nil
	}

	// only consume up to the last complete line; a partially written row
	// stays for the next drain
	complete := strings.LastIndexByte(string(data), '\n')
	if complete < 0 {
		return nil
	}
	chunk := string(data[:complete+1])
	s.offset += int64(complete + 1)

	reader := csv.NewReader(strings.NewReader(chunk))
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			s.logger.Warn("skipping malformed csv row", logging.Err(err))
			continue
		}
		ev, ok := s.toEvent(row)
		if !ok {
			continue
		}
		if err := handler(ctx, ev); err != nil {
			s.logger.Warn("event handler failed",
				logging.String("entity_key", ev.EntityKey),
				logging.Err(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Source) toEvent(row []string) (risk.EntityEvent, bool) {
	max := s.keyIdx
	if s.attrIdx > max {
		max = s.attrIdx
	}
	if len(row) <= max {
		return risk.EntityEvent{}, false
	}
	ev := risk.EntityEvent{
		EntityKey:       strings.TrimSpace(row[s.keyIdx]),
		LookupAttribute: strings.TrimSpace(row[s.attrIdx]),
	}
	if ev.EntityKey == "" || ev.LookupAttribute == "" {
		return risk.EntityEvent{}, false
	}

	if s.timeIdx >= 0 && len(row) > s.timeIdx {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[s.timeIdx])); err == nil {
			ev.EventTime = ts
		}
	}
	if ev.EventTime.IsZero() {
		ev.EventTime = time.Now().UTC()
	}
	// keep the stream strictly monotone
	if !ev.EventTime.After(s.lastEventTime) {
		ev.EventTime = s.lastEventTime.Add(time.Millisecond)
	}
	s.lastEventTime = ev.EventTime
	return ev, true
}

// Close releases the tailed file.
func (s *Source) Close() error {
	return s.file.Close()
}

// interface guard
var _ stream.Source = (*Source)(nil)

//Personal.AI order the ending
