// Package corpus serves candidates from a local JSONL signal corpus. It is
// the deterministic offline source used in demos, replays and tests, where
// hitting live news APIs is unwanted.
//
// Corpus format, one JSON object per line:
//
//	{"attribute": "Ruritania", "headline": "...", "description": "..."}
//
// Matching on attribute is case-insensitive equality. With Watch enabled the
// file is reloaded whenever it changes on disk.
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/pkg/errors"
)

const sourceTag = "synthetic"

type record struct {
	Attribute   string `json:"attribute"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

// Fetcher serves the in-memory corpus index. Safe for concurrent use;
// reloads swap the index atomically under the lock.
type Fetcher struct {
	path   string
	logger logging.Logger

	mu      sync.RWMutex
	byAttr  map[string][]risk.Candidate
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New loads the corpus from path. With watch set, a background goroutine
// reloads on file changes until Close is called.
func New(path string, watch bool, logger logging.Logger) (*Fetcher, error) {
	if path == "" {
		return nil, errors.InvalidParam("corpus path required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	f := &Fetcher{
		path:   path,
		logger: logger.Named("corpus"),
		done:   make(chan struct{}),
	}
	if err := f.reload(); err != nil {
		return nil, err
	}
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCorpusLoadFailed, "failed to create corpus watcher")
		}
		if err := w.Add(path); err != nil {
			w.Close()
			return nil, errors.Wrap(err, errors.ErrCodeCorpusLoadFailed, "failed to watch corpus file")
		}
		f.watcher = w
		go f.watchLoop()
	}
	return f, nil
}

// Name implements risk.Fetcher.
func (f *Fetcher) Name() string { return sourceTag }

// Fetch implements risk.Fetcher. It never fails once the corpus is loaded;
// an unknown attribute simply yields no candidates.
func (f *Fetcher) Fetch(ctx context.Context, attribute string) ([]risk.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFetchTimeout, "corpus fetch cancelled")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	cs := f.byAttr[strings.ToLower(attribute)]
	out := make([]risk.Candidate, len(cs))
	copy(out, cs)
	return out, nil
}

// Len reports the number of corpus records, for startup logging.
func (f *Fetcher) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, cs := range f.byAttr {
		n += len(cs)
	}
	return n
}

// Close stops the reload watcher.
func (f *Fetcher) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

func (f *Fetcher) reload() error {
	file, err := os.Open(f.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCorpusLoadFailed, "failed to open corpus file")
	}
	defer file.Close()

	byAttr := make(map[string][]risk.Candidate)
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			f.logger.Warn("skipping malformed corpus line",
				logging.Int("line", line),
				logging.Err(err))
			continue
		}
		if rec.Attribute == "" || rec.Headline == "" {
			continue
		}
		key := strings.ToLower(rec.Attribute)
		byAttr[key] = append(byAttr[key], risk.Candidate{
			Headline:    rec.Headline,
			Description: rec.Description,
			SourceTag:   sourceTag,
		})
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCorpusLoadFailed, "failed to read corpus file")
	}

	f.mu.Lock()
	f.byAttr = byAttr
	f.mu.Unlock()
	return nil
}

func (f *Fetcher) watchLoop() {
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.reload(); err != nil {
				f.logger.Error("corpus reload failed", logging.Err(err))
				continue
			}
			f.logger.Info("corpus reloaded", logging.Int("records", f.Len()))
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("corpus watcher error", logging.Err(err))
		}
	}
}

// interface guard
var _ risk.Fetcher = (*Fetcher)(nil)

//Personal.AI order the ending
