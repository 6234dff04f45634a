// Package rss pulls candidates from configured RSS/Atom feeds. Unlike the
// gnews source the feeds are not query-scoped, so items are pre-filtered for
// the lookup attribute here; the engine's keyword gate then does the risk
// filtering.
package rss

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/pkg/errors"
)

const sourceTag = "rss"

// Fetcher polls a fixed list of feed URLs on every Fetch call.
type Fetcher struct {
	feeds   []string
	timeout time.Duration
	parser  *gofeed.Parser
	logger  logging.Logger

	mu       sync.Mutex
	attrExpr map[string]*regexp.Regexp
}

// New builds the fetcher. A feed that fails to parse is skipped for that
// cycle; the fetcher only errors when every feed fails.
func New(feeds []string, timeout time.Duration, logger logging.Logger) (*Fetcher, error) {
	if len(feeds) == 0 {
		return nil, errors.InvalidParam("rss fetcher requires at least one feed url")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Fetcher{
		feeds:    append([]string(nil), feeds...),
		timeout:  timeout,
		parser:   gofeed.NewParser(),
		logger:   logger.Named("rss"),
		attrExpr: make(map[string]*regexp.Regexp),
	}, nil
}

// Name implements risk.Fetcher.
func (f *Fetcher) Name() string { return sourceTag }

// Fetch implements risk.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, attribute string) ([]risk.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	matcher := f.matcherFor(attribute)

	var out []risk.Candidate
	failures := 0
	for _, feedURL := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failures++
			f.logger.Warn("feed parse failed",
				logging.String("feed", feedURL),
				logging.Err(err))
			continue
		}
		for _, item := range feed.Items {
			if item.Title == "" {
				continue
			}
			if !matcher.MatchString(item.Title) && !matcher.MatchString(item.Description) {
				continue
			}
			out = append(out, risk.Candidate{
				Headline:    item.Title,
				Description: item.Description,
				SourceTag:   sourceTag,
			})
		}
	}
	if failures == len(f.feeds) {
		return nil, errors.New(errors.ErrCodeFeedParseFailed, "all rss feeds failed")
	}
	return out, nil
}

// matcherFor compiles and memoizes the word-boundary pattern for an
// attribute. The set of attributes is small and stable, so the map never
// needs eviction.
func (f *Fetcher) matcherFor(attribute string) *regexp.Regexp {
	f.mu.Lock()
	defer f.mu.Unlock()
	if re, ok := f.attrExpr[attribute]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(attribute) + `\b`)
	f.attrExpr[attribute] = re
	return re
}

// interface guard
var _ risk.Fetcher = (*Fetcher)(nil)

//Personal.AI order the ending
