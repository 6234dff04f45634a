// Package gnews fetches live news candidates from the GNews search API.
//
// ─────────────────────────────────────────────────────────────────────────────
// One Fetch issues a single search for the lookup attribute combined with
// the risk vocabulary, e.g.
//
//	Ruritania (strike OR sanction OR war)
//
// and maps the top articles to candidates.
// ─────────────────────────────────────────────────────────────────────────────
package gnews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/riskwatch/internal/config"
	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/pkg/errors"
)

const sourceTag = "gnews"

// Fetcher queries the GNews API. Safe for concurrent use.
type Fetcher struct {
	baseURL    string
	apiKey     string
	maxResults int
	keywords   []string
	client     *http.Client
}

// article mirrors the subset of the GNews response we consume.
type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type searchResponse struct {
	TotalArticles int       `json:"totalArticles"`
	Articles      []article `json:"articles"`
}

// New builds a Fetcher from config. The keyword vocabulary is baked into the
// search query so the API pre-filters for us; the engine's gate still runs
// afterwards as the authoritative filter.
func New(cfg config.GNewsConfig, keywords []string) (*Fetcher, error) {
	if cfg.APIKey == "" {
		return nil, errors.InvalidParam("gnews api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultGNewsBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = config.DefaultGNewsMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultFetcherTimeout
	}
	if len(keywords) == 0 {
		return nil, errors.InvalidParam("gnews fetcher requires keywords")
	}
	return &Fetcher{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		keywords:   append([]string(nil), keywords...),
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name implements risk.Fetcher.
func (f *Fetcher) Name() string { return sourceTag }

// Fetch implements risk.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, attribute string) ([]risk.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.searchURL(attribute), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFetchFailed, "failed to build gnews request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFetchTimeout, "gnews request cancelled")
		}
		return nil, errors.Wrap(err, errors.ErrCodeFetchFailed, "gnews request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeFetchBadResponse,
			fmt.Sprintf("gnews returned status %d", resp.StatusCode))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFetchBadResponse, "failed to decode gnews response")
	}

	candidates := make([]risk.Candidate, 0, len(sr.Articles))
	for _, a := range sr.Articles {
		if a.Title == "" {
			continue
		}
		candidates = append(candidates, risk.Candidate{
			Headline:    a.Title,
			Description: a.Description,
			SourceTag:   sourceTag,
		})
	}
	return candidates, nil
}

// searchURL builds the query "<attribute> (kw1 OR kw2 OR ...)".
func (f *Fetcher) searchURL(attribute string) string {
	q := attribute + " (" + strings.Join(f.keywords, " OR ") + ")"
	v := url.Values{}
	v.Set("q", q)
	v.Set("lang", "en")
	v.Set("max", fmt.Sprintf("%d", f.maxResults))
	v.Set("apikey", f.apiKey)
	return f.baseURL + "?" + v.Encode()
}

// interface guard
var _ risk.Fetcher = (*Fetcher)(nil)

//Personal.AI order the ending
