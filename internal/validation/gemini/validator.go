// Package gemini implements the external threat validator on the Gemini
// generateContent API.
//
// ─────────────────────────────────────────────────────────────────────────────
// The model is used as a strict boolean classifier: temperature zero, a
// five-token output budget, and a YES/NO prompt. Only a reply whose first
// word is YES counts as confirmation; anything else, including transport
// errors, means the candidate is not validated. The engine treats validator
// errors as drops, so this package never needs to guess.
// ─────────────────────────────────────────────────────────────────────────────
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/turtacn/riskwatch/internal/config"
	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// request/response mirror the generateContent wire format.

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type candidateResp struct {
	Content content `json:"content"`
}

type response struct {
	Candidates []candidateResp `json:"candidates"`
}

// Validator calls Gemini with client-side rate limiting. Safe for
// concurrent use.
type Validator struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

// New builds a Validator from config.
func New(cfg config.ValidatorConfig) (*Validator, error) {
	if cfg.APIKey == "" {
		return nil, errors.InvalidParam("validator api key required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultValidatorEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultFetcherTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = config.DefaultValidatorRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Validator{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}, nil
}

// Validate implements risk.Validator. It blocks on the rate limiter before
// calling out, so a burst of candidates from one cycle is smeared over time
// instead of tripping the provider's quota.
func (v *Validator) Validate(ctx context.Context, entityKey, attribute string, c risk.Candidate) (bool, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeValidatorRateLimited, "rate limit wait cancelled")
	}

	body, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: v.prompt(attribute, c)}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.0,
			MaxOutputTokens: 5,
		},
	})
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal validator request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeValidatorCallFailed, "failed to build validator request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeValidatorCallFailed, "validator request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.New(errors.ErrCodeValidatorBadResponse,
			fmt.Sprintf("validator returned status %d", resp.StatusCode))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeValidatorBadResponse, "failed to decode validator response")
	}
	answer := extractAnswer(r)
	if answer == "" {
		return false, errors.New(errors.ErrCodeValidatorBadResponse, "validator returned no text")
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "YES"), nil
}

func (v *Validator) prompt(attribute string, c risk.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You assess supply chain risk. A monitored entity depends on: %s.\n", attribute)
	fmt.Fprintf(&b, "News headline: %s\n", c.Headline)
	if c.Description != "" {
		fmt.Fprintf(&b, "Details: %s\n", c.Description)
	}
	fmt.Fprintf(&b, "Does this report a genuine, current %s threat affecting %s? Answer YES or NO.", c.MatchedKeyword, attribute)
	return b.String()
}

func extractAnswer(r response) string {
	for _, cand := range r.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// interface guard
var _ risk.Validator = (*Validator)(nil)

//Personal.AI order the ending
