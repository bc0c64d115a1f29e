// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion sends text requests to named generation backends with
// bounded retries, exponential backoff, and a run-scoped call budget. It is
// the only package in the pipeline that performs network I/O; every failure
// mode resolves to a returned error the caller can branch on.
package completion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

var (
	// ErrBudgetExhausted is returned once the run's call budget is spent.
	// Callers treat it as zero validation signal, not a fatal error.
	ErrBudgetExhausted = errors.New("completion call budget exhausted")

	// ErrUnknownBackend is returned for a backend ID the client was not
	// configured with.
	ErrUnknownBackend = errors.New("unknown completion backend")

	// ErrEmptyPrompt is returned for an empty or missing prompt.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// Backend generates a completion for one prompt. Implementations handle a
// single provider protocol; retries and timeouts belong to the Client.
type Backend interface {
	ID() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Budget caps the total number of completion calls issued during one run.
// Safe for concurrent use; the counter covers logical calls, not retries.
type Budget struct {
	limit int64
	used  atomic.Int64
}

// NewBudget returns a budget allowing limit calls. A non-positive limit
// means unlimited.
func NewBudget(limit int) *Budget {
	return &Budget{limit: int64(limit)}
}

// Take consumes one call from the budget and reports whether the call may
// proceed.
func (b *Budget) Take() bool {
	if b == nil || b.limit <= 0 {
		if b != nil {
			b.used.Add(1)
		}
		return true
	}
	return b.used.Add(1) <= b.limit
}

// Used returns the number of calls issued so far.
func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	n := b.used.Load()
	if b.limit > 0 && n > b.limit {
		n = b.limit
	}
	return int(n)
}

// Exhausted reports whether the budget has been spent.
func (b *Budget) Exhausted() bool {
	if b == nil || b.limit <= 0 {
		return false
	}
	return b.used.Load() >= b.limit
}

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 2 * time.Second
	defaultTimeout    = 70 * time.Second
)

// Client routes prompts to named backends under a shared retry, timeout,
// and budget policy.
type Client struct {
	backends map[string]Backend
	cfg      types.CompletionConfig
	budget   *Budget
	log      *logrus.Entry
}

// NewClient builds a client over the given backends. Zero config fields
// fall back to defaults (5 retries, 2s base delay, 70s timeout).
func NewClient(cfg types.CompletionConfig, backends []Backend, log *logrus.Entry) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		m[b.ID()] = b
	}
	return &Client{
		backends: m,
		cfg:      cfg,
		budget:   NewBudget(cfg.CallBudget),
		log:      log.WithField("component", "completion"),
	}
}

// Budget exposes the run-scoped call budget.
func (c *Client) Budget() *Budget {
	return c.budget
}

// Backends returns the configured backend IDs.
func (c *Client) Backends() []string {
	ids := make([]string, 0, len(c.backends))
	for id := range c.backends {
		ids = append(ids, id)
	}
	return ids
}

// Complete sends the prompt to the named backend. Each failed attempt waits
// BaseDelay * 2^attempt before the next; after MaxRetries additional
// attempts the last error is returned. Every attempt is bounded by the
// per-call timeout. Complete never panics for expected failure modes.
func (c *Client) Complete(ctx context.Context, backendID, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	b, ok := c.backends[backendID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, backendID)
	}
	if !c.budget.Take() {
		return "", ErrBudgetExhausted
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 10 * time.Minute
	bo.MaxElapsedTime = 0

	var result string
	attempt := 0
	operation := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		text, err := b.Generate(callCtx, prompt)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"backend": backendID,
				"attempt": attempt,
			}).WithError(err).Warn("completion attempt failed")
			return err
		}
		result = text
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("backend %s: after %d attempts: %w", backendID, attempt, err)
	}
	return result, nil
}

// NewBackends constructs backends from configuration. Missing API keys fall
// back to the secrets map (openai-api-key, gemini-api-key).
func NewBackends(cfgs []types.BackendConfig, secrets map[string]string) ([]Backend, error) {
	backends := make([]Backend, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.ID == "" {
			return nil, fmt.Errorf("backend config missing id")
		}
		model := cfg.Model
		if model == "" {
			model = cfg.ID
		}
		switch cfg.Provider {
		case types.ProviderOpenAI, "":
			key := cfg.APIKey
			if key == "" {
				key = secrets["openai-api-key"]
			}
			if cfg.BaseURL == "" {
				return nil, fmt.Errorf("backend %s: base_url required for openai provider", cfg.ID)
			}
			backends = append(backends, &OpenAIBackend{
				BackendID: cfg.ID,
				Model:     model,
				BaseURL:   cfg.BaseURL,
				APIKey:    key,
			})
		case types.ProviderGemini:
			key := cfg.APIKey
			if key == "" {
				key = secrets["gemini-api-key"]
			}
			backends = append(backends, &GeminiBackend{
				BackendID: cfg.ID,
				Model:     model,
				APIKey:    key,
			})
		default:
			return nil, fmt.Errorf("backend %s: unsupported provider %q", cfg.ID, cfg.Provider)
		}
	}
	return backends, nil
}
