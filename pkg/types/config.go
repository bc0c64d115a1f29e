// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data and configuration structs shared across
// pipeline stages.
package types

import "time"

// BackendProvider selects the completion API protocol for a backend.
type BackendProvider string

const (
	// ProviderOpenAI speaks the OpenAI-compatible chat-completions protocol.
	ProviderOpenAI BackendProvider = "openai"

	// ProviderGemini uses the Google Gemini API.
	ProviderGemini BackendProvider = "gemini"
)

// BackendConfig describes one completion backend. Backends act as
// independent judges during refinement and are addressed by ID.
type BackendConfig struct {
	// ID is the name the pipeline uses to address this backend
	// (e.g. "deepseek-v3", "gemini-2.5-flash").
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Provider selects the wire protocol: openai or gemini.
	Provider BackendProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the provider-side model identifier. Defaults to ID.
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`

	// BaseURL is the chat-completions endpoint for openai-protocol backends.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey overrides the key loaded from the secrets directory.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// CompletionConfig holds the retry, timeout, and budget policy applied to
// every completion call regardless of backend.
type CompletionConfig struct {
	// MaxRetries is the number of retry attempts after a failed call (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// BaseDelay is the backoff base: attempt n waits BaseDelay * 2^n (default 2s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// Timeout bounds a single call attempt (default 70s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// CallBudget caps the total completion calls issued during a run.
	// Zero means unlimited.
	CallBudget int `json:"call_budget" yaml:"call_budget" mapstructure:"call_budget"`
}

// ExtractionConfig holds settings for the initial candidate extraction step.
type ExtractionConfig struct {
	// Backend is the ID of the backend used for initial extraction.
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`
}

// RefineConfig holds settings for the consensus refinement stage.
type RefineConfig struct {
	// Subject parametrizes the prompt text (e.g. "生物", "chemistry").
	// The refinement algorithm treats it as opaque.
	Subject string `json:"subject" yaml:"subject" mapstructure:"subject"`

	// Backends lists the backend IDs used as judges.
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`

	// Iterations is the number of feedback→filter rounds per backend (default 3).
	Iterations int `json:"iterations" yaml:"iterations" mapstructure:"iterations"`

	// Threshold is the support/capacity ratio above which a concept is
	// retained (default 0.6).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// PerBackendPerfect additionally retains a concept that survived every
	// iteration of at least one backend, even below the ratio threshold.
	PerBackendPerfect bool `json:"per_backend_perfect" yaml:"per_backend_perfect" mapstructure:"per_backend_perfect"`
}

// IndexConfig holds settings for the concept index.
type IndexConfig struct {
	// IndexDir is the directory holding concepts.db and export files.
	IndexDir string `json:"index_dir" yaml:"index_dir" mapstructure:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// EnrichConfig holds settings for the concept enrichment stage.
type EnrichConfig struct {
	// Language is the Wikipedia language edition to query (default "en").
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// UserAgent is sent with encyclopedia requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Timeout bounds a single lookup request (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the retry count for failed lookups (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Translate enables translating concepts to the lookup language first.
	Translate bool `json:"translate" yaml:"translate" mapstructure:"translate"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Completion CompletionConfig `json:"completion" yaml:"completion" mapstructure:"completion"`
	Backends   []BackendConfig  `json:"backends" yaml:"backends" mapstructure:"backends"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Refine     RefineConfig     `json:"refine" yaml:"refine" mapstructure:"refine"`
	Index      IndexConfig      `json:"index" yaml:"index" mapstructure:"index"`
	Enrich     EnrichConfig     `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
}
