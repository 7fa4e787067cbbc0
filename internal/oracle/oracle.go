// Package oracle abstracts the external model calls the pipeline depends on:
// summarization, sentiment classification, and reply generation. Each is a
// narrow capability interface so the orchestration code can be tested with
// deterministic stubs. Calls are blocking and carry no client-side timeout;
// callers bound them through the context.
package oracle

import (
	"context"
	"fmt"
)

// ToneResult is the raw output of the sentiment classifier: an uppercase
// label (POSITIVE, NEGATIVE, NEUTRAL) and a confidence in [0,1].
type ToneResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Summarizer condenses text to between minLen and maxLen tokens.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}

// ToneClassifier labels text as positive/negative/neutral with a confidence.
type ToneClassifier interface {
	Classify(ctx context.Context, text string) (ToneResult, error)
}

// ReplyGenerator produces free text from a prompt, bounded to maxLen tokens.
type ReplyGenerator interface {
	Generate(ctx context.Context, prompt string, maxLen, minLen int) (string, error)
}

// Set bundles the three oracles a processing run needs.
type Set struct {
	Summarizer Summarizer
	Classifier ToneClassifier
	Generator  ReplyGenerator
}

// Provider selects the oracle backend.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderOpenAI Provider = "openai"
)

// Config holds provider settings for the factory.
type Config struct {
	Provider Provider

	// local inference gateway
	BaseURL string
	Model   string

	// openai
	OpenAIAPIKey string
	OpenAIModel  string
}

// New builds the oracle set for the configured provider. An empty provider
// defaults to the local gateway.
func New(cfg Config) (Set, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		c := NewLocalClient(cfg.BaseURL, cfg.Model)
		return Set{Summarizer: c, Classifier: c, Generator: c}, nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Set{}, fmt.Errorf("openai provider requires an API key")
		}
		c := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		return Set{Summarizer: c, Classifier: c, Generator: c}, nil
	default:
		return Set{}, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
