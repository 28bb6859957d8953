// Package summary adds LLM-written summaries to code index trees.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"pageindex/internal/logging"
)

// ErrNoGenerator is returned when an LLM call is needed but no generator is
// configured.
var ErrNoGenerator = errors.New("no summary generator configured")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// GenAIGenerator generates text with Google's Gemini models.
type GenAIGenerator struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	maxRetries int
}

// NewGenAIGenerator creates a Gemini-backed generator.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required (set GEMINI_API_KEY)")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{
		client:     client,
		model:      model,
		timeout:    60 * time.Second,
		maxRetries: 3,
	}, nil
}

// Model returns the model name.
func (g *GenAIGenerator) Model() string {
	return g.model
}

// Generate sends prompt to the model and returns the trimmed text response.
// Failed calls are retried with exponential backoff.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var lastErr error
	for i := 0; i <= g.maxRetries; i++ {
		if i > 0 {
			delay := time.Duration(1<<uint(i-1)) * time.Second
			logging.SummaryDebug("retrying %s in %v: %v", g.model, delay, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			lastErr = fmt.Errorf("GenAI generate failed: %w", err)
			continue
		}
		return strings.TrimSpace(resp.Text()), nil
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
