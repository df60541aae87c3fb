// Package llm wraps the Gemini text generation API.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	defaultTemperature = float32(0.3)
	defaultTimeout     = 20 * time.Second
)

var errAPIKeyRequired = errors.New("gemini api key is required")

// Config selects the model and bounds each call.
type Config struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	SystemInstruction string
}

// contentGenerator is the slice of genai.Models the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates free-form text with a single GenerateContent call. It does
// not retry; callers own the retry policy.
type Gemini struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	system  string
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentGenerator, cfg Config) *Gemini {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gemini{models: models, model: model, timeout: timeout, system: cfg.SystemInstruction}
}

// Generate returns the model's text for prompt. genai.APIError values are
// returned unwrapped so callers can classify by status code.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(defaultTemperature),
	}
	if g.system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: g.system}}}
	}

	result, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return strings.TrimSpace(result.Text()), nil
}
