package llm

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GoogleAI uses a Gemini API key through langchaingo.
type GoogleAI struct {
	model llms.Model
	name  string
}

func NewGoogleAI(ctx context.Context, apiKey, modelName string) (*GoogleAI, error) {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, err
	}
	return &GoogleAI{model: m, name: modelName}, nil
}

func (g *GoogleAI) Name() string { return "googleai:" + g.name }

func (g *GoogleAI) Close() error { return nil }

func (g *GoogleAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", classifyMessage(err)
	}
	if strings.TrimSpace(resp) == "" {
		return "", ErrEmpty
	}
	return resp, nil
}

// classifyMessage is a best effort for clients that only expose error text.
func classifyMessage(err error) error {
	msg := strings.ToLower(err.Error())
	kind := ErrUpstream
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "permission") ||
		strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		kind = ErrAuth
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource exhausted"):
		kind = ErrRateLimited
	}
	return &StatusError{Kind: kind, Body: truncate(err.Error(), 300)}
}
