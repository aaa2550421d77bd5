package llm

import (
	"context"
	"fmt"
	"strings"
)

type Settings struct {
	Provider string // openai | gemini | vertex
	APIKey   string
	URL      string
	Model    string
	Project  string
	Location string
}

// New builds the configured provider. It returns (nil, nil) when no provider
// is configured so the server can run without AI parsing.
func New(ctx context.Context, s Settings) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "openai", "chat":
		if s.APIKey == "" {
			return nil, nil
		}
		return NewChatCompletions(s.URL, s.APIKey, s.Model), nil
	case "gemini", "googleai":
		if s.APIKey == "" {
			return nil, fmt.Errorf("AI_API_KEY is required for provider %q", s.Provider)
		}
		return NewGoogleAI(ctx, s.APIKey, s.Model)
	case "vertex":
		if s.Project == "" {
			return nil, fmt.Errorf("VERTEX_PROJECT is required for provider vertex")
		}
		location := s.Location
		if location == "" {
			location = "us-central1"
		}
		return NewVertexGemini(ctx, s.Project, location, s.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", s.Provider)
	}
}
