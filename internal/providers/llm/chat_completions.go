package llm

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	DefaultChatURL   = "https://api.openai.com/v1/chat/completions"
	DefaultChatModel = "gpt-4o-mini"
)

// ChatCompletions talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI, OpenRouter, local gateways).
type ChatCompletions struct {
	client *resty.Client
	url    string
	apiKey string
	model  string
	system string
}

type ChatOption func(*ChatCompletions)

func WithSystemPrompt(s string) ChatOption {
	return func(c *ChatCompletions) { c.system = s }
}

func WithTimeout(d time.Duration) ChatOption {
	return func(c *ChatCompletions) { c.client.SetTimeout(d) }
}

func NewChatCompletions(url, apiKey, model string, opts ...ChatOption) *ChatCompletions {
	if url == "" {
		url = DefaultChatURL
	}
	if model == "" {
		model = DefaultChatModel
	}
	c := &ChatCompletions{
		client: resty.New().SetTimeout(60 * time.Second),
		url:    url,
		apiKey: apiKey,
		model:  model,
		system: "You extract structured data from job postings and answer with JSON only.",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *ChatCompletions) Name() string { return "chat:" + c.model }

func (c *ChatCompletions) Close() error { return nil }

func (c *ChatCompletions) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model":       c.model,
			"temperature": 0,
			"messages": []map[string]string{
				{"role": "system", "content": c.system},
				{"role": "user", "content": prompt},
			},
		}).
		Post(c.url)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &StatusError{Kind: ErrNetwork, Body: err.Error()}
	}
	if resp.IsError() {
		return "", &StatusError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(strings.TrimSpace(resp.String()), 300),
			Kind:       KindForStatus(resp.StatusCode()),
		}
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}
