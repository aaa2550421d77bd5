package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
	name   string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.SetTemperature(0)
	m.ResponseMIMEType = "application/json"
	return &VertexGemini{client: c, model: m, name: modelName}, nil
}

func (v *VertexGemini) Name() string { return "vertex:" + v.name }

func (v *VertexGemini) Close() error { return v.client.Close() }

// StreamAnswer returns a stream of text chunks (incremental).
func (v *VertexGemini) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				errs <- classifyGRPC(err)
				return
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						out <- string(t)
					}
				}
			}
		}
	}()

	return out, errs
}

// Complete drains the stream into one string.
func (v *VertexGemini) Complete(ctx context.Context, prompt string) (string, error) {
	chunks, errs := v.StreamAnswer(ctx, prompt)

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}
	if err := <-errs; err != nil {
		return "", err
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", ErrEmpty
	}
	return full.String(), nil
}

func classifyGRPC(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &StatusError{Kind: ErrNetwork, Body: err.Error()}
	}
	kind := ErrUpstream
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = ErrAuth
	case codes.ResourceExhausted:
		kind = ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded:
		kind = ErrNetwork
	}
	return &StatusError{Kind: kind, Body: st.Message()}
}
