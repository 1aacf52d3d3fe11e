package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	generativelanguage "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultGeminiEndpoint is the public Generative Language API root.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/"

// GeminiConfig configures the Gemini transport.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
}

// GeminiTransport issues one generateContent call per Complete.
type GeminiTransport struct {
	svc   *generativelanguage.Service
	model string
}

// NewGeminiTransport builds the transport. An empty API key disables
// authentication, which is only useful against local fakes.
func NewGeminiTransport(ctx context.Context, cfg GeminiConfig) (*GeminiTransport, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini: model is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new service: %w", err)
	}
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &GeminiTransport{svc: svc, model: model}, nil
}

// Complete sends prompt as a single user turn and returns
// candidates[0].content.parts[0].text.
func (g *GeminiTransport) Complete(ctx context.Context, prompt string) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
	}
	resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", fmt.Errorf("gemini: status %d: %w", gerr.Code, err)
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", ErrEmptyResponse
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", ErrEmptyResponse
	}
	return content.Parts[0].Text, nil
}
