package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// AnthropicProvider queries Anthropic's messages API as the "Claude" model.
type AnthropicProvider struct {
	apiKey    string
	model     string
	maxTokens int
	client    *resty.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic-backed provider client
func NewAnthropicProvider(apiKey string, maxTokens int) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:    apiKey,
		model:     "claude-3-sonnet-20240229",
		maxTokens: maxTokens,
		client:    resty.New().SetTimeout(30 * time.Second),
	}
}

func (p *AnthropicProvider) Name() string {
	return NameClaude
}

func (p *AnthropicProvider) IsEnabled() bool {
	return p.apiKey != ""
}

func (p *AnthropicProvider) Query(ctx context.Context, prompt string) (string, error) {
	body := anthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", p.apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(body).
		Post("https://api.anthropic.com/v1/messages")

	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("Anthropic API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("Anthropic API returned status %d", resp.StatusCode())
	}

	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("Anthropic returned no content blocks")
	}

	return parsed.Content[0].Text, nil
}
