package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const openaiVisibilitySystemPrompt = "You are a helpful assistant providing information about products, services, and companies. Answer questions directly and mention relevant companies in your response."

// OpenAIProvider queries OpenAI's chat completions API as the "ChatGPT" model.
type OpenAIProvider struct {
	apiKey    string
	model     string
	maxTokens int
	client    *resty.Client
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIProvider creates a new OpenAI-backed provider client
func NewOpenAIProvider(apiKey string, maxTokens int) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:    apiKey,
		model:     "gpt-4-turbo",
		maxTokens: maxTokens,
		client:    resty.New().SetTimeout(30 * time.Second),
	}
}

func (p *OpenAIProvider) Name() string {
	return NameChatGPT
}

func (p *OpenAIProvider) IsEnabled() bool {
	return p.apiKey != ""
}

func (p *OpenAIProvider) Query(ctx context.Context, prompt string) (string, error) {
	body := openaiRequest{
		Model: p.model,
		Messages: []openaiMessage{
			{Role: "system", Content: openaiVisibilitySystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   p.maxTokens,
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+p.apiKey).
		SetBody(body).
		Post("https://api.openai.com/v1/chat/completions")

	if err != nil {
		return "", err
	}

	var parsed openaiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("OpenAI API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("OpenAI API returned status %d", resp.StatusCode())
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
