package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiProvider queries Google's generateContent API as the "Gemini" model.
type GeminiProvider struct {
	apiKey    string
	model     string
	maxTokens int
	client    *resty.Client
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiProvider creates a new Gemini-backed provider client
func NewGeminiProvider(apiKey string, maxTokens int) *GeminiProvider {
	return &GeminiProvider{
		apiKey:    apiKey,
		model:     "gemini-1.5-pro",
		maxTokens: maxTokens,
		client:    resty.New().SetTimeout(30 * time.Second),
	}
}

func (p *GeminiProvider) Name() string {
	return NameGemini
}

func (p *GeminiProvider) IsEnabled() bool {
	return p.apiKey != ""
}

func (p *GeminiProvider) Query(ctx context.Context, prompt string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: p.maxTokens,
			TopP:            0.95,
			TopK:            40,
		},
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", p.model)

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", p.apiKey).
		SetBody(body).
		Post(url)

	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("Gemini API error (code %d): %s", parsed.Error.Code, parsed.Error.Message)
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("Gemini API returned status %d", resp.StatusCode())
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
