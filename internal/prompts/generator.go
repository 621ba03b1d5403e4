// Package prompts generates market-research prompts for an industry by
// asking one of the AI providers. Scan callers may always supply their own
// prompts instead; this is an optional collaborator.
package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/geolens/visibility-bot/internal/models"
	"github.com/geolens/visibility-bot/internal/providers"
	"github.com/sirupsen/logrus"
)

const generationTemplate = `Generate 8-10 common search queries a customer would ask an AI assistant for the "%s" industry. Respond with only a JSON array where each element has the fields "query", "intent" (Discovery or High Intent) and "volume" (Low, High or Very High). No other text.`

// Generator produces industry prompts through a single provider.
type Generator struct {
	provider providers.Provider
}

// NewGenerator creates a prompt generator backed by the given provider
func NewGenerator(provider providers.Provider) *Generator {
	return &Generator{provider: provider}
}

// GenerateIndustryPrompts asks the provider for search queries typical of
// the industry and parses them into typed prompts.
func (g *Generator) GenerateIndustryPrompts(ctx context.Context, industry string) ([]models.Prompt, error) {
	if strings.TrimSpace(industry) == "" {
		return nil, fmt.Errorf("industry is required")
	}

	text, err := g.provider.Query(ctx, fmt.Sprintf(generationTemplate, industry))
	if err != nil {
		return nil, fmt.Errorf("prompt generation via %s failed: %w", g.provider.Name(), err)
	}

	prompts, err := parsePrompts(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated prompts: %w", err)
	}

	logrus.Infof("Generated %d prompts for industry %q via %s", len(prompts), industry, g.provider.Name())
	return prompts, nil
}

// parsePrompts extracts the JSON array from the model's answer. Models
// sometimes wrap the array in prose or code fences, so parsing starts at
// the first '[' and ends at the last ']'.
func parsePrompts(text string) ([]models.Prompt, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var prompts []models.Prompt
	if err := json.Unmarshal([]byte(text[start:end+1]), &prompts); err != nil {
		return nil, err
	}

	valid := prompts[:0]
	for _, p := range prompts {
		if strings.TrimSpace(p.Query) == "" {
			continue
		}
		valid = append(valid, p)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("response contained no usable queries")
	}
	return valid, nil
}
