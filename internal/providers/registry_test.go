package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name    string
	enabled bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) IsEnabled() bool { return s.enabled }

func (s *stubProvider) Query(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func TestProviderNamesAndEnablement(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		expected string
		enabled  bool
	}{
		{name: "OpenAI with key", provider: NewOpenAIProvider("sk-test", 1000), expected: NameChatGPT, enabled: true},
		{name: "OpenAI without key", provider: NewOpenAIProvider("", 1000), expected: NameChatGPT, enabled: false},
		{name: "Anthropic with key", provider: NewAnthropicProvider("sk-ant-test", 1000), expected: NameClaude, enabled: true},
		{name: "Anthropic without key", provider: NewAnthropicProvider("", 1000), expected: NameClaude, enabled: false},
		{name: "Gemini with key", provider: NewGeminiProvider("test-key", 1000), expected: NameGemini, enabled: true},
		{name: "Gemini without key", provider: NewGeminiProvider("", 1000), expected: NameGemini, enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.Name())
			assert.Equal(t, tt.enabled, tt.provider.IsEnabled())
		})
	}
}

func TestRegistry_ActivePreservesRegistrationOrder(t *testing.T) {
	registry := NewRegistryFrom(
		&stubProvider{name: NameGemini, enabled: true},
		&stubProvider{name: NameChatGPT, enabled: false},
		&stubProvider{name: NameClaude, enabled: true},
	)

	active := registry.Active()

	require.Len(t, active, 2)
	assert.Equal(t, NameGemini, active[0].Name())
	assert.Equal(t, NameClaude, active[1].Name())
}

func TestRegistry_SelectByName(t *testing.T) {
	registry := NewRegistryFrom(
		&stubProvider{name: NameChatGPT, enabled: true},
		&stubProvider{name: NameClaude, enabled: true},
		&stubProvider{name: NameGemini, enabled: false},
	)

	t.Run("Empty list means all active", func(t *testing.T) {
		selected := registry.Select(nil)
		require.Len(t, selected, 2)
		assert.Equal(t, NameChatGPT, selected[0].Name())
		assert.Equal(t, NameClaude, selected[1].Name())
	})

	t.Run("Requested order honored", func(t *testing.T) {
		selected := registry.Select([]string{NameClaude, NameChatGPT})
		require.Len(t, selected, 2)
		assert.Equal(t, NameClaude, selected[0].Name())
		assert.Equal(t, NameChatGPT, selected[1].Name())
	})

	t.Run("Unknown name skipped", func(t *testing.T) {
		selected := registry.Select([]string{"Copilot", NameChatGPT})
		require.Len(t, selected, 1)
		assert.Equal(t, NameChatGPT, selected[0].Name())
	})

	t.Run("Disabled provider skipped", func(t *testing.T) {
		selected := registry.Select([]string{NameGemini})
		assert.Empty(t, selected)
	})
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistryFrom(&stubProvider{name: NameChatGPT, enabled: true})

	p, ok := registry.Get(NameChatGPT)
	require.True(t, ok)
	assert.Equal(t, NameChatGPT, p.Name())

	_, ok = registry.Get(NameClaude)
	assert.False(t, ok)
}

func TestRegistry_DuplicateRegistrationIgnored(t *testing.T) {
	first := &stubProvider{name: NameChatGPT, enabled: true}
	second := &stubProvider{name: NameChatGPT, enabled: true}

	registry := NewRegistryFrom(first, second)

	assert.Len(t, registry.Active(), 1)
	p, _ := registry.Get(NameChatGPT)
	assert.Same(t, first, p)
}
