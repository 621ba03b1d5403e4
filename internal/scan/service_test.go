package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geolens/visibility-bot/internal/config"
	"github.com/geolens/visibility-bot/internal/models"
	"github.com/geolens/visibility-bot/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of the provider interface
type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) IsEnabled() bool {
	return true
}

func (m *MockProvider) Query(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// slowProvider settles after a fixed delay, for ordering tests
type slowProvider struct {
	name  string
	delay time.Duration
	text  string
}

func (p *slowProvider) Name() string { return p.name }

func (p *slowProvider) IsEnabled() bool { return true }

func (p *slowProvider) Query(ctx context.Context, prompt string) (string, error) {
	select {
	case <-time.After(p.delay):
		return p.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func testConfig() *config.Config {
	return &config.Config{
		FallbackProvider: providers.NameChatGPT,
		ProviderTimeout:  2 * time.Second,
		PromptPause:      0,
	}
}

func prompts(queries ...string) []models.Prompt {
	var out []models.Prompt
	for _, q := range queries {
		out = append(out, models.Prompt{Query: q})
	}
	return out
}

func TestRunScan_InvalidInput(t *testing.T) {
	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom())

	tests := []struct {
		name    string
		brand   string
		prompts []models.Prompt
	}{
		{name: "Missing brand", brand: "", prompts: prompts("best accounting software")},
		{name: "No prompts", brand: "Acme Corp", prompts: nil},
		{name: "Blank prompt query", brand: "Acme Corp", prompts: prompts("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orchestrator.RunScan(context.Background(), tt.brand, nil, tt.prompts, nil)

			var invalid *InvalidInputError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestRunScan_AllProvidersSucceed(t *testing.T) {
	chatgpt := &MockProvider{name: providers.NameChatGPT}
	claude := &MockProvider{name: providers.NameClaude}
	gemini := &MockProvider{name: providers.NameGemini}

	chatgpt.On("Query", mock.Anything, mock.Anything).Return("1. Acme Corp is the leader here.", nil)
	claude.On("Query", mock.Anything, mock.Anything).Return("Globex is worth a look.", nil)
	gemini.On("Query", mock.Anything, mock.Anything).Return("Acme Corp and Globex both compete.", nil)

	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom(chatgpt, claude, gemini))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", []string{"Globex"}, prompts("best accounting software"), nil)

	require.NoError(t, err)
	require.Len(t, outcome.AnalyzedResponses, 3)
	assert.Empty(t, outcome.Failures)

	// Responses follow dispatch order
	assert.Equal(t, providers.NameChatGPT, outcome.AnalyzedResponses[0].Provider)
	assert.Equal(t, providers.NameClaude, outcome.AnalyzedResponses[1].Provider)
	assert.Equal(t, providers.NameGemini, outcome.AnalyzedResponses[2].Provider)

	first := outcome.AnalyzedResponses[0]
	assert.True(t, first.BrandMentioned)
	assert.Equal(t, 1, first.BrandPosition)
	assert.Equal(t, "best accounting software", first.Prompt)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())

	second := outcome.AnalyzedResponses[1]
	assert.False(t, second.BrandMentioned)
	require.Len(t, second.CompetitorsMentioned, 1)
	assert.Equal(t, "Globex", second.CompetitorsMentioned[0].Name)

	assert.Contains(t, outcome.Summary, "Acme Corp was mentioned in 2 of 3 model responses")
}

func TestRunScan_PartialFailureIsRecorded(t *testing.T) {
	chatgpt := &MockProvider{name: providers.NameChatGPT}
	claude := &MockProvider{name: providers.NameClaude}

	chatgpt.On("Query", mock.Anything, mock.Anything).Return("Acme Corp leads the pack.", nil)
	claude.On("Query", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom(chatgpt, claude))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("best accounting software"), nil)

	require.NoError(t, err)
	assert.Len(t, outcome.AnalyzedResponses, 1)
	assert.Equal(t, []string{providers.NameClaude}, outcome.Failures)
}

func TestRunScan_FallbackAfterTotalFailure(t *testing.T) {
	chatgpt := &MockProvider{name: providers.NameChatGPT}
	claude := &MockProvider{name: providers.NameClaude}
	gemini := &MockProvider{name: providers.NameGemini}

	// Parallel attempt fails everywhere; the fallback retry succeeds
	chatgpt.On("Query", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()
	chatgpt.On("Query", mock.Anything, mock.Anything).Return("Acme Corp still answers.", nil).Once()
	claude.On("Query", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
	gemini.On("Query", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom(chatgpt, claude, gemini))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("best accounting software"), nil)

	require.NoError(t, err)
	require.Len(t, outcome.AnalyzedResponses, 1)
	assert.Equal(t, providers.NameChatGPT, outcome.AnalyzedResponses[0].Provider)
	assert.ElementsMatch(t, []string{providers.NameChatGPT, providers.NameClaude, providers.NameGemini}, outcome.Failures)
	chatgpt.AssertNumberOfCalls(t, "Query", 2)
}

func TestRunScan_AllProvidersAndFallbackFail(t *testing.T) {
	chatgpt := &MockProvider{name: providers.NameChatGPT}
	claude := &MockProvider{name: providers.NameClaude}
	gemini := &MockProvider{name: providers.NameGemini}

	chatgpt.On("Query", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
	claude.On("Query", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
	gemini.On("Query", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom(chatgpt, claude, gemini))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("best accounting software"), nil)

	var allFailed *AllProvidersFailedError
	require.ErrorAs(t, err, &allFailed)

	// All three parallel failures plus the fallback retry
	require.NotNil(t, outcome)
	assert.Len(t, outcome.Failures, 4)
	assert.Empty(t, outcome.AnalyzedResponses)

	// The fallback provider was tried twice: once in parallel, once after
	chatgpt.AssertNumberOfCalls(t, "Query", 2)
}

func TestRunScan_NoActiveProviders(t *testing.T) {
	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom())

	_, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("best accounting software"), nil)

	var allFailed *AllProvidersFailedError
	assert.ErrorAs(t, err, &allFailed)
}

func TestRunScan_DispatchOrderSurvivesArrivalOrder(t *testing.T) {
	// The slowest provider is dispatched first; results must still come
	// back in dispatch order, not settle order.
	slow := &slowProvider{name: providers.NameChatGPT, delay: 120 * time.Millisecond, text: "Acme Corp answer"}
	fast := &slowProvider{name: providers.NameClaude, delay: 5 * time.Millisecond, text: "Globex answer"}

	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom(slow, fast))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("best accounting software"), nil)

	require.NoError(t, err)
	require.Len(t, outcome.AnalyzedResponses, 2)
	assert.Equal(t, providers.NameChatGPT, outcome.AnalyzedResponses[0].Provider)
	assert.Equal(t, providers.NameClaude, outcome.AnalyzedResponses[1].Provider)
}

func TestRunScan_ProviderTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ProviderTimeout = 20 * time.Millisecond
	cfg.FallbackProvider = providers.NameClaude

	stuck := &slowProvider{name: providers.NameChatGPT, delay: time.Second, text: "too late"}
	fast := &slowProvider{name: providers.NameClaude, delay: time.Millisecond, text: "Acme Corp answer"}

	orchestrator := NewOrchestrator(cfg, providers.NewRegistryFrom(stuck, fast))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("best accounting software"), nil)

	require.NoError(t, err)
	assert.Len(t, outcome.AnalyzedResponses, 1)
	assert.Equal(t, []string{providers.NameChatGPT}, outcome.Failures)
}

func TestRunScan_MultiplePrompts(t *testing.T) {
	chatgpt := &MockProvider{name: providers.NameChatGPT}
	chatgpt.On("Query", mock.Anything, "first prompt").Return("Acme Corp here.", nil)
	chatgpt.On("Query", mock.Anything, "second prompt").Return("Nothing relevant.", nil)

	orchestrator := NewOrchestrator(testConfig(), providers.NewRegistryFrom(chatgpt))

	outcome, err := orchestrator.RunScan(context.Background(), "Acme Corp", nil, prompts("first prompt", "second prompt"), nil)

	require.NoError(t, err)
	require.Len(t, outcome.AnalyzedResponses, 2)
	assert.Equal(t, "first prompt", outcome.AnalyzedResponses[0].Prompt)
	assert.Equal(t, "second prompt", outcome.AnalyzedResponses[1].Prompt)
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ProviderError{Provider: providers.NameClaude, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Claude")
}
