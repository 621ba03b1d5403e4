package providers

import "context"

// Provider names used throughout the system to select a client.
const (
	NameChatGPT = "ChatGPT"
	NameClaude  = "Claude"
	NameGemini  = "Gemini"
)

// Provider defines the contract for a single AI model provider. One call,
// one prompt, one raw text answer. Retry policy lives in the orchestrator,
// not here.
type Provider interface {
	Name() string
	IsEnabled() bool
	Query(ctx context.Context, prompt string) (string, error)
}
