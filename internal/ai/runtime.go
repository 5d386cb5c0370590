package ai

import "context"

// Runtime is a chat backend able to answer a single GenerateRequest.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the provider setting.
const (
	// ProviderOpenAI is any OpenAI-compatible chat-completions endpoint,
	// including the default AI proxy.
	ProviderOpenAI = "openai"
	// ProviderOllama is a local Ollama runtime; it needs no token.
	ProviderOllama = "ollama"
)

// NeedsToken reports whether provider authenticates with a bearer token.
func NeedsToken(provider string) bool {
	return provider != ProviderOllama
}
