package llm

import (
	"context"
	"net/http"
	"time"
)

// DefaultOllamaURL is the local Ollama OpenAI-compatible endpoint.
const DefaultOllamaURL = "http://localhost:11434/v1"

// Ollama is a Completer backed by a local Ollama server. Ollama speaks the
// OpenAI chat protocol, so it delegates to the same request shape as
// OpenRouter with a placeholder API key.
type Ollama struct {
	BaseURL string // defaults to DefaultOllamaURL
	Model   string
	Client  *http.Client
}

// Complete sends one chat completion request to the local server.
func (o *Ollama) Complete(ctx context.Context, system, prompt string) (string, error) {
	base := o.BaseURL
	if base == "" {
		base = DefaultOllamaURL
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	inner := &OpenRouter{
		BaseURL: base,
		APIKey:  "ollama", // ollama ignores the key but the header must be present
		Model:   o.Model,
		Client:  client,
	}
	return inner.Complete(ctx, system, prompt)
}
