// Package llm provides the opaque completion capability consumed by the
// specialist roles. The engine never looks inside a completion; specialists
// call Complete and package the text into feedback payloads.
package llm

import "context"

// Completer produces one completion for a system prompt + user prompt pair.
// Implementations may block on network I/O; callers bound them with ctx.
// There is no retry or backoff at this layer.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, system, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
