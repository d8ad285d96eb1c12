package interfaces

import "context"

// LLMClient is the opaque language model collaborator. It accepts a prompt
// pair and returns free text; it may fail or time out.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// Embedder converts text into a fixed-length numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
