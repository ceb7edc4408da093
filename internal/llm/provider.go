package llm

import (
	"context"
)

// CompletionProvider is the external completion collaborator. The context
// makes cancellation and deadlines explicit; callers that want a timeout
// wrap ctx themselves. No retries happen at this layer.
type CompletionProvider interface {
	// Complete sends an assembled message sequence and returns the
	// provider's text reply verbatim.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "anthropic")
	Name() string
}

// Message is one turn of conversational context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest contains the parameters for a completion call.
type CompletionRequest struct {
	// System is the system-context block prepended to the conversation
	System string

	// Messages is the trimmed history plus the new question, oldest first
	Messages []Message

	// Model overrides the provider's default model when non-empty
	Model string

	// MaxTokens bounds the reply length; 0 uses the provider default
	MaxTokens int
}

// CompletionResponse contains the provider's reply.
type CompletionResponse struct {
	// Text is the reply text, returned verbatim to the caller
	Text string

	// Model is the model that served the request
	Model string

	// InputTokens and OutputTokens report usage when the provider
	// supplies it
	InputTokens  int
	OutputTokens int
}
