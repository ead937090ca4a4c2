// Package chat defines the generation collaborator contract: one blocking
// call used for query refinement and chunk summarization, and one streaming
// call used for the final answer.
package chat

import "context"

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single generation call.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the result of a blocking generation call.
type ChatResponse struct {
	Content string
}

// StreamResponse is one increment of a streaming generation call. The
// channel is closed after the element with Done set, or after an element
// carrying Err.
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}

// Chat is the generation collaborator. Implementations are stateless per
// call and safe for concurrent use.
type Chat interface {
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamResponse, error)
}
