package interfaces

import (
	"context"

	"github.com/docschat/docschat/internal/types"
)

// ConversationService exposes the append-only conversation log.
type ConversationService interface {
	// AddEntry appends one entry to the user's conversation log
	AddEntry(ctx context.Context, userID string, speaker types.Speaker, entry string) error

	// GetConversation returns at most limit recent entries formatted as
	// "SPEAKER: text", in chronological (oldest-first) order
	GetConversation(ctx context.Context, userID string, limit int) ([]string, error)

	// ClearConversation deletes all entries for the user; idempotent
	ClearConversation(ctx context.Context, userID string) error
}

// ConversationRepository defines the storage contract behind ConversationService.
type ConversationRepository interface {
	// Insert persists one entry; duplicate (user, created_at, speaker)
	// rows are dropped silently
	Insert(ctx context.Context, entry *types.ConversationEntry) error

	// RecentByUser returns the most recent limit entries for the user,
	// newest first
	RecentByUser(ctx context.Context, userID string, limit int) ([]*types.ConversationEntry, error)

	// DeleteByUser removes every entry for the user
	DeleteByUser(ctx context.Context, userID string) error
}

// RetrieveEngine performs semantic similarity search over the document index.
type RetrieveEngine interface {
	// GetMatches returns up to topK matches ranked by descending
	// similarity. An empty index yields an empty slice, not an error.
	GetMatches(ctx context.Context, query string, topK int) ([]types.Match, error)
}

// Embedder converts free text into its vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Summarizer compresses a document under the context budget while staying
// relevant to the guiding inquiry.
type Summarizer interface {
	Summarize(ctx context.Context, document string, inquiry string) (string, error)
}

// ChatService starts detached chat interactions.
type ChatService interface {
	// StartInteraction schedules one interaction for the user and returns
	// its id without waiting for completion
	StartInteraction(ctx context.Context, userID string, prompt string) (string, error)
}
