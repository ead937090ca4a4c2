// Package conversation exposes the append-only conversation log used to
// build prompt context and to persist transcripts.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

type conversationService struct {
	repo interfaces.ConversationRepository
}

// NewConversationService creates the conversation service.
func NewConversationService(repo interfaces.ConversationRepository) interfaces.ConversationService {
	return &conversationService{repo: repo}
}

// AddEntry appends one entry to the user's log.
func (s *conversationService) AddEntry(ctx context.Context, userID string, speaker types.Speaker, entry string) error {
	record := &types.ConversationEntry{
		UserID:    userID,
		Speaker:   speaker,
		Entry:     entry,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return fmt.Errorf("%w: add entry for user %s: %v", types.ErrPersistence, userID, err)
	}
	return nil
}

// GetConversation returns at most limit recent entries as "SPEAKER: text"
// lines in chronological order. The repository hands back newest-first, so
// the slice is reversed here.
func (s *conversationService) GetConversation(ctx context.Context, userID string, limit int) ([]string, error) {
	entries, err := s.repo.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: load conversation for user %s: %v", types.ErrPersistence, userID, err)
	}

	lines := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(entry.Speaker)), entry.Entry))
	}
	return lines, nil
}

// ClearConversation deletes all entries for the user. Deleting an already
// empty log succeeds.
func (s *conversationService) ClearConversation(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: clear conversation for user %s: %v", types.ErrPersistence, userID, err)
	}
	return nil
}
