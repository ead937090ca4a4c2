// Package conversation implements the durable conversation log on a
// relational store via gorm.
package conversation

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates the conversation repository.
func NewConversationRepository(db *gorm.DB) interfaces.ConversationRepository {
	return &conversationRepository{db: db}
}

// Insert appends one entry. A duplicate (user_id, created_at, speaker) row
// is dropped silently so replays cannot corrupt the log.
func (r *conversationRepository) Insert(ctx context.Context, entry *types.ConversationEntry) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to insert conversation entry: %w", err)
	}
	return nil
}

// RecentByUser returns the most recent limit entries for the user, newest
// first. Callers that need chronological order reverse the result.
func (r *conversationRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]*types.ConversationEntry, error) {
	var entries []*types.ConversationEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation entries: %w", err)
	}
	return entries, nil
}

// DeleteByUser removes every entry for the user.
func (r *conversationRepository) DeleteByUser(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.ConversationEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete conversation entries: %w", err)
	}
	return nil
}
