package chatpipline

import (
	"context"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

// ConversationPlugin loads the recent conversation history into the
// interaction and records the incoming prompt as a user entry.
type ConversationPlugin struct {
	conversationService interfaces.ConversationService
	historyLimit        int
}

// NewConversationPlugin creates and registers the plugin.
func NewConversationPlugin(
	eventManager *EventManager, conversationService interfaces.ConversationService, cfg *config.Config,
) *ConversationPlugin {
	res := &ConversationPlugin{
		conversationService: conversationService,
		historyLimit:        cfg.Chat.HistoryLimit,
	}
	eventManager.Register(res)
	return res
}

func (p *ConversationPlugin) ActivationEvents() []types.EventType {
	return []types.EventType{types.CONVERSATION_LOAD}
}

func (p *ConversationPlugin) OnEvent(
	ctx context.Context,
	eventType types.EventType,
	interaction *types.Interaction,
	next func() *PluginError,
) *PluginError {
	logger.Info(ctx, "Start to load conversation history")

	// No safe context without history: a failed read aborts before any
	// generation happens.
	history, err := p.conversationService.GetConversation(ctx, interaction.UserID, p.historyLimit)
	if err != nil {
		return ErrorWithEvent(eventType, err, "failed to load conversation history")
	}
	interaction.History = history

	// The prompt is recorded before anything is generated. Losing one
	// history line is preferable to aborting a live answer, so a write
	// failure does not stop the interaction.
	if err := p.conversationService.AddEntry(ctx, interaction.UserID, types.SpeakerUser, interaction.RawPrompt); err != nil {
		logger.Errorf(ctx, "failed to record user entry: %v", err)
	}

	logger.Infof(ctx, "Loaded %d history entries", len(history))
	return next()
}
