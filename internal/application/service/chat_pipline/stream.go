package chatpipline

import (
	"context"
	"fmt"
	"strings"

	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/models/chat"
	"github.com/docschat/docschat/internal/stream"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

// StreamPlugin drives the final answer generation: it streams tokens to the
// user's channel in arrival order, persists the concatenated answer as one
// ai entry, and then emits the terminal responseEnd marker exactly once.
type StreamPlugin struct {
	chatModel           chat.Chat
	conversationService interfaces.ConversationService
	publisher           stream.Publisher
}

// NewStreamPlugin creates and registers the plugin.
func NewStreamPlugin(
	eventManager *EventManager, chatModel chat.Chat,
	conversationService interfaces.ConversationService, publisher stream.Publisher,
) *StreamPlugin {
	res := &StreamPlugin{
		chatModel:           chatModel,
		conversationService: conversationService,
		publisher:           publisher,
	}
	eventManager.Register(res)
	return res
}

func (p *StreamPlugin) ActivationEvents() []types.EventType {
	return []types.EventType{types.CHAT_STREAM}
}

func (p *StreamPlugin) OnEvent(
	ctx context.Context,
	eventType types.EventType,
	interaction *types.Interaction,
	next func() *PluginError,
) *PluginError {
	interaction.Status = types.InteractionGenerating

	prompt := fmt.Sprintf(qaTemplate,
		strings.Join(interaction.History, "\n"),
		interaction.Summary,
		interaction.RawPrompt,
		strings.Join(interaction.SourceURLs, "\n"),
	)

	tokens, err := p.chatModel.ChatStream(ctx, []chat.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		return ErrorWithEvent(eventType, err, "failed to open answer stream")
	}

	interaction.Status = types.InteractionStreaming
	var answer strings.Builder
	done := false
	for token := range tokens {
		if token.Err != nil {
			return ErrorWithEvent(eventType, token.Err, "answer stream broke mid-generation")
		}
		if token.Done {
			done = true
			break
		}
		answer.WriteString(token.Content)
		if err := p.publisher.Publish(ctx, interaction.UserID,
			stream.ResponseEvent(token.Content, interaction.InteractionID)); err != nil {
			logger.Warnf(ctx, "failed to publish response token: %v", err)
		}
	}
	if !done {
		// Channel closed without a Done marker: the generation was cut
		// short (context cancellation or provider hangup).
		return ErrorWithEvent(eventType,
			fmt.Errorf("%w: stream ended without completion", types.ErrGeneration),
			"answer stream ended early")
	}
	interaction.Answer = answer.String()

	// The transcript write is issued before the terminal marker so a client
	// observing responseEnd can rely on the stored answer. A failed write is
	// logged and swallowed; the user already has the streamed answer.
	if err := p.conversationService.AddEntry(ctx, interaction.UserID, types.SpeakerAI, interaction.Answer); err != nil {
		logger.Errorf(ctx, "failed to record ai entry: %v", err)
	}

	if err := p.publisher.Publish(ctx, interaction.UserID,
		stream.ResponseEndEvent(interaction.InteractionID)); err != nil {
		logger.Warnf(ctx, "failed to publish responseEnd: %v", err)
	}

	interaction.Status = types.InteractionCompleted
	logger.Infof(ctx, "Interaction completed, %d answer chars", len(interaction.Answer))
	return next()
}
