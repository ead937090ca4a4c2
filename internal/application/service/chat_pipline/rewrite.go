package chatpipline

import (
	"context"
	"fmt"
	"strings"

	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/models/chat"
	"github.com/docschat/docschat/internal/types"
)

// RewritePlugin turns the raw user prompt into a standalone search query
// using the recent conversation history. There is no meaningful fallback
// query, so a failure here is fatal to the interaction.
type RewritePlugin struct {
	chatModel chat.Chat
}

// NewRewritePlugin creates and registers the plugin.
func NewRewritePlugin(eventManager *EventManager, chatModel chat.Chat) *RewritePlugin {
	res := &RewritePlugin{chatModel: chatModel}
	eventManager.Register(res)
	return res
}

func (p *RewritePlugin) ActivationEvents() []types.EventType {
	return []types.EventType{types.QUERY_REWRITE}
}

func (p *RewritePlugin) OnEvent(
	ctx context.Context,
	eventType types.EventType,
	interaction *types.Interaction,
	next func() *PluginError,
) *PluginError {
	prompt := fmt.Sprintf(inquiryTemplate, interaction.RawPrompt, strings.Join(interaction.History, "\n"))

	resp, err := p.chatModel.Chat(ctx, []chat.Message{{Role: "user", Content: prompt}}, &chat.ChatOptions{Temperature: 0})
	if err != nil {
		return ErrorWithEvent(eventType, err, "failed to refine user prompt")
	}

	refined := strings.TrimSpace(resp.Content)
	if refined == "" {
		refined = interaction.RawPrompt
	}
	interaction.RefinedQuery = refined

	logger.Infof(ctx, "Refined query: %s", refined)
	return next()
}
