package chatpipline

import (
	"context"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/stream"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

// SummarizePlugin compresses the retrieval corpus when it exceeds the
// context budget. A corpus under the budget passes through untouched;
// summarizing short context is wasted latency and can lose detail.
type SummarizePlugin struct {
	summarizer interfaces.Summarizer
	publisher  stream.Publisher
	budget     int
}

// NewSummarizePlugin creates and registers the plugin.
func NewSummarizePlugin(
	eventManager *EventManager, summarizer interfaces.Summarizer,
	publisher stream.Publisher, cfg *config.Config,
) *SummarizePlugin {
	res := &SummarizePlugin{
		summarizer: summarizer,
		publisher:  publisher,
		budget:     cfg.Chat.ContextBudget,
	}
	eventManager.Register(res)
	return res
}

func (p *SummarizePlugin) ActivationEvents() []types.EventType {
	return []types.EventType{types.SUMMARIZE}
}

func (p *SummarizePlugin) OnEvent(
	ctx context.Context,
	eventType types.EventType,
	interaction *types.Interaction,
	next func() *PluginError,
) *PluginError {
	if len(interaction.Corpus) <= p.budget {
		interaction.Summary = interaction.Corpus
		return next()
	}

	interaction.Status = types.InteractionSummarizing
	if err := p.publisher.Publish(ctx, interaction.UserID,
		stream.StatusEvent("Just a second, forming final answer...")); err != nil {
		logger.Warnf(ctx, "failed to publish status event: %v", err)
	}

	summary, err := p.summarizer.Summarize(ctx, interaction.Corpus, interaction.RefinedQuery)
	if err != nil {
		return ErrorWithEvent(eventType, err, "failed to summarize retrieval corpus")
	}
	interaction.Summary = summary

	logger.Infof(ctx, "Summarized corpus from %d to %d chars", len(interaction.Corpus), len(summary))
	return next()
}
