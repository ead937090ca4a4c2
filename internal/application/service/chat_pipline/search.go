package chatpipline

import (
	"context"
	"strings"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/stream"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

// SearchPlugin retrieves the top-K matches for the refined query and
// deduplicates them by source URL. Retrieval failures degrade: the
// interaction continues from conversation history alone.
type SearchPlugin struct {
	retriever interfaces.RetrieveEngine
	publisher stream.Publisher
	topK      int
}

// NewSearchPlugin creates and registers the plugin.
func NewSearchPlugin(
	eventManager *EventManager, retriever interfaces.RetrieveEngine,
	publisher stream.Publisher, cfg *config.Config,
) *SearchPlugin {
	res := &SearchPlugin{
		retriever: retriever,
		publisher: publisher,
		topK:      cfg.Chat.TopK,
	}
	eventManager.Register(res)
	return res
}

func (p *SearchPlugin) ActivationEvents() []types.EventType {
	return []types.EventType{types.VECTOR_SEARCH}
}

func (p *SearchPlugin) OnEvent(
	ctx context.Context,
	eventType types.EventType,
	interaction *types.Interaction,
	next func() *PluginError,
) *PluginError {
	interaction.Status = types.InteractionMatching
	p.publishStatus(ctx, interaction, "Finding matches...")

	matches, err := p.retriever.GetMatches(ctx, interaction.RefinedQuery, p.topK)
	if err != nil {
		logger.Errorf(ctx, "retrieval failed, continuing without context: %v", err)
		matches = nil
	}
	interaction.Matches = matches

	// Deduplicate by source URL keeping the first-seen text per URL; the
	// retriever's ranked order is preserved.
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		if _, ok := seen[match.SourceURL]; ok {
			continue
		}
		seen[match.SourceURL] = struct{}{}
		interaction.Docs = append(interaction.Docs, match.SourceText)
		interaction.SourceURLs = append(interaction.SourceURLs, match.SourceURL)
	}
	interaction.Corpus = strings.Join(interaction.Docs, "\n")

	logger.Infof(ctx, "Retrieved %d matches, %d after dedup (%d corpus chars)",
		len(matches), len(interaction.Docs), len(interaction.Corpus))
	return next()
}

func (p *SearchPlugin) publishStatus(ctx context.Context, interaction *types.Interaction, message string) {
	if err := p.publisher.Publish(ctx, interaction.UserID, stream.StatusEvent(message)); err != nil {
		logger.Warnf(ctx, "failed to publish status event: %v", err)
	}
}
