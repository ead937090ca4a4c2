// Package summarizer recursively compresses an oversized retrieval corpus
// under the generation context budget while staying relevant to the guiding
// inquiry. This is the only place where unbounded input size meets the hard
// downstream context limit.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/models/chat"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

const chunkSummaryTemplate = `Shorten the text in the CONTENT, attempting to answer the INQUIRY. You should follow the following rules when generating the summary:
- Any code found in the CONTENT should ALWAYS be preserved in the summary, unchanged.
- Summary should include code examples when possible. Do not make up any code examples on your own.
- The summary should be under %d characters.
- If the INQUIRY cannot be answered, the final answer should be empty.

INQUIRY: %s
CONTENT: %s

Final answer:`

type summarizerService struct {
	chatModel   chat.Chat
	budget      int
	maxRounds   int
	concurrency int
}

// NewSummarizerService creates the summarizer.
func NewSummarizerService(chatModel chat.Chat, cfg *config.Config) interfaces.Summarizer {
	concurrency := cfg.Chat.SummaryConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &summarizerService{
		chatModel:   chatModel,
		budget:      cfg.Chat.ContextBudget,
		maxRounds:   cfg.Chat.SummaryMaxRounds,
		concurrency: concurrency,
	}
}

// Summarize compresses document under the budget, guided by inquiry.
// Documents already under the budget are returned unchanged. Each
// compression round must strictly shrink its input, otherwise the routine
// reports divergence instead of looping.
func (s *summarizerService) Summarize(ctx context.Context, document string, inquiry string) (string, error) {
	for round := 0; len(document) > s.budget; round++ {
		if s.maxRounds > 0 && round >= s.maxRounds {
			return "", fmt.Errorf("%w: no convergence after %d rounds (%d chars over a %d budget)",
				types.ErrSummarizationDiverged, round, len(document), s.budget)
		}

		chunks := SplitIntoChunks(document, s.budget)
		logger.Infof(ctx, "summarization round %d: %d chars in %d chunks", round, len(document), len(chunks))

		summaries := make([]string, len(chunks))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i, chunkText := range chunks {
			g.Go(func() error {
				summary, err := s.summarizeChunk(gctx, chunkText, inquiry)
				if err != nil {
					return err
				}
				summaries[i] = summary
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}

		next := strings.Join(summaries, "\n")
		if len(next) >= len(document) {
			return "", fmt.Errorf("%w: round %d produced %d chars from %d",
				types.ErrSummarizationDiverged, round, len(next), len(document))
		}
		document = next
	}
	return document, nil
}

func (s *summarizerService) summarizeChunk(ctx context.Context, chunkText string, inquiry string) (string, error) {
	resp, err := s.chatModel.Chat(ctx, []chat.Message{
		{Role: "user", Content: fmt.Sprintf(chunkSummaryTemplate, s.budget, inquiry, chunkText)},
	}, &chat.ChatOptions{Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("chunk summarization failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
