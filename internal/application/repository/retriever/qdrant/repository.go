// Package qdrant implements vector similarity retrieval against a Qdrant
// collection. Points carry {text, url} payloads written by the ingestion
// tooling; this repository only reads.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

const (
	fieldText = "text"
	fieldURL  = "url"
)

type qdrantRepository struct {
	client     *qdrant.Client
	embedder   interfaces.Embedder
	collection string
	timeout    time.Duration
}

// NewQdrantClient dials the Qdrant gRPC endpoint.
func NewQdrantClient(cfg *config.Config) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return client, nil
}

// NewQdrantRetrieveEngineRepository creates the retrieval repository.
func NewQdrantRetrieveEngineRepository(
	client *qdrant.Client, embedder interfaces.Embedder, cfg *config.Config,
) interfaces.RetrieveEngine {
	log := logger.GetLogger(context.Background())
	log.Infof("[Qdrant] Initializing retriever on collection %s", cfg.Qdrant.Collection)

	return &qdrantRepository{
		client:     client,
		embedder:   embedder,
		collection: cfg.Qdrant.Collection,
		timeout:    cfg.Chat.RetrievalTimeout,
	}
}

// GetMatches embeds the query and returns up to topK matches ranked by
// descending similarity. Any transport, backend or embedding failure is
// reported as a retrieval failure so the caller can degrade.
func (q *qdrantRepository) GetMatches(ctx context.Context, query string, topK int) ([]types.Match, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	vector, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", types.ErrRetrieval, err)
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: collection check: %v", types.ErrRetrieval, err)
	}
	if !exists {
		// No embeddings ingested yet: not an error, just nothing to match.
		logger.Warnf(ctx, "[Qdrant] collection %s does not exist, returning no matches", q.collection)
		return []types.Match{}, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", types.ErrRetrieval, err)
	}

	matches := make([]types.Match, 0, len(points))
	for _, point := range points {
		match := types.Match{Score: point.GetScore()}
		if v, ok := point.GetPayload()[fieldText]; ok {
			match.SourceText = v.GetStringValue()
		}
		if v, ok := point.GetPayload()[fieldURL]; ok {
			match.SourceURL = v.GetStringValue()
		}
		matches = append(matches, match)
	}
	logger.Debugf(ctx, "[Qdrant] query returned %d matches", len(matches))
	return matches, nil
}
