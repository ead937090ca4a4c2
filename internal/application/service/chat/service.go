// Package chat orchestrates one interaction lifecycle: load history, refine
// the prompt, retrieve and deduplicate matches, summarize when over budget,
// then generate and stream the answer. Interactions run detached from the
// HTTP request that started them.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	chatpipline "github.com/docschat/docschat/internal/application/service/chat_pipline"
	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/stream"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

// pipelineEvents is the stage order of one interaction.
var pipelineEvents = []types.EventType{
	types.CONVERSATION_LOAD,
	types.QUERY_REWRITE,
	types.VECTOR_SEARCH,
	types.SUMMARIZE,
	types.CHAT_STREAM,
}

// failurePublishTimeout bounds the terminal event publish on the fatal path.
const failurePublishTimeout = 5 * time.Second

// userGate serializes interactions for one user. refs counts holders plus
// waiters so the gate can be dropped once the last one releases it.
type userGate struct {
	mu   sync.Mutex
	refs int
}

type chatService struct {
	eventManager *chatpipline.EventManager
	publisher    stream.Publisher
	pool         *ants.Pool
	timeout      time.Duration

	// gates serialize interactions per user so overlapping requests cannot
	// interleave conversation writes. Entries are removed on last release,
	// keeping the map bounded by in-flight users rather than all users ever
	// seen.
	gatesMu sync.Mutex
	gates   map[string]*userGate
}

// NewChatService creates the interaction orchestrator.
func NewChatService(
	eventManager *chatpipline.EventManager, publisher stream.Publisher, cfg *config.Config,
) (interfaces.ChatService, error) {
	pool, err := ants.NewPool(cfg.Chat.PoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create interaction pool: %w", err)
	}
	return &chatService{
		eventManager: eventManager,
		publisher:    publisher,
		pool:         pool,
		timeout:      cfg.Chat.InteractionTimeout,
		gates:        make(map[string]*userGate),
	}, nil
}

// StartInteraction schedules one detached interaction and returns its id
// immediately. The HTTP response is not correlated with completion.
func (s *chatService) StartInteraction(ctx context.Context, userID string, prompt string) (string, error) {
	interactionID := uuid.New().String()
	err := s.pool.Submit(func() {
		s.run(interactionID, userID, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("failed to schedule interaction: %w", err)
	}
	logger.Infof(ctx, "Scheduled interaction %s for user %s", interactionID, userID)
	return interactionID, nil
}

func (s *chatService) run(interactionID string, userID string, prompt string) {
	// The request context is gone by now; the interaction carries its own
	// deadline and request id.
	ctx := logger.WithRequestID(context.Background(), interactionID)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gate := s.acquireGate(userID)
	defer s.releaseGate(userID, gate)

	interaction := &types.Interaction{
		InteractionID: interactionID,
		UserID:        userID,
		RawPrompt:     prompt,
		Status:        types.InteractionCreated,
	}

	for _, eventType := range pipelineEvents {
		if perr := s.eventManager.Trigger(ctx, eventType, interaction); perr != nil {
			logger.Errorf(ctx, "interaction failed at %s: %s: %v", perr.EventType, perr.Description, perr.Err)
			interaction.Status = types.InteractionFailed
			s.publishFailure(ctx, userID, interactionID)
			return
		}
	}
}

// publishFailure emits the terminal error event so the client never hangs
// waiting on the channel. The interaction context is frequently already
// expired here (a deadline-exceeded stage is the common fatal cause), so the
// publish runs detached from it on its own short deadline.
func (s *chatService) publishFailure(ctx context.Context, userID string, interactionID string) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failurePublishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, userID, stream.FailureEvent(interactionID)); err != nil {
		logger.Errorf(pubCtx, "failed to publish failure event: %v", err)
	}
}

func (s *chatService) acquireGate(userID string) *userGate {
	s.gatesMu.Lock()
	gate, ok := s.gates[userID]
	if !ok {
		gate = &userGate{}
		s.gates[userID] = gate
	}
	gate.refs++
	s.gatesMu.Unlock()

	gate.mu.Lock()
	return gate
}

func (s *chatService) releaseGate(userID string, gate *userGate) {
	gate.mu.Unlock()

	s.gatesMu.Lock()
	gate.refs--
	if gate.refs == 0 {
		delete(s.gates, userID)
	}
	s.gatesMu.Unlock()
}
