package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatpipline "github.com/docschat/docschat/internal/application/service/chat_pipline"
	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/stream"
	"github.com/docschat/docschat/internal/types"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []stream.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event stream.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) all() []stream.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stream.Event(nil), p.events...)
}

// stagePlugin reacts to every pipeline stage with a configurable handler.
type stagePlugin struct {
	events  []types.EventType
	onEvent func(eventType types.EventType, interaction *types.Interaction) *chatpipline.PluginError
}

func (p *stagePlugin) ActivationEvents() []types.EventType { return p.events }

func (p *stagePlugin) OnEvent(
	_ context.Context, eventType types.EventType,
	interaction *types.Interaction, next func() *chatpipline.PluginError,
) *chatpipline.PluginError {
	if perr := p.onEvent(eventType, interaction); perr != nil {
		return perr
	}
	return next()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Chat.PoolSize = 8
	cfg.Chat.InteractionTimeout = 5 * time.Second
	return cfg
}

func TestStartInteractionRunsAllStages(t *testing.T) {
	var seen []types.EventType
	var mu sync.Mutex
	done := make(chan struct{})

	em := chatpipline.NewEventManager()
	em.Register(&stagePlugin{
		events: pipelineEvents,
		onEvent: func(eventType types.EventType, _ *types.Interaction) *chatpipline.PluginError {
			mu.Lock()
			seen = append(seen, eventType)
			mu.Unlock()
			if eventType == types.CHAT_STREAM {
				close(done)
			}
			return nil
		},
	})

	publisher := &recordingPublisher{}
	svc, err := NewChatService(em, publisher, testConfig())
	require.NoError(t, err)

	id, err := svc.StartInteraction(context.Background(), "user-1", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("interaction did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, pipelineEvents, seen)
	assert.Empty(t, publisher.all())
}

func TestFatalStagePublishesTerminalFailure(t *testing.T) {
	done := make(chan struct{})
	em := chatpipline.NewEventManager()
	em.Register(&stagePlugin{
		events: pipelineEvents,
		onEvent: func(eventType types.EventType, _ *types.Interaction) *chatpipline.PluginError {
			defer close(done)
			return chatpipline.ErrorWithEvent(eventType,
				fmt.Errorf("%w: no refinement", types.ErrGeneration), "refine failed")
		},
	})

	publisher := &recordingPublisher{}
	svc, err := NewChatService(em, publisher, testConfig())
	require.NoError(t, err)

	id, err := svc.StartInteraction(context.Background(), "user-1", "hello")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("interaction did not finish")
	}

	// The terminal event is published after the failing stage returns;
	// poll briefly rather than racing the goroutine.
	require.Eventually(t, func() bool {
		return len(publisher.all()) == 1
	}, time.Second, 10*time.Millisecond)

	event := publisher.all()[0]
	assert.Equal(t, stream.EventStatus, event.Event)
	assert.Equal(t, "error", event.Message)
	assert.Equal(t, id, event.InteractionID)
}

// ctxCheckingPublisher refuses publishes carrying an expired context, the
// way a real transport would.
type ctxCheckingPublisher struct {
	mu        sync.Mutex
	delivered []stream.Event
	expired   int
}

func (p *ctxCheckingPublisher) Publish(ctx context.Context, _ string, event stream.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		p.expired++
		return err
	}
	p.delivered = append(p.delivered, event)
	return nil
}

func (p *ctxCheckingPublisher) snapshot() ([]stream.Event, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stream.Event(nil), p.delivered...), p.expired
}

// deadlinePlugin blocks until the interaction deadline fires, then fails.
type deadlinePlugin struct{}

func (p *deadlinePlugin) ActivationEvents() []types.EventType {
	return []types.EventType{types.CONVERSATION_LOAD}
}

func (p *deadlinePlugin) OnEvent(
	ctx context.Context, eventType types.EventType,
	_ *types.Interaction, _ func() *chatpipline.PluginError,
) *chatpipline.PluginError {
	<-ctx.Done()
	return chatpipline.ErrorWithEvent(eventType, ctx.Err(), "stage outlived the interaction deadline")
}

func TestTerminalEventSurvivesInteractionTimeout(t *testing.T) {
	em := chatpipline.NewEventManager()
	em.Register(&deadlinePlugin{})

	cfg := testConfig()
	cfg.Chat.InteractionTimeout = 30 * time.Millisecond

	publisher := &ctxCheckingPublisher{}
	svc, err := NewChatService(em, publisher, cfg)
	require.NoError(t, err)

	id, err := svc.StartInteraction(context.Background(), "user-1", "hello")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		delivered, _ := publisher.snapshot()
		return len(delivered) == 1
	}, 2*time.Second, 10*time.Millisecond)

	delivered, expired := publisher.snapshot()
	assert.Equal(t, 0, expired, "terminal event must not ride the expired interaction context")
	assert.Equal(t, stream.EventStatus, delivered[0].Event)
	assert.Equal(t, "error", delivered[0].Message)
	assert.Equal(t, id, delivered[0].InteractionID)
}

func TestUserGatesReleasedAfterCompletion(t *testing.T) {
	em := chatpipline.NewEventManager()
	em.Register(&stagePlugin{
		events: pipelineEvents,
		onEvent: func(types.EventType, *types.Interaction) *chatpipline.PluginError {
			return nil
		},
	})

	publisher := &recordingPublisher{}
	svc, err := NewChatService(em, publisher, testConfig())
	require.NoError(t, err)
	cs := svc.(*chatService)

	for i := 0; i < 4; i++ {
		_, err := svc.StartInteraction(context.Background(), fmt.Sprintf("user-%d", i), "hello")
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		cs.gatesMu.Lock()
		defer cs.gatesMu.Unlock()
		return len(cs.gates) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInteractionsSerializedPerUser(t *testing.T) {
	var running atomic.Int32
	var overlapped atomic.Bool
	var finished sync.WaitGroup

	em := chatpipline.NewEventManager()
	em.Register(&stagePlugin{
		events: []types.EventType{types.CHAT_STREAM},
		onEvent: func(_ types.EventType, _ *types.Interaction) *chatpipline.PluginError {
			if running.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			finished.Done()
			return nil
		},
	})

	publisher := &recordingPublisher{}
	svc, err := NewChatService(em, publisher, testConfig())
	require.NoError(t, err)

	const n = 5
	finished.Add(n)
	for i := 0; i < n; i++ {
		_, err := svc.StartInteraction(context.Background(), "same-user", "prompt")
		require.NoError(t, err)
	}

	waited := make(chan struct{})
	go func() { finished.Wait(); close(waited) }()
	select {
	case <-waited:
	case <-time.After(3 * time.Second):
		t.Fatal("interactions did not finish")
	}
	assert.False(t, overlapped.Load(), "interactions for one user must not overlap")
}
