// Package chatpipline drives one chat interaction through its stages as a
// chain of plugins keyed by event type. Each plugin decides whether a stage
// failure degrades (it continues the chain itself) or is fatal (it returns
// a PluginError, which unwinds to the orchestrator).
package chatpipline

import (
	"context"

	"github.com/docschat/docschat/internal/types"
)

// PluginError reports a fatal stage failure.
type PluginError struct {
	EventType   types.EventType
	Description string
	Err         error
}

// ErrorWithEvent wraps a stage failure with its originating event.
func ErrorWithEvent(eventType types.EventType, err error, description string) *PluginError {
	return &PluginError{EventType: eventType, Description: description, Err: err}
}

// Plugin handles one or more pipeline events.
type Plugin interface {
	// ActivationEvents lists the events the plugin reacts to
	ActivationEvents() []types.EventType

	// OnEvent handles one event. Calling next() continues the chain for
	// this event; returning a non-nil error aborts the interaction.
	OnEvent(ctx context.Context, eventType types.EventType,
		interaction *types.Interaction, next func() *PluginError) *PluginError
}

// EventManager routes events to registered plugins in registration order.
type EventManager struct {
	plugins map[types.EventType][]Plugin
}

// NewEventManager creates an empty event manager.
func NewEventManager() *EventManager {
	return &EventManager{plugins: make(map[types.EventType][]Plugin)}
}

// Register subscribes a plugin to all of its activation events.
func (m *EventManager) Register(plugin Plugin) {
	for _, eventType := range plugin.ActivationEvents() {
		m.plugins[eventType] = append(m.plugins[eventType], plugin)
	}
}

// Trigger runs the plugin chain for one event.
func (m *EventManager) Trigger(ctx context.Context, eventType types.EventType, interaction *types.Interaction) *PluginError {
	chain := m.plugins[eventType]
	var run func(i int) *PluginError
	run = func(i int) *PluginError {
		if i >= len(chain) {
			return nil
		}
		return chain[i].OnEvent(ctx, eventType, interaction, func() *PluginError {
			return run(i + 1)
		})
	}
	return run(0)
}
