// Package stream defines the realtime channel protocol between the chat
// pipeline and the browser. One delivery channel exists per user; payloads
// are small JSON envelopes.
package stream

import "context"

// Event names on the wire.
const (
	EventStatus      = "status"
	EventResponse    = "response"
	EventResponseEnd = "responseEnd"
)

// EndToken is the token carried by the terminal responseEnd event.
const EndToken = "END"

// Event is one realtime channel payload.
type Event struct {
	Event         string `json:"event"`
	Message       string `json:"message,omitempty"`
	Token         string `json:"token,omitempty"`
	InteractionID string `json:"interactionId,omitempty"`
}

// StatusEvent reports pipeline progress to the user.
func StatusEvent(message string) Event {
	return Event{Event: EventStatus, Message: message}
}

// ResponseEvent carries one generated token.
func ResponseEvent(token string, interactionID string) Event {
	return Event{Event: EventResponse, Token: token, InteractionID: interactionID}
}

// ResponseEndEvent marks the end of a streamed answer. Emitted exactly once
// per interaction, after the transcript write has been issued.
func ResponseEndEvent(interactionID string) Event {
	return Event{Event: EventResponseEnd, Token: EndToken, InteractionID: interactionID}
}

// FailureEvent is the terminal status published when an interaction fails,
// so a listening client never hangs waiting for responseEnd.
func FailureEvent(interactionID string) Event {
	return Event{Event: EventStatus, Message: "error", InteractionID: interactionID}
}

// Publisher pushes events onto a user's delivery channel. Publishing is
// fire-and-forget: there is no acknowledgment or backpressure contract.
type Publisher interface {
	Publish(ctx context.Context, userID string, event Event) error
}

// ChannelName returns the pub/sub channel for a user.
func ChannelName(userID string) string {
	return "docschat:chat:" + userID
}
