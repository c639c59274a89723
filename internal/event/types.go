package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "seat.died", "vote.tallied")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Game event kinds. Each kind is both the history record kind and the
// bus event type.
const (
	KindGameStarted  = "game.started"
	KindPhaseChanged = "phase.changed"
	KindNegotiation  = "wolves.negotiated"
	KindWitchActed   = "witch.acted"
	KindSeerChecked  = "seer.checked"
	KindHunterShot   = "hunter.shot"
	KindSeatDied     = "seat.died"
	KindSeatSpoke    = "seat.spoke"
	KindVoteTallied  = "vote.tallied"
	KindFactRecorded = "fact.recorded"
	KindGameEnded    = "game.ended"
)

// GameEvent carries one entry of a game's history to subscribers.
// Payload values are JSON-friendly (numbers, strings, slices, maps).
type GameEvent struct {
	baseEvent
	GameID  string
	Turn    int
	Kind    string
	Payload map[string]any
}

// NewGameEvent creates a GameEvent stamped with the given time so that bus
// subscribers and the stored history agree on it.
func NewGameEvent(gameID string, turn int, kind string, payload map[string]any, at time.Time) GameEvent {
	return GameEvent{
		baseEvent: baseEvent{eventType: kind, timestamp: at},
		GameID:    gameID,
		Turn:      turn,
		Kind:      kind,
		Payload:   payload,
	}
}

// StreamChunkEvent is emitted for each streamed fragment of a seat's reply.
// Public is set only for statements every seat will hear; private analysis
// fragments leave it false.
type StreamChunkEvent struct {
	baseEvent
	Seat   int
	Chunk  string
	Public bool
}

// NewStreamChunkEvent creates a StreamChunkEvent.
func NewStreamChunkEvent(seat int, chunk string, public bool) StreamChunkEvent {
	return StreamChunkEvent{
		baseEvent: newBaseEvent("stream.chunk"),
		Seat:      seat,
		Chunk:     chunk,
		Public:    public,
	}
}

// InferenceRetryEvent is emitted when a seat's inference call fails and
// will be retried, or has exhausted its retries.
type InferenceRetryEvent struct {
	baseEvent
	Seat      int
	Attempt   int
	Exhausted bool
	Err       string
}

// NewInferenceRetryEvent creates an InferenceRetryEvent.
func NewInferenceRetryEvent(seat, attempt int, exhausted bool, errMsg string) InferenceRetryEvent {
	return InferenceRetryEvent{
		baseEvent: newBaseEvent("inference.retry"),
		Seat:      seat,
		Attempt:   attempt,
		Exhausted: exhausted,
		Err:       errMsg,
	}
}
