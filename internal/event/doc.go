// Package event provides a pub-sub event bus that decouples the game engine
// from the components that observe it.
//
// The engine publishes a [GameEvent] for every history record it appends;
// the console narrator and any other observer subscribe without the engine
// knowing about them. Streamed model output is delivered as
// [StreamChunkEvent] and inference retries as [InferenceRetryEvent].
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and protected against panics;
// a panicking handler is logged and does not prevent delivery to others.
// Stream chunks may be published from fan-out goroutines, so handlers for
// "stream.chunk" must be safe for concurrent use.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.KindSeatDied, func(e event.Event) {
//	    died := e.(event.GameEvent)
//	    fmt.Println("seat died:", died.Payload["seat"])
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - game.started, game.ended, phase.changed
//   - wolves.negotiated, witch.acted, seer.checked, hunter.shot
//   - seat.died, seat.spoke, vote.tallied, fact.recorded
//   - stream.chunk, inference.retry
package event
