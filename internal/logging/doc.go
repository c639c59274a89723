// Package logging provides structured logging for werewolf games.
//
// It wraps Go's log/slog to write JSON lines to {dir}/game.log, one file
// per log directory, rotated by size. Every prompt, raw reply, extracted
// decision and private rationale is logged here; the log is the audit
// trail for a game and is never shown to other seats.
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	gameLog := logger.WithGame(gameID)
//	seatLog := gameLog.WithTurn(2).WithPhase("night").WithSeat(5)
//	seatLog.Debug("generation", "prompt", prompt, "reply", reply)
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"generation","game_id":"...","turn":2,"phase":"night","seat":5,...}
//
// Setting an attribute that is already present replaces it, so a logger
// derived per turn can be re-derived per phase without duplicate keys.
//
// # Rotation
//
// [RotatingWriter] rolls game.log over to game.log.1 .. game.log.N once it
// exceeds RotationConfig.MaxSizeMB. With Compress set, rolled files are
// zstd-compressed in the background to game.log.N.zst.
//
// # Reading Logs Back
//
// [AggregateLogs] parses a log directory, [FilterLogs] narrows the result
// by game, seat, phase, turn or level, and [WriteText] / [WriteJSON]
// render it. The `werewolf logs` command is built on these.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use; seats generating
// in parallel share one Logger.
package logging
