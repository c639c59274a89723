package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// LogEntry represents a parsed log entry with all structured fields.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	GameID    string         `json:"game_id,omitempty"`
	Seat      int            `json:"seat,omitempty"`
	Phase     string         `json:"phase,omitempty"`
	Turn      int            `json:"turn,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter defines criteria for filtering log entries.
// Zero-valued fields do not filter.
type LogFilter struct {
	// Level keeps entries at or above this level (DEBUG < INFO < WARN < ERROR).
	Level string
	// GameID keeps entries from one game.
	GameID string
	// Seat keeps entries attributed to one seat.
	Seat int
	// Phase keeps entries from one phase.
	Phase string
	// Turn keeps entries from one turn.
	Turn int
	// MessageContains keeps entries whose message contains this substring.
	MessageContains string
}

// AggregateLogs reads every entry of {dir}/game.log and its rotated
// backups, decompressing .zst backups. Entries are returned sorted by
// timestamp in ascending order. Lines that are not valid JSON are skipped.
func AggregateLogs(dir string) ([]LogEntry, error) {
	current := filepath.Join(dir, LogFileName)
	if _, err := os.Stat(current); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no game log found in %s: %w", dir, err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	backups, _ := filepath.Glob(current + ".*")
	var entries []LogEntry
	for _, path := range append(backups, current) {
		part, err := readLogFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, part...)
	}
	sortByTime(entries)
	return entries, nil
}

func readLogFile(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if !strings.HasSuffix(path, compressedExt) {
		return ParseLogs(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", filepath.Base(path), err)
	}
	defer dec.Close()
	return ParseLogs(dec)
}

// ParseLogs parses JSON log lines from r, sorted by timestamp.
func ParseLogs(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(r)

	// Prompts logged at DEBUG can be long
	const maxLine = 1 << 20
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if entry, err := parseLogEntry(line); err == nil {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sortByTime(entries)
	return entries, nil
}

func sortByTime(entries []LogEntry) {
	slices.SortStableFunc(entries, func(a, b LogEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}

	if s, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			entry.Timestamp = t
		}
	}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	entry.GameID, _ = raw["game_id"].(string)
	entry.Phase, _ = raw["phase"].(string)
	if v, ok := raw["seat"].(float64); ok {
		entry.Seat = int(v)
	}
	if v, ok := raw["turn"].(float64); ok {
		entry.Turn = int(v)
	}

	for k, v := range raw {
		switch k {
		case "time", "level", "msg", "game_id", "seat", "phase", "turn":
		default:
			entry.Attrs[k] = v
		}
	}

	return entry, nil
}

// FilterLogs returns the entries matching every criterion in filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if filter == (LogFilter{}) {
		return entries
	}

	var filtered []LogEntry
	for _, entry := range entries {
		if matchesFilter(entry, filter) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func matchesFilter(entry LogEntry, filter LogFilter) bool {
	if filter.Level != "" {
		want, wantOk := slogLevels[strings.ToUpper(filter.Level)]
		got, gotOk := slogLevels[entry.Level]
		if wantOk && gotOk && got < want {
			return false
		}
	}
	switch {
	case filter.GameID != "" && entry.GameID != filter.GameID,
		filter.Seat != 0 && entry.Seat != filter.Seat,
		filter.Phase != "" && entry.Phase != filter.Phase,
		filter.Turn != 0 && entry.Turn != filter.Turn,
		filter.MessageContains != "" && !strings.Contains(entry.Message, filter.MessageContains):
		return false
	}
	return true
}

// WriteText writes entries in a human-readable one-line-per-entry format:
//
//	[15:04:05.000] INFO - message (turn=1, phase=night, seat=3) {"attrs":...}
func WriteText(w io.Writer, entries []LogEntry) error {
	for _, entry := range entries {
		parts := []string{
			fmt.Sprintf("[%s]", entry.Timestamp.Format("15:04:05.000")),
			entry.Level,
			"-",
			entry.Message,
		}

		var ctx []string
		if entry.Turn != 0 {
			ctx = append(ctx, fmt.Sprintf("turn=%d", entry.Turn))
		}
		if entry.Phase != "" {
			ctx = append(ctx, fmt.Sprintf("phase=%s", entry.Phase))
		}
		if entry.Seat != 0 {
			ctx = append(ctx, fmt.Sprintf("seat=%d", entry.Seat))
		}
		if len(ctx) > 0 {
			parts = append(parts, fmt.Sprintf("(%s)", strings.Join(ctx, ", ")))
		}

		if len(entry.Attrs) > 0 {
			attrsJSON, _ := json.Marshal(entry.Attrs)
			parts = append(parts, string(attrsJSON))
		}

		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []LogEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
