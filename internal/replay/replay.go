// Package replay persists finished games as self-contained JSON records.
//
// A replay carries the redacted configuration, the full history, the
// winner and per-seat inference statistics. Files are named
// replay_<timestamp>_<game id>.json, with a .zst suffix when compressed.
package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/werewolf/internal/config"
	werrors "github.com/Iron-Ham/werewolf/internal/errors"
	"github.com/Iron-Ham/werewolf/internal/game"
	"github.com/Iron-Ham/werewolf/internal/retry"
)

// Version is the record format written by this package.
const Version = 1

const (
	filePrefix     = "replay_"
	jsonExt        = ".json"
	compressedExt  = ".zst"
	timestampStyle = "20060102_150405"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Record is one finished game.
type Record struct {
	Version   int               `json:"version"`
	GameID    string            `json:"game_id"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Winner    string            `json:"winner"`
	Turns     int               `json:"turns"`
	Roles     map[int]string    `json:"roles"`
	Facts     []string          `json:"facts"`
	Config    map[string]any    `json:"config"`
	History   []game.Record     `json:"history"`
	Inference []retry.SeatState `json:"inference,omitempty"`
	// Canceled marks a game interrupted before it ended; Winner is empty.
	Canceled bool `json:"canceled,omitempty"`
}

// New builds a record from a game result. The config is redacted and
// stored in its YAML shape so keys match the config file.
func New(cfg *config.Config, res game.Result, stats []retry.SeatState, started, ended time.Time) (Record, error) {
	snapshot, err := Snapshot(cfg)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Version:   Version,
		GameID:    res.GameID,
		StartedAt: started,
		EndedAt:   ended,
		Winner:    string(res.Winner),
		Turns:     res.Turns,
		Roles:     res.Roles,
		Facts:     res.Facts,
		Config:    snapshot,
		History:   res.History,
		Inference: stats,
	}, nil
}

// Snapshot renders the redacted config as a generic map keyed like the
// YAML file.
func Snapshot(cfg *config.Config) (map[string]any, error) {
	if cfg == nil {
		return nil, nil
	}
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return nil, fmt.Errorf("marshal config snapshot: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal config snapshot: %w", err)
	}
	return out, nil
}

// FileName returns the replay file name for a game ended at the given time.
func FileName(gameID string, at time.Time, compress bool) string {
	name := filePrefix + at.Format(timestampStyle) + "_" + gameID + jsonExt
	if compress {
		name += compressedExt
	}
	return name
}

// Write encodes the record to w, zstd-compressed when compress is set.
func Write(w io.Writer, rec Record, compress bool) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal replay: %w", err)
	}
	if !compress {
		_, err = w.Write(data)
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write compressed replay: %w", err)
	}
	return enc.Close()
}

// Save writes the record into dir and returns the file path. The write is
// atomic: data goes to a temporary file that is then renamed into place.
func Save(dir string, rec Record, compress bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create replay directory: %w", err)
	}

	target := filepath.Join(dir, FileName(rec.GameID, rec.EndedAt, compress))
	tmp := target + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if err := Write(f, rec, compress); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return target, nil
}

// Read decodes a record, detecting zstd compression from the frame magic.
func Read(r io.Reader) (Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Record{}, fmt.Errorf("read replay: %w", err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return Record{}, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return Record{}, werrors.Wrap(werrors.ErrReplayCorrupted, err.Error())
		}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, werrors.Wrap(werrors.ErrReplayCorrupted, err.Error())
	}
	if rec.Version == 0 || rec.GameID == "" {
		return Record{}, werrors.Wrap(werrors.ErrReplayCorrupted, "missing version or game id")
	}
	return rec, nil
}

// Load reads a replay file from disk.
func Load(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open replay: %w", err)
	}
	defer func() { _ = f.Close() }()

	rec, err := Read(f)
	if err != nil {
		return Record{}, werrors.Wrapf(err, "replay %s", filepath.Base(path))
	}
	return rec, nil
}

// List returns the replay files in dir, newest name first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read replay directory: %w", err)
	}

	var files []string
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		if entries[i].IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if strings.HasSuffix(name, jsonExt) || strings.HasSuffix(name, jsonExt+compressedExt) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}
