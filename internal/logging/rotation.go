package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// compressedExt is appended to rotated backups when compression is enabled.
const compressedExt = ".zst"

// RotationConfig controls when game.log rolls over.
type RotationConfig struct {
	// MaxSizeMB is the size that triggers rotation. 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rolled files to keep.
	MaxBackups int
	// Compress zstd-compresses rolled files.
	Compress bool
}

// DefaultRotationConfig keeps three 10 MB backups, uncompressed.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter appends to a file and rolls it over to numbered backups
// once a write would push it past the size limit. Backups run from .1
// (newest) to .N (oldest). It is safe for concurrent use.
type RotatingWriter struct {
	path  string
	limit int64
	cfg   RotationConfig

	mu   sync.Mutex
	file *os.File
	size int64

	// compressions tracks background backup compression. compressErr holds
	// the first failure and is reported by Close.
	compressions sync.WaitGroup
	errMu        sync.Mutex
	compressErr  error
}

// NewRotatingWriter opens path for appending, creating its directory.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:  path,
		limit: int64(cfg.MaxSizeMB) << 20,
		cfg:   cfg,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.file, rw.size = f, info.Size()
	return nil
}

// Write appends p, rolling the file over first when p would overflow it.
// A failed rollover keeps writing to whatever file is open.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, errors.New("log file is closed")
	}
	if rw.limit > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rollover(); err != nil && rw.file == nil {
			return 0, err
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// rollover must be called with mu held.
func (rw *RotatingWriter) rollover() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.file = nil

	if rw.cfg.MaxBackups <= 0 {
		_ = os.Remove(rw.path)
		return rw.open()
	}

	rw.shiftBackups()
	newest := rw.backup(1)
	if err := os.Rename(rw.path, newest); err != nil {
		return errors.Join(fmt.Errorf("failed to roll log file: %w", err), rw.open())
	}
	if rw.cfg.Compress {
		rw.compressions.Add(1)
		go func() {
			defer rw.compressions.Done()
			if err := compress(newest); err != nil {
				rw.errMu.Lock()
				if rw.compressErr == nil {
					rw.compressErr = err
				}
				rw.errMu.Unlock()
			}
		}()
	}
	return rw.open()
}

// shiftBackups renames .i to .i+1 from the oldest down, dropping the
// backup that falls off the end.
func (rw *RotatingWriter) shiftBackups() {
	last := rw.backup(rw.cfg.MaxBackups)
	_ = os.Remove(last)
	_ = os.Remove(last + compressedExt)

	for i := rw.cfg.MaxBackups - 1; i >= 1; i-- {
		for _, ext := range []string{compressedExt, ""} {
			from := rw.backup(i) + ext
			if _, err := os.Stat(from); err == nil {
				_ = os.Rename(from, rw.backup(i+1)+ext)
				break
			}
		}
	}
}

func (rw *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// compress replaces path with path.zst. On failure the plain backup stays.
func compress(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	dstPath := path + compressedExt
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}

	enc, err := zstd.NewWriter(dst)
	if err == nil {
		_, err = io.Copy(enc, src)
		err = errors.Join(err, enc.Close())
	}
	err = errors.Join(err, dst.Close())
	if err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return os.Remove(path)
}

// Close syncs and closes the file, then waits for background compression.
// It reports the first compression failure. Closing twice is a no-op.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	var err error
	if rw.file != nil {
		err = errors.Join(rw.file.Sync(), rw.file.Close())
		rw.file = nil
	}
	rw.mu.Unlock()

	rw.compressions.Wait()
	rw.errMu.Lock()
	defer rw.errMu.Unlock()
	err = errors.Join(err, rw.compressErr)
	rw.compressErr = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Size returns the current size of the log file in bytes.
func (rw *RotatingWriter) Size() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}
