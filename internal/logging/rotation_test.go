package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logPath, []byte("initial\n"), 0644); err != nil {
			t.Fatalf("failed to write initial content: %v", err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		if rw.Size() != int64(len("initial\n")) {
			t.Errorf("Size() = %d, want %d", rw.Size(), len("initial\n"))
		}
		if _, err := rw.Write([]byte("more\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		_ = rw.Close()

		content, _ := os.ReadFile(logPath)
		if string(content) != "initial\nmore\n" {
			t.Errorf("content = %q, want %q", content, "initial\nmore\n")
		}
	})
}

// smallWriter returns a writer whose limit is a few bytes so tests can
// trigger rotation without writing megabytes.
func smallWriter(t *testing.T, backups int, compress bool) (*RotatingWriter, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "game.log")
	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: backups, Compress: compress})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.limit = 10
	return rw, logPath
}

func TestRotatingWriter_Rotates(t *testing.T) {
	rw, logPath := smallWriter(t, 2, false)

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		if _, err := rw.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	_ = rw.Close()

	current, _ := os.ReadFile(logPath)
	if string(current) != "dddddddd\n" {
		t.Errorf("current = %q, want %q", current, "dddddddd\n")
	}
	b1, _ := os.ReadFile(logPath + ".1")
	if string(b1) != "cccccccc\n" {
		t.Errorf(".1 = %q, want %q", b1, "cccccccc\n")
	}
	b2, _ := os.ReadFile(logPath + ".2")
	if string(b2) != "bbbbbbbb\n" {
		t.Errorf(".2 = %q, want %q", b2, "bbbbbbbb\n")
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("expected no .3 backup with MaxBackups=2")
	}
}

func TestRotatingWriter_NoBackups(t *testing.T) {
	rw, logPath := smallWriter(t, 0, false)

	_, _ = rw.Write([]byte("aaaaaaaa\n"))
	_, _ = rw.Write([]byte("bbbbbbbb\n"))
	_ = rw.Close()

	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Error("expected no backup with MaxBackups=0")
	}
	current, _ := os.ReadFile(logPath)
	if string(current) != "bbbbbbbb\n" {
		t.Errorf("current = %q, want %q", current, "bbbbbbbb\n")
	}
}

func TestRotatingWriter_Compress(t *testing.T) {
	rw, logPath := smallWriter(t, 1, true)

	_, _ = rw.Write([]byte("aaaaaaaa\n"))
	_, _ = rw.Write([]byte("bbbbbbbb\n"))
	// Close waits for background compression.
	_ = rw.Close()

	data, err := os.ReadFile(logPath + ".1" + compressedExt)
	if err != nil {
		t.Fatalf("expected compressed backup: %v", err)
	}
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("zstd.NewReader failed: %v", err)
	}
	defer dec.Close()

	var out strings.Builder
	if _, err := dec.WriteTo(&out); err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	if out.String() != "aaaaaaaa\n" {
		t.Errorf("decompressed = %q, want %q", out.String(), "aaaaaaaa\n")
	}
	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Error("expected uncompressed backup to be removed")
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	rw, _ := smallWriter(t, 1, false)
	_ = rw.Close()

	if _, err := rw.Write([]byte("x")); err == nil {
		t.Error("expected error writing to closed writer")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}
