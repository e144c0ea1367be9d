// Package journal keeps an append-only, zstd-compressed JSONL log of every
// command a session receives.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/klauspost/compress/zstd"

	"finanzstart/internal/game"
)

var ErrClosed = errors.New("journal closed")

var sessionIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ZstdWriter appends one JSON line per entry to <dir>/<session>.jsonl.zst.
// Each Append is flushed through the encoder so the file stays readable if
// the process dies.
type ZstdWriter struct {
	path string

	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	closed bool
}

func NewZstdWriter(dir, sessionID string) (*ZstdWriter, error) {
	if !sessionIDRE.MatchString(sessionID) {
		return nil, fmt.Errorf("journal: bad session id %q", sessionID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, sessionID+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &ZstdWriter{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 32*1024),
	}, nil
}

// Factory adapts NewZstdWriter to game.JournalFactory.
func Factory(dir string) game.JournalFactory {
	return func(sessionID string) (game.Journal, error) {
		return NewZstdWriter(dir, sessionID)
	}
}

func (w *ZstdWriter) Path() string { return w.path }

func (w *ZstdWriter) Append(e game.JournalEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *ZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.w.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.enc.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.f.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ReadAll decodes every entry of a journal file in order.
func ReadAll(path string) ([]game.JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var out []game.JournalEntry
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e game.JournalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("journal %s line %d: %w", filepath.Base(path), line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// Nop discards entries. It is used when no journal directory is configured.
type Nop struct{}

func (Nop) Append(game.JournalEntry) error { return nil }
func (Nop) Close() error                   { return nil }
