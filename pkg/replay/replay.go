// Package replay stores the frames of a run as zstd-compressed JSON lines:
// a header line followed by one line per frame.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rustyscript/rustyscript/pkg/sandbox"
)

// Ext is the file extension of replay files.
const Ext = ".jsonl.zst"

// Header describes the run.
type Header struct {
	RunID   string    `json:"run_id"`
	Level   string    `json:"level"`
	Code    string    `json:"code"`
	Win     bool      `json:"win"`
	Ticks   int       `json:"ticks"`
	Frames  int       `json:"frames"`
	Created time.Time `json:"created"`
}

type entry struct {
	Index int           `json:"i"`
	Frame sandbox.Frame `json:"frame"`
}

// Replay is a header plus its frames.
type Replay struct {
	Header
	Frames []sandbox.Frame
}

// Writer appends JSON lines to a zstd stream.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens path for writing, creating parent directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Write appends v as one line.
func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes and closes the stream.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	errFlush := w.w.Flush()
	errEnc := w.enc.Close()
	errFile := w.f.Close()
	return errors.Join(errFlush, errEnc, errFile)
}

// Path is the file of runID under dir.
func Path(dir, runID string) string {
	return filepath.Join(dir, runID+Ext)
}

// Save writes r to dir and returns the file path.
func Save(dir string, r *Replay) (string, error) {
	path := Path(dir, r.RunID)
	w, err := Create(path)
	if err != nil {
		return "", err
	}
	h := r.Header
	h.Frames = len(r.Frames)
	if err := w.Write(h); err != nil {
		w.Close()
		return "", err
	}
	for i, f := range r.Frames {
		if err := w.Write(entry{Index: i, Frame: f}); err != nil {
			w.Close()
			return "", err
		}
	}
	return path, w.Close()
}

// Load reads a replay file.
func Load(path string) (*Replay, error) {
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
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%s: empty replay", path)
	}
	r := &Replay{}
	if err := json.Unmarshal(sc.Bytes(), &r.Header); err != nil {
		return nil, fmt.Errorf("%s: header: %w", path, err)
	}
	for sc.Scan() {
		var e entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: frame %d: %w", path, len(r.Frames), err)
		}
		if e.Index != len(r.Frames) {
			return nil, fmt.Errorf("%s: frame %d out of order (got %d)", path, len(r.Frames), e.Index)
		}
		r.Frames = append(r.Frames, e.Frame)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(r.Frames) != r.Header.Frames {
		return nil, fmt.Errorf("%s: header announces %d frames, file has %d", path, r.Header.Frames, len(r.Frames))
	}
	return r, nil
}
