package triplets

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Mode selects how the writer treats existing output.
type Mode string

const (
	// ModeReplace truncates the target file before writing.
	ModeReplace Mode = "replace"
	// ModeAppend leaves existing content untouched and appends.
	ModeAppend Mode = "append"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReplace, ModeAppend:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid output mode %q (want %q or %q)", s, ModeReplace, ModeAppend)
	}
}

// Writer appends triplets to a file as one JSON object per line. No locking
// or atomic rename is performed; a concurrent reader tailing the file may
// observe a partial line.
type Writer struct {
	w *bufio.Writer
	f *os.File
}

// NewWriter opens (creating parent directories as needed) the triplets file
// at path. In replace mode the file is truncated to empty immediately, so an
// empty output file exists even if nothing is ever written.
func NewWriter(path string, mode Mode) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating triplets directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if mode == ModeReplace {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening triplets file: %w", err)
	}
	return &Writer{w: bufio.NewWriter(f), f: f}, nil
}

// Write appends a single triplet line.
func (w *Writer) Write(t Triplet) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshalling triplet: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("writing triplet: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flushing triplets file: %w", err)
	}
	return w.f.Close()
}
