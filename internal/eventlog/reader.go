package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// maxLineSize bounds a single log line. Query events carry candidate path
// lists, so lines can get long, but anything past 1MB is garbage and is
// skipped like any other malformed line.
const maxLineSize = 1 << 20

// Scanner lazily yields parsed JSON objects from a line-delimited log file.
//
// A missing file behaves as an empty log: Next returns false immediately and
// Err returns nil. Each line is handled independently; lines that are not
// valid JSON, that parse to a non-object value, or that exceed maxLineSize
// are skipped — one bad line never ends the scan. The sequence is
// single-pass — restart by calling Open again.
type Scanner struct {
	f      *os.File
	r      *bufio.Reader
	record map[string]any
	err    error
	logger *slog.Logger
}

// Open opens the log at path for scanning.
func Open(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Scanner{logger: slog.Default()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &Scanner{f: f, r: bufio.NewReader(f), logger: slog.Default()}, nil
}

// Next advances to the next well-formed record. It returns false when the
// log is exhausted or a read error occurred; check Err after the loop.
func (s *Scanner) Next() bool {
	if s.r == nil || s.err != nil {
		return false
	}
	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			s.err = fmt.Errorf("reading event log: %w", err)
			return false
		}
		eof := err == io.EOF

		if rec, ok := s.parseLine(bytes.TrimSpace(line)); ok {
			s.record = rec
			return true
		}
		if eof {
			return false
		}
	}
}

func (s *Scanner) parseLine(line []byte) (map[string]any, bool) {
	if len(line) == 0 {
		return nil, false
	}
	if len(line) > maxLineSize {
		s.logger.Debug("skipping oversized log line", "bytes", len(line))
		return nil, false
	}
	var rec map[string]any
	if err := json.Unmarshal(line, &rec); err != nil || rec == nil {
		s.logger.Debug("skipping malformed log line", "error", err)
		return nil, false
	}
	return rec, true
}

// Record returns the record produced by the last successful Next.
func (s *Scanner) Record() map[string]any {
	return s.record
}

// Err returns the first genuine read error encountered, if any. Malformed
// lines are not errors.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the underlying file. Safe to call on a missing-file scanner.
func (s *Scanner) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
