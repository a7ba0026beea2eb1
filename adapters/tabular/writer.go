package tabular

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// CSVDirSink writes each table to <dir>/<name>.csv
type CSVDirSink struct {
	dir string

	mu      sync.Mutex
	written []string
}

// NewCSVDirSink creates the directory if needed
func NewCSVDirSink(dir string) (*CSVDirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	return &CSVDirSink{dir: dir}, nil
}

// WriteTable writes one table atomically (temp file + rename)
func (s *CSVDirSink) WriteTable(ctx context.Context, name string, headers []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file := name + ".csv"
	if err := WriteCSVFile(filepath.Join(s.dir, file), headers, rows); err != nil {
		return err
	}
	s.mu.Lock()
	s.written = append(s.written, file)
	s.mu.Unlock()
	return nil
}

// Files lists the files written so far, sorted
func (s *CSVDirSink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.written...)
	sort.Strings(out)
	return out
}

// Close is a no-op; each table is flushed as it is written
func (s *CSVDirSink) Close() error {
	return nil
}

// WriteCSVFile writes headers and rows to path with LF line endings
func WriteCSVFile(path string, headers []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	w := csv.NewWriter(buf)
	if err := w.Write(headers); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close CSV: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move CSV into place: %w", err)
	}
	return nil
}
