// Package writer holds the convergence-report sinks used by the test
// harness, mirroring the teacher's client/tester/writer package: a
// CSV-backed Writer for real runs and a Nop implementation for dry runs.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer records one convergence-report row per router.
type Writer interface {
	WriteRow(router string, converged bool, elapsed time.Duration) error
	Close() error
}

// NopWriter discards every row.
type NopWriter struct{}

func (NopWriter) WriteRow(string, bool, time.Duration) error { return nil }
func (NopWriter) Close() error                               { return nil }

// CSVWriter appends convergence rows to a CSV file, creating it (with a
// header) if it does not already exist.
type CSVWriter struct {
	mu      sync.Mutex
	file    *os.File
	writer  *csv.Writer
	flushed bool
}

// NewCSVWriter opens (or creates) filename for append, writing the header
// row only if the file is new.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory %q: %w", dir, err)
	}

	fileExists := false
	if _, err := os.Stat(filename); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open csv file: %w", err)
	}

	w := csv.NewWriter(file)
	if !fileExists {
		header := []string{"timestamp", "router", "converged", "elapsed_ms"}
		if err := w.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("cannot write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: file, writer: w}, nil
}

// WriteRow appends one convergence result for router.
func (cw *CSVWriter) WriteRow(router string, converged bool, elapsed time.Duration) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.flushed {
		return fmt.Errorf("cannot write: writer already closed")
	}

	record := []string{
		time.Now().Format(time.RFC3339Nano),
		router,
		fmt.Sprintf("%t", converged),
		fmt.Sprintf("%.3f", float64(elapsed.Milliseconds())),
	}
	if err := cw.writer.Write(record); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.flushed {
		return nil
	}
	cw.writer.Flush()
	cw.flushed = true
	if err := cw.writer.Error(); err != nil {
		_ = cw.file.Close()
		return fmt.Errorf("flush error: %w", err)
	}
	return cw.file.Close()
}
