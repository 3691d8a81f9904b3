package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SampleEntry is one computed frame, serialized as a JSON line in
// samples.jsonl while a run progresses.
type SampleEntry struct {
	// Label is the series the frame belongs to
	Label string `json:"label"`

	// Frame is the frame number parsed from the file name
	Frame int `json:"frame"`

	// MSE is the frame's error against the reference
	MSE float64 `json:"mse"`

	// Timestamp records when the sample was computed
	Timestamp time.Time `json:"timestamp"`
}

func samplesPath(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID, "samples.jsonl")
}

// SampleWriter appends sample entries to a JSONL file.
// It uses buffered I/O and is safe for concurrent use.
type SampleWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewSampleWriter creates the sample log at <baseDir>/runs/<runID>/samples.jsonl.
// If append is true, new entries are appended to an existing file.
func NewSampleWriter(baseDir, runID string, append bool) (*SampleWriter, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}
	path := samplesPath(baseDir, runID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	var file *os.File
	var err error
	if append {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open sample log: %w", err)
	}

	return &SampleWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write buffers an entry; it reaches disk on Flush or Close.
func (sw *SampleWriter) Write(entry SampleEntry) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal sample entry: %w", err)
	}

	if _, err := sw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write sample entry: %w", err)
	}
	if err := sw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// Flush writes buffered data and syncs the file.
func (sw *SampleWriter) Flush() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if err := sw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush sample writer: %w", err)
	}
	if err := sw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync sample log: %w", err)
	}

	return nil
}

// Close flushes buffered data and closes the file.
func (sw *SampleWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if err := sw.writer.Flush(); err != nil {
		sw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := sw.file.Close(); err != nil {
		return fmt.Errorf("failed to close sample log: %w", err)
	}

	return nil
}

// Path returns the filesystem path to the sample log.
func (sw *SampleWriter) Path() string {
	return sw.path
}

// SampleReader reads sample entries from a JSONL file.
type SampleReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewSampleReader opens the sample log of the given run.
func NewSampleReader(baseDir, runID string) (*SampleReader, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}
	file, err := os.Open(samplesPath(baseDir, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{RunID: runID}
		}
		return nil, fmt.Errorf("failed to open sample log: %w", err)
	}

	return &SampleReader{
		file:    file,
		scanner: bufio.NewScanner(file),
	}, nil
}

// Read returns the next entry, or io.EOF when none are left.
func (sr *SampleReader) Read() (*SampleEntry, error) {
	if !sr.scanner.Scan() {
		if err := sr.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan sample line: %w", err)
		}
		return nil, io.EOF
	}

	var entry SampleEntry
	if err := json.Unmarshal(sr.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sample entry: %w", err)
	}

	return &entry, nil
}

// ReadAll reads all remaining entries.
func (sr *SampleReader) ReadAll() ([]SampleEntry, error) {
	var entries []SampleEntry

	for {
		entry, err := sr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Close closes the sample reader.
func (sr *SampleReader) Close() error {
	if err := sr.file.Close(); err != nil {
		return fmt.Errorf("failed to close sample log: %w", err)
	}
	return nil
}
