package historical

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileSink appends every published entity to a newline-delimited JSON
// file, the same NDJSON shape S3Archiver rotates into cold storage. It
// implements fabric.Connector[T].
type FileSink[T any] struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileSink opens (creating if necessary, appending if present) path
// for NDJSON writes.
func NewFileSink[T any](path string) (*FileSink[T], error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("historical: open file sink %s: %w", path, err)
	}
	return &FileSink[T]{file: f, enc: json.NewEncoder(f)}, nil
}

// Publish writes v as one NDJSON line.
func (s *FileSink[T]) Publish(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(v)
}

// Close releases the underlying file handle.
func (s *FileSink[T]) Close() error {
	return s.file.Close()
}
