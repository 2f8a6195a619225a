package transport

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// eof is the literal end-of-stream sentinel on every inbound feed, and
// the teardown signal every outbound connector emits to its sink.
const eof = "EOF"

const success = "success"

// FeedReader drives one inbound feed over the line-oriented
// request/response protocol: send a file-name line, read one record per
// request, send the same file-name token again to ask for the next
// record, until the server replies EOF.
type FeedReader struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	name   string
}

// NewFeedReader constructs a FeedReader over rw for the named feed file
// (e.g. "prices.txt").
func NewFeedReader(rw io.ReadWriter, name string) *FeedReader {
	return &FeedReader{rw: rw, reader: bufio.NewReader(rw), name: name}
}

// Open sends the initial file-name line that starts the feed.
func (r *FeedReader) Open() error {
	return writeLine(r.rw, r.name)
}

// Next requests and returns the next record line, or io.EOF once the
// server replies with the EOF sentinel.
func (r *FeedReader) Next() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("transport: read %s: %w", r.name, err)
	}
	line = trimLine(line)
	if line == eof {
		return "", io.EOF
	}
	if err := writeLine(r.rw, r.name); err != nil {
		return "", fmt.Errorf("transport: request next %s record: %w", r.name, err)
	}
	return line, nil
}

// FeedWriter drives one outbound feed: send a file-name line, wait for
// "success", then for each record send the line and wait for "success"
// again; Close sends EOF.
type FeedWriter struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	name   string
	opened bool
}

// NewFeedWriter constructs a FeedWriter over rw for the named feed file.
func NewFeedWriter(rw io.ReadWriter, name string) *FeedWriter {
	return &FeedWriter{rw: rw, reader: bufio.NewReader(rw), name: name}
}

func (w *FeedWriter) ensureOpen() error {
	if w.opened {
		return nil
	}
	if err := writeLine(w.rw, w.name); err != nil {
		return err
	}
	if err := w.expect(success); err != nil {
		return err
	}
	w.opened = true
	return nil
}

// Publish implements fabric.Connector[string] for any record already
// encoded to its wire line.
func (w *FeedWriter) Publish(line string) error {
	if err := w.ensureOpen(); err != nil {
		return fmt.Errorf("transport: open %s: %w", w.name, err)
	}
	if err := writeLine(w.rw, line); err != nil {
		return fmt.Errorf("transport: write %s record: %w", w.name, err)
	}
	return w.expect(success)
}

// Close sends the EOF teardown sentinel.
func (w *FeedWriter) Close() error {
	return writeLine(w.rw, eof)
}

func (w *FeedWriter) expect(want string) error {
	line, err := w.reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("transport: %w", err)
	}
	line = trimLine(line)
	if line != want {
		return fmt.Errorf("transport: expected %q, got %q", want, line)
	}
	return nil
}

func writeLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\n")
	return err
}

func trimLine(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// CorrelationID mints a fresh random correlation id (a UUID string) for
// transport diagnostics. It is not part of the wire format, which has no
// id field, and no caller in this module uses it.
func CorrelationID() string {
	return uuid.NewString()
}
