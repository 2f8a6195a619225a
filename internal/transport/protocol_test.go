package transport

import (
	"bufio"
	"io"
	"net"
	"testing"
)

func TestFeedReaderDrivesRequestResponseUntilEOF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		sr := bufio.NewReader(server)
		readLine := func() string {
			line, _ := sr.ReadString('\n')
			return trimLine(line)
		}
		if got := readLine(); got != "prices.txt" {
			t.Errorf("expected initial file-name line, got %q", got)
		}
		writeLine(server, "91282CAX9,99-311,2")
		if got := readLine(); got != "prices.txt" {
			t.Errorf("expected repeated file-name token, got %q", got)
		}
		writeLine(server, "91282CBA8,100-000,0")
		if got := readLine(); got != "prices.txt" {
			t.Errorf("expected repeated file-name token, got %q", got)
		}
		writeLine(server, eof)
	}()

	reader := NewFeedReader(client, "prices.txt")
	if err := reader.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var lines []string
	for {
		line, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		lines = append(lines, line)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(lines), lines)
	}
}

func TestFeedWriterSendsRecordsAndAcksAndEOF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	received := make(chan string, 4)
	go func() {
		sr := bufio.NewReader(server)
		readLine := func() string {
			line, _ := sr.ReadString('\n')
			return trimLine(line)
		}

		name := readLine() // "positions.txt"
		received <- name
		writeLine(server, success)

		rec := readLine()
		received <- rec
		writeLine(server, success)

		end := readLine() // EOF
		received <- end
	}()

	writer := NewFeedWriter(client, "positions.txt")
	if err := writer.Publish("1,91282CAX9,0,0,0,0"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := <-received; got != "positions.txt" {
		t.Fatalf("expected open line, got %q", got)
	}
	if got := <-received; got != "1,91282CAX9,0,0,0,0" {
		t.Fatalf("unexpected record line %q", got)
	}
	if got := <-received; got != eof {
		t.Fatalf("expected EOF teardown, got %q", got)
	}
}
