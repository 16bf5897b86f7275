package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// Tests use logger.Close() to drain entries instead of time.Sleep,
// ensuring deterministic behavior with the race detector.

func TestLogAndQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(100, &buf)

	logger.Log("SIGN", "OK", time.Millisecond, "")
	logger.Log("VERIFY", "OK", time.Millisecond, "")
	logger.Log("SIGN", "ERROR", time.Millisecond, "signing unavailable")

	// Close drains the channel and waits for the loop to finish.
	logger.Close()

	entries := logger.Query("SIGN", "", 0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 SIGN entries, got %d", len(entries))
	}

	entries = logger.Query("", "ERROR", 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ERROR entry, got %d", len(entries))
	}
	if entries[0].Detail != "signing unavailable" {
		t.Fatalf("unexpected detail: %q", entries[0].Detail)
	}

	// Safe to read buf now - processLoop has exited.
	if !strings.Contains(buf.String(), "VERIFY") {
		t.Fatal("expected VERIFY in output")
	}
}

func TestQueryLimit(t *testing.T) {
	logger := NewLogger(100, nil)

	for i := 0; i < 10; i++ {
		logger.Log("SIGN", "OK", 0, "")
	}
	logger.Close()

	entries := logger.Query("", "", 3)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestBufferOverflowDrops(t *testing.T) {
	logger := NewLogger(1, nil)

	// More entries than buffer capacity; the logger must not block.
	for i := 0; i < 50; i++ {
		logger.Log("PUBKEY", "OK", 0, "")
	}
	logger.Close()

	if len(logger.Query("", "", 0)) == 0 {
		t.Fatal("expected at least one stored entry")
	}
}

func TestEntriesHaveUniqueIDs(t *testing.T) {
	logger := NewLogger(10, nil)
	logger.Log("SIGN", "OK", 0, "")
	logger.Log("SIGN", "OK", 0, "")
	logger.Close()

	entries := logger.Query("", "", 0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID == entries[1].ID {
		t.Fatal("entry IDs should be unique")
	}
}
