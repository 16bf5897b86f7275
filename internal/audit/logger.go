package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry records one protocol command handled by the bridge. Payloads
// are never recorded, only command names and outcomes.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Command   string        `json:"command"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration_ns"`
	Detail    string        `json:"detail,omitempty"`
}

// Logger is an async audit logger that keeps log writes off the
// request path.
type Logger struct {
	entries chan Entry
	out     io.Writer

	mu    sync.RWMutex
	store []Entry

	done chan struct{}
}

// NewLogger creates a logger with the given buffer size and output
// writer. A nil writer keeps entries in memory only.
func NewLogger(bufferSize int, out io.Writer) *Logger {
	l := &Logger{
		entries: make(chan Entry, bufferSize),
		out:     out,
		done:    make(chan struct{}),
	}
	go l.processLoop()
	return l
}

// Log queues an entry. Non-blocking: if the buffer is full the entry is
// dropped with a warning rather than stalling the command loop.
func (l *Logger) Log(command, status string, duration time.Duration, detail string) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Command:   command,
		Status:    status,
		Duration:  duration,
		Detail:    detail,
	}

	select {
	case l.entries <- entry:
	default:
		slog.Warn("audit log buffer full, dropping entry", "command", command)
	}
}

// Query returns stored entries matching the filters, newest first.
// Empty filter strings match everything; limit 0 means no limit.
func (l *Logger) Query(command, status string, limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []Entry
	for i := len(l.store) - 1; i >= 0; i-- {
		e := l.store[i]
		if command != "" && e.Command != command {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		results = append(results, e)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Close stops the processing loop and waits for queued entries to
// drain.
func (l *Logger) Close() {
	close(l.entries)
	<-l.done
}

func (l *Logger) processLoop() {
	defer close(l.done)

	for entry := range l.entries {
		l.mu.Lock()
		l.store = append(l.store, entry)
		l.mu.Unlock()

		if l.out != nil {
			data, err := json.Marshal(entry)
			if err != nil {
				slog.Error("audit marshal", "error", err)
				continue
			}
			fmt.Fprintf(l.out, "%s\n", data)
		}
	}
}
