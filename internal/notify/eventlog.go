package notify

import (
	"log/slog"
	"sync"

	"github.com/farmacase/farmacase/internal/model"
)

const (
	DefaultEventLogSize = 100
	DefaultLogsLimit    = 50
)

// Event types written by the engine.
const (
	EventNoHouses   = "no_houses"
	EventNoUsers    = "no_users"
	EventWeeklySent = "weekly_sent"
	EventTestSent   = "test_sent"
	EventTestFailed = "test_failed"
)

type Event = model.NotificationEvent

// EventSink stores events outside the process.
type EventSink interface {
	AppendEvent(e model.NotificationEvent, keep int) error
	RecentEvents(limit int) ([]model.NotificationEvent, error)
}

// EventLog is a bounded ring buffer of engine events. When full, the oldest
// entry is overwritten. With a sink, every event is also written through so
// the log survives a restart.
type EventLog struct {
	mu      sync.Mutex
	entries []Event
	next    int
	full    bool
	sink    EventSink
	logger  *slog.Logger
}

func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}
	return &EventLog{entries: make([]Event, size)}
}

// RestoreEventLog returns a log backed by sink, preloaded with the events
// the sink already holds.
func RestoreEventLog(size int, sink EventSink, logger *slog.Logger) (*EventLog, error) {
	l := NewEventLog(size)
	stored, err := sink.RecentEvents(len(l.entries))
	if err != nil {
		return nil, err
	}
	for i := len(stored) - 1; i >= 0; i-- {
		l.push(stored[i])
	}
	l.sink = sink
	l.logger = logger
	return l, nil
}

// Append adds e to the log. A failed write to the sink is logged and the
// event is kept in memory.
func (l *EventLog) Append(e Event) {
	l.mu.Lock()
	l.push(e)
	size := len(l.entries)
	l.mu.Unlock()

	if l.sink == nil {
		return
	}
	if err := l.sink.AppendEvent(e, size); err != nil && l.logger != nil {
		l.logger.Error("persist notification event", "type", e.Type, "error", err)
	}
}

func (l *EventLog) push(e Event) {
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Recent returns up to limit events, most recent first.
func (l *EventLog) Recent(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}
