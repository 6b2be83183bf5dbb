package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan    EventType = "scan"
	EventHash    EventType = "hash"
	EventIndex   EventType = "index"
	EventGroup   EventType = "group"
	EventPlan    EventType = "plan"
	EventBlock   EventType = "block"
	EventDelete  EventType = "delete"
	EventUnlink  EventType = "unlink"
	EventPrune   EventType = "prune"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single audit event. Every destructive decision the
// deletion engine makes is written here so a batch can be reconstructed
// after the fact.
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	BookID    int64             `json:"book_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	GroupKey  string            `json:"group_key,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Bytes     int64             `json:"bytes,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogScan logs a catalog import event
func (l *EventLogger) LogScan(bookID int64, path string, sizeBytes int64) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventScan,
		BookID: bookID,
		Path:   path,
		Bytes:  sizeBytes,
	})
}

// LogHash logs a content-hash backfill event
func (l *EventLogger) LogHash(bookID int64, path, hash string, err error) error {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:  level,
		Event:  EventHash,
		BookID: bookID,
		Path:   path,
		Error:  errMsg,
		Extra: map[string]string{
			"content_hash": hash,
		},
	})
}

// LogGroup logs a duplicate group discovery event
func (l *EventLogger) LogGroup(groupKey, mode string, memberCount int, wastedBytes int64) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventGroup,
		GroupKey: groupKey,
		Mode:     mode,
		Bytes:    wastedBytes,
		Extra: map[string]string{
			"member_count": fmt.Sprintf("%d", memberCount),
		},
	})
}

// LogPlan logs a planner decision for one requested record
func (l *EventLogger) LogPlan(bookID int64, path, mode string, safe bool, reason string) error {
	event := EventPlan
	level := LevelInfo
	if !safe {
		event = EventBlock
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:  level,
		Event:  event,
		BookID: bookID,
		Path:   path,
		Mode:   mode,
		Reason: reason,
	})
}

// LogDelete logs a committed catalog deletion
func (l *EventLogger) LogDelete(bookID int64, path string, sizeBytes int64) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventDelete,
		BookID: bookID,
		Path:   path,
		Bytes:  sizeBytes,
	})
}

// LogUnlink logs a filesystem removal attempt
func (l *EventLogger) LogUnlink(path string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventUnlink,
		Path:  path,
		Error: errMsg,
	})
}

// LogPrune logs a checksum-index pruning pass
func (l *EventLogger) LogPrune(indexPath string, removed int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventPrune,
		Path:  indexPath,
		Error: errMsg,
		Extra: map[string]string{
			"lines_removed": fmt.Sprintf("%d", removed),
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
