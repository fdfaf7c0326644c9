// Package log provides structured event logging.
// Events are written as JSON lines through zap into a size-rotated file;
// the terminal belongs to the TUI, so nothing is ever logged to stdout.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Event type constants.
const (
	EventHydrated           = "hydrated"
	EventLoginSucceeded     = "login_succeeded"
	EventLoginFailed        = "login_failed"
	EventRegistered         = "registered"
	EventLogout             = "logout"
	EventSessionInvalidated = "session_invalidated"
	EventRequestCompleted   = "request_completed"
	EventRequestFailed      = "request_failed"
	EventAlbumLoaded        = "album_loaded"
	EventAlbumLoadFailed    = "album_load_failed"
	EventUploadCompleted    = "upload_completed"
	EventSpeechFailed       = "speech_failed"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time       time.Time              `json:"time"`
	Level      string                 `json:"level,omitempty"`
	Event      string                 `json:"event"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Status     int                    `json:"status,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	Folder     string                 `json:"folder,omitempty"`
	Error      string                 `json:"error,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Rotation controls lumberjack file rotation.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes append-only JSONL events to a rotated log file.
type Logger struct {
	zl     *zap.Logger
	path   string
	closer func() error
}

// NewLogger creates a Logger that writes to path, creating its directory.
// Does not truncate an existing log file.
func NewLogger(path string, rot Rotation) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   true,
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		zap.DebugLevel,
	)

	return &Logger{
		zl:     zap.New(core),
		path:   path,
		closer: rotator.Close,
	}, nil
}

// NewNop returns a Logger that discards everything. ReadAll returns no events.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Path returns the log file path, or "" for a no-op logger.
func (l *Logger) Path() string {
	return l.path
}

// Append writes a single LogEvent as one JSON line.
// If event.Time is the zero value, it is set to time.Now().UTC().
// Events carrying an Error are written at error level.
func (l *Logger) Append(event LogEvent) error {
	if l == nil {
		return nil
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	level := zapcore.InfoLevel
	if event.Error != "" {
		level = zapcore.ErrorLevel
	}

	ce := l.zl.Check(level, event.Event)
	if ce == nil {
		return nil
	}
	ce.Time = event.Time
	ce.Write(eventFields(event)...)
	return nil
}

func eventFields(event LogEvent) []zap.Field {
	var fields []zap.Field
	if event.Method != "" {
		fields = append(fields, zap.String("method", event.Method))
	}
	if event.Path != "" {
		fields = append(fields, zap.String("path", event.Path))
	}
	if event.Status != 0 {
		fields = append(fields, zap.Int("status", event.Status))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.Folder != "" {
		fields = append(fields, zap.String("folder", event.Folder))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if event.DurationMs != 0 {
		fields = append(fields, zap.Int64("duration_ms", event.DurationMs))
	}
	if len(event.Data) > 0 {
		fields = append(fields, zap.Any("data", event.Data))
	}
	return fields
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	_ = l.zl.Sync()
	if l.closer != nil {
		return l.closer()
	}
	return nil
}

// ReadAll reads and parses all events from the current log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	if l.path == "" {
		return []LogEvent{}, nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
