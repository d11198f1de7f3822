package llm

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// APILogger records API requests and responses
type APILogger interface {
	LogInteraction(req any, resp any, err error)
}

// FileLogger appends one JSON line per interaction
type FileLogger struct {
	mu          sync.Mutex
	logFilePath string
	logger      *slog.Logger
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Request   any    `json:"request,omitempty"`
	Response  any    `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewAPILogger creates a logger writing api_logs.jsonl under dir
func NewAPILogger(dir string, logger *slog.Logger) APILogger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn("couldn't create log directory", "dir", dir, "error", err)
	}

	return &FileLogger{
		logFilePath: filepath.Join(dir, "api_logs.jsonl"),
		logger:      logger,
	}
}

// LogInteraction logs an API request/response pair
func (l *FileLogger) LogInteraction(req any, resp any, err error) {
	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Request:   req,
	}

	if err != nil {
		entry.Error = err.Error()
	} else if resp != nil {
		entry.Response = resp
	}

	line, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		l.logger.Warn("couldn't marshal api log entry", "error", jsonErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, fileErr := os.OpenFile(l.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		l.logger.Warn("couldn't open api log file", "path", l.logFilePath, "error", fileErr)
		return
	}
	defer file.Close()

	if _, writeErr := file.Write(append(line, '\n')); writeErr != nil {
		l.logger.Warn("couldn't write api log entry", "error", writeErr)
	}
}
