package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values default to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FileLogger writes component-tagged lines to coach-debug.log. The widget runs
// inside an alternate-screen TUI, so nothing is ever written to stdout.
type FileLogger struct {
	mu        sync.Mutex
	out       io.Writer
	file      *os.File
	level     Level
	component string
}

var (
	defaultLogger *FileLogger
	defaultOnce   sync.Once
)

// Default returns the process-wide file logger, creating it on first use.
func Default() *FileLogger {
	defaultOnce.Do(func() {
		defaultLogger = newFileLogger(LevelDebug)
	})
	return defaultLogger
}

// NewComponentLogger returns the default file logger scoped to a component.
func NewComponentLogger(component string) *FileLogger {
	base := Default()
	return &FileLogger{
		out:       base.out,
		file:      base.file,
		level:     base.level,
		component: component,
	}
}

func newFileLogger(level Level) *FileLogger {
	l := &FileLogger{level: level}

	home, err := os.UserHomeDir()
	if err != nil {
		return l
	}
	path := filepath.Join(home, "coach-debug.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return l
	}
	l.file = file
	l.out = file
	return l
}

// SetLevel sets the minimum level written to the log.
func (l *FileLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the underlying log file.
func (l *FileLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *FileLogger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || l.out == nil {
		return
	}

	component := l.component
	if component == "" {
		component = "COACH"
	}

	line := fmt.Sprintf("%s [%s] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level, component,
		fmt.Sprintf(format, args...))

	fmt.Fprint(l.out, Redact(line))
}

func (l *FileLogger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *FileLogger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *FileLogger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *FileLogger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

const redactedPlaceholder = "[REDACTED]"

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-\._~+/]+=*)`)
	tokenFieldPattern  = regexp.MustCompile(
		`(?i)((?:"|')?(?:api[_-]?key|auth[_-]?token|access[_-]?token|token|secret|password)(?:"|')?\s*(?:=|:)\s*)(?:"|')?([^"'\s,;]+)((?:"|')?)`,
	)
)

// Redact strips credential material from a log line. Every request the engine
// makes carries a bearer token, so the raw line can never be trusted.
func Redact(line string) string {
	sanitized := bearerTokenPattern.ReplaceAllString(line, "${1}"+redactedPlaceholder)
	sanitized = tokenFieldPattern.ReplaceAllStringFunc(sanitized, func(match string) string {
		parts := tokenFieldPattern.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		return parts[1] + redactedPlaceholder + parts[3]
	})
	return sanitized
}
