// Package logger provides leveled, structured logging with Sentry breadcrumbs.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Level is a log severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
}

// ParseLevel maps a level name (DEBUG, INFO, WARN/WARNING, ERROR/CRITICAL)
// to a Level. Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "CRITICAL":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum level written to the log.
func SetLevel(l Level) {
	minLevel.Store(int32(l))
}

func enabled(l Level) bool {
	return int32(l) >= minLevel.Load()
}

// Setup applies the level and, when file is non-empty, mirrors output to it.
// The returned closer releases the file.
func Setup(level, file string) (io.Closer, error) {
	SetLevel(ParseLevel(level))
	if file == "" {
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	return Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	if !enabled(LevelInfo) {
		return
	}
	log.Printf("[INFO] %s %v", msg, formatFields(fields))
	breadcrumb("info", msg, fields, sentry.LevelInfo)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	if !enabled(LevelError) {
		return
	}
	log.Printf("[ERROR] %s: %v %v", msg, err, formatFields(fields))

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range fields {
			scope.SetContext(key, map[string]interface{}{
				"value": value,
			})
		}
		if requestID, ok := fields["request_id"].(string); ok {
			scope.SetTag("request_id", requestID)
		}
		if job, ok := fields["job_id"].(string); ok {
			scope.SetTag("job_id", job)
		}
		if err != nil {
			hub.CaptureException(err)
		} else {
			hub.CaptureMessage(msg)
		}
	})
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	if !enabled(LevelWarn) {
		return
	}
	log.Printf("[WARN] %s %v", msg, formatFields(fields))
	breadcrumb("warning", msg, fields, sentry.LevelWarning)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	if !enabled(LevelDebug) {
		return
	}
	log.Printf("[DEBUG] %s %v", msg, formatFields(fields))
	breadcrumb("debug", msg, fields, sentry.LevelDebug)
}

// LogAPIRequest logs API request metrics
func LogAPIRequest(c *gin.Context, duration time.Duration, statusCode int, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["duration_ms"] = duration.Milliseconds()
	fields["status_code"] = statusCode
	fields["request_id"] = c.GetString("request_id")
	fields["method"] = c.Request.Method
	fields["path"] = c.Request.URL.Path
	fields["client_ip"] = c.ClientIP()

	switch {
	case statusCode >= 500:
		Error("Request failed with server error", nil, fields)
	case statusCode >= 400:
		Warn("Request failed with client error", fields)
	default:
		Info("Request completed", fields)
	}
}

func breadcrumb(kind, msg string, fields Fields, level sentry.Level) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     kind,
			Category: "log",
			Message:  msg,
			Data:     convertFieldsToMap(fields),
			Level:    level,
		}, nil)
	}
}

// formatFields renders fields as {k=v, ...} with keys sorted
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(formatValue(fields[k]))
	}
	sb.WriteString("}")
	return sb.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func convertFieldsToMap(fields Fields) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		result[k] = v
	}
	return result
}
