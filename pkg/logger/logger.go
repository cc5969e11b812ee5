package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel string

const (
	DEBUG LogLevel = "debug"
	INFO  LogLevel = "info"
	WARN  LogLevel = "warn"
	ERROR LogLevel = "error"
)

// Logger is a thin key/value wrapper around zerolog so call sites read
// log.Info("event_name", "key", value).
type Logger struct {
	zl zerolog.Logger
}

var (
	global *Logger
	mu     sync.RWMutex
)

// Init configures the process-wide logger. A nil writer discards output.
func Init(level LogLevel, jsonFormat bool, w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	out := w
	if !jsonFormat {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	zl := zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()

	mu.Lock()
	global = &Logger{zl: zl}
	mu.Unlock()
}

func GetLogger() *Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		Init(INFO, false, os.Stdout)
		mu.RLock()
		l = global
		mu.RUnlock()
	}
	return l
}

func parseLevel(level LogLevel) zerolog.Level {
	switch level {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext returns a child logger carrying the given key/value pairs.
func (l *Logger) WithContext(keyvals ...interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range pairs(keyvals) {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.emit(l.zl.Debug(), msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...interface{})  { l.emit(l.zl.Info(), msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...interface{})  { l.emit(l.zl.Warn(), msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.emit(l.zl.Error(), msg, keyvals) }

func (l *Logger) emit(ev *zerolog.Event, msg string, keyvals []interface{}) {
	if ev == nil {
		return
	}
	for k, v := range pairs(keyvals) {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// pairs accepts either alternating key/value arguments or a single map.
func pairs(keyvals []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keyvals)/2)
	if len(keyvals) == 1 {
		if m, ok := keyvals[0].(map[string]interface{}); ok {
			return m
		}
	}
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			fields[key] = "MISSING"
			break
		}
		fields[key] = keyvals[i+1]
	}
	return fields
}

func Debug(msg string, keyvals ...interface{}) { GetLogger().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { GetLogger().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { GetLogger().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { GetLogger().Error(msg, keyvals...) }
