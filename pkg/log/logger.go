package log

import (
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// First stack line is "goroutine 123 [running]:", 32 bytes is plenty.
	stackBufSize = 32
	// "goroutine " prefix.
	goroutinePrefixLen = 10
	consoleTimeFormat  = "15:04:05"
)

var (
	Logger    zerolog.Logger
	stackPool = sync.Pool{New: func() interface{} { return make([]byte, stackBufSize) }}
)

// goroutineID returns the id of the calling goroutine or "unknown".
func goroutineID() string {
	buf, ok := stackPool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer stackPool.Put(buf) //nolint:staticcheck // buf is a slice

	n := runtime.Stack(buf, false)
	if n <= goroutinePrefixLen {
		return "unknown"
	}

	end := goroutinePrefixLen
	for end < n && buf[end] >= '0' && buf[end] <= '9' {
		end++
	}
	if end == goroutinePrefixLen {
		return "unknown"
	}
	return string(buf[goroutinePrefixLen:end])
}

var goidHook = zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("goid", goroutineID())
})

func build(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger().
		Hook(goidHook)
}

func init() {
	Logger = build(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}, zerolog.InfoLevel)
	log.Logger = Logger
}

// Info starts an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn starts a warning level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal starts a fatal event; the process exits after Msg.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

// SetJSONOutput replaces the console writer with plain JSON lines written to out,
// keeping the current level.
func SetJSONOutput(out io.Writer) {
	Logger = build(out, Logger.GetLevel())
	log.Logger = Logger
}

// SetOutput swaps the destination and level. Mostly useful in tests.
func SetOutput(out io.Writer, level zerolog.Level) {
	Logger = build(out, level)
	log.Logger = Logger
}

// WithRequest returns a child logger tagged with the request id.
func WithRequest(requestID string) zerolog.Logger {
	return Logger.With().Str("request_id", requestID).Logger()
}
