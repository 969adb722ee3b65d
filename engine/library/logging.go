package library

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/mborders/logmatic"
)

// Log levels accepted by LogCLI and the logLevel config key.
const (
	LevelFatal = iota
	LevelError
	LevelWarn
	LevelDebug
	LevelInfo
	LevelTrace
)

var (
	logLevel int64 = LevelInfo
	logger         = newLogger()
)

func newLogger() *logmatic.Logger {
	l := logmatic.NewLogger()
	l.SetLevel(logmatic.TRACE)
	return l
}

// SetLogLevel drops messages with a level above the given one.
func SetLogLevel(level int) {
	atomic.StoreInt64(&logLevel, int64(level))
}

// LogCLI writes message to the terminal. Fatal, error and trace messages carry a stack dump.
func LogCLI(message interface{}, level int) {
	if int64(level) > atomic.LoadInt64(&logLevel) {
		return
	}
	text := fmt.Sprint(message)
	switch level {
	case LevelFatal, LevelError:
		debug.PrintStack()
		logger.Error("%s", text)
	case LevelWarn:
		logger.Warn("%s", text)
	case LevelDebug:
		logger.Debug("%s", text)
	case LevelInfo:
		logger.Info("%s", text)
	default:
		debug.PrintStack()
		logger.Trace("%s", text)
	}
}
