// Package logger provides leveled logging for the drive core.
//
// Output goes to stdout with a timestamp and level prefix. The level is
// process-wide and set once at startup from configuration.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a log severity threshold. Messages below the current level are
// discarded.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel atomic.Int32
	out          = stdlog.New(os.Stdout, "", 0)
)

func init() {
	currentLevel.Store(int32(LevelInfo))
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

// SetLevel sets the process-wide log level. Unrecognized names are ignored
// and the current level is kept.
func SetLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		currentLevel.Store(int32(LevelDebug))
	case "INFO":
		currentLevel.Store(int32(LevelInfo))
	case "WARN":
		currentLevel.Store(int32(LevelWarn))
	case "ERROR":
		currentLevel.Store(int32(LevelError))
	}
}

// SetOutput redirects log output. Used by tests to capture messages.
func SetOutput(w io.Writer) {
	out = stdlog.New(w, "", 0)
}

func logAt(level Level, format string, v ...any) {
	if int32(level) < currentLevel.Load() {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	out.Println(fmt.Sprintf("[%s] [%s] %s", timestamp, level, fmt.Sprintf(format, v...)))
}

func Debug(format string, v ...any) {
	logAt(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	logAt(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	logAt(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	logAt(LevelError, format, v...)
}
