package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EnvVerbosity is the process-wide knob controlling diagnostic output:
// 0 silent, 1 validation failures only, >=2 full call-by-call trace.
const EnvVerbosity = "METARUNTIME_VALIDATE_METADATA_BUILDER"

// getenv and output are swappable for tests.
var (
	getenv = os.Getenv

	outMu  sync.Mutex
	output io.Writer = os.Stderr
)

// Verbosity returns the current trace level. The environment is read on
// every call, never cached, so an interactive debugger can change the
// level mid-run.
func Verbosity() int {
	v := getenv(EnvVerbosity)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Enabled reports whether messages at the given level are emitted. Call
// it before building an expensive message; Logf and Log already guard.
func Enabled(level int) bool {
	return Verbosity() >= level
}

// Logf writes "file:line:function: message" to the diagnostic stream if
// the current verbosity is at least level. Formatting happens only after
// the guard passes.
func Logf(level int, format string, args ...any) {
	if !Enabled(level) {
		return
	}
	file, line, fn := caller(2)
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(output, "%s:%d:%s: ", file, line, fn)
	fmt.Fprintf(output, format, args...)
	fmt.Fprintln(output)
}

// Log emits a structured message through the package logger if the
// current verbosity is at least level. The zap logger is a no-op unless
// the embedding program installs one with SetLogger.
func Log(level int, msg string, fields ...zap.Field) {
	if !Enabled(level) {
		return
	}
	Logger().Debug(msg, fields...)
}

func caller(skip int) (file string, line int, fn string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", 0, "?"
	}
	fn = "?"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
		if i := strings.LastIndexByte(fn, '.'); i >= 0 {
			fn = fn[i+1:]
		}
	}
	return filepath.Base(file), line, fn
}

// SetOutput redirects the textual diagnostic stream. Passing nil
// restores stderr. Used by tests.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	outMu.Lock()
	defer outMu.Unlock()
	output = w
}

// SetGetenv replaces the environment lookup. Used by tests.
func SetGetenv(fn func(string) string) {
	if fn == nil {
		fn = os.Getenv
	}
	getenv = fn
}

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	loggerMu   sync.RWMutex
)

// Logger returns the package's structured logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		loggerMu.Lock()
		defer loggerMu.Unlock()
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger installs a custom structured logger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}
