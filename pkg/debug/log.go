//go:build !(js && wasm)

package debug

import (
	"fmt"
	"log/slog"
	"strings"
)

// EnableLogging routes scheduler and reactive debug output to slog at
// debug level
func EnableLogging() {
	setHooks(Log)
}

// Log logs the arguments, space separated
func Log(args ...interface{}) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	slog.Debug(strings.Join(parts, " "))
}

// Logf logs a formatted message
func Logf(format string, args ...interface{}) {
	slog.Debug(fmt.Sprintf(format, args...))
}
