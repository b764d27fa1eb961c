//go:build js && wasm

package debug

import (
	"fmt"
	"syscall/js"
)

// EnableLogging routes scheduler and reactive debug output to the
// browser console
func EnableLogging() {
	setHooks(Log)
}

// Log logs a message to the console
func Log(args ...interface{}) {
	js.Global().Get("console").Call("log", consoleArgs(args)...)
}

// Logf logs a formatted message to the console
func Logf(format string, args ...interface{}) {
	js.Global().Get("console").Call("log", fmt.Sprintf(format, args...))
}

// consoleArgs keeps numbers, strings and bools native and formats the rest
func consoleArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch a.(type) {
		case string, bool, int, int32, int64, uint32, uint64, float32, float64:
			out[i] = a
		default:
			out[i] = fmt.Sprint(a)
		}
	}
	return out
}
