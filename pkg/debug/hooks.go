// Package debug wires the scheduler and reactive trace hooks to a log
// sink: slog on native builds, the console in the browser.
package debug

import (
	"github.com/recera/treecanvas/pkg/reactive"
	"github.com/recera/treecanvas/pkg/scheduler"
)

func setHooks(fn func(args ...interface{})) {
	scheduler.SetDebugLog(fn)
	reactive.SetDebugLog(fn)
}

// DisableLogging removes the trace hooks
func DisableLogging() {
	scheduler.SetDebugLog(nil)
	reactive.SetDebugLog(nil)
}
