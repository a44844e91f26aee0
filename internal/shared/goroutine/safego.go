// Package goroutine launches background work with panic isolation.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"quillform/internal/shared/logger"
)

// SafeGo runs fn on its own goroutine. A panic in fn is recovered and
// logged with the goroutine's name and stack instead of taking down the
// process. Long-lived background loops (the sweep schedulers) start
// through here.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
