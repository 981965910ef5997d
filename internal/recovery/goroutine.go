package recovery

import (
	"runtime/debug"

	"github.com/ppds/orchdash/internal/logger"
)

// SafeGo runs fn in a goroutine and recovers any panic so a single
// misbehaving worker cannot take the process down.
func SafeGo(name string, fn func()) {
	SafeGoWithCleanup(name, fn, nil)
}

// SafeGoWithCleanup is SafeGo with a cleanup that always runs, panic or not.
func SafeGoWithCleanup(name string, fn func(), cleanup func()) {
	go func() {
		defer func() {
			if cleanup != nil {
				cleanup()
			}
			if r := recover(); r != nil {
				logger.Logger.Error().
					Str("goroutine", name).
					Str("stack", string(debug.Stack())).
					Msgf("🚨 PANIC recovered in goroutine '%s': %v", name, r)
			}
		}()
		fn()
	}()
}
