// Package runtime provides the call guards used by every exported entry point.
// This file contains panic recovery utilities.
package runtime

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// PanicLogger receives recovered panics
type PanicLogger func(context string, panicVal interface{}, stack string)

// logPanic is set by the bridge package to route panics into the shim logger
var logPanic atomic.Pointer[PanicLogger]

// SetPanicLogger sets the panic logging function; nil restores the stderr fallback
func SetPanicLogger(fn PanicLogger) {
	if fn == nil {
		logPanic.Store(nil)
		return
	}
	logPanic.Store(&fn)
}

func logPanicError(context string, panicVal interface{}, stack string) {
	if fn := logPanic.Load(); fn != nil {
		(*fn)(context, panicVal, stack)
		return
	}
	fmt.Fprintf(os.Stderr, "[PANIC] %s: %v\n%s\n", context, panicVal, stack)
}

// PanicError is returned by SafeCallWithError when fn panicked
type PanicError struct {
	Context string
	Value   interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Context, e.Value)
}

// RecoverPanic recovers from a panic and logs it.
// Must be called via defer.
func RecoverPanic(context string) {
	if r := recover(); r != nil {
		logPanicError(context, r, string(debug.Stack()))
	}
}

// SafeCall calls a function with panic recovery.
// Returns true if the function completed without panicking.
func SafeCall(context string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logPanicError(context, r, string(debug.Stack()))
			ok = false
		}
	}()
	fn()
	return true
}

// SafeCallWithResult calls a function with panic recovery and returns its result.
// If a panic occurs, returns defaultVal.
func SafeCallWithResult[T any](context string, defaultVal T, fn func() T) (result T) {
	defer func() {
		if r := recover(); r != nil {
			logPanicError(context, r, string(debug.Stack()))
			result = defaultVal
		}
	}()
	return fn()
}

// SafeCallWithError calls a function with panic recovery.
// If a panic occurs, returns a *PanicError.
func SafeCallWithError(context string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanicError(context, r, string(debug.Stack()))
			err = &PanicError{Context: context, Value: r}
		}
	}()
	return fn()
}
