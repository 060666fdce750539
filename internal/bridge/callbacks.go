// Package bridge exports the shim's C interface.
// This file contains the host log callback.
package bridge

/*
#cgo CFLAGS: -I../../native/include
#include "loot_shim_types.h"
#include <stdlib.h>

// Helper to call function pointers from Go
static inline void call_log(loot_log_callback_t cb, int level, const char* tag, const char* msg) {
    if (cb) {
        cb(level, tag, msg);
    }
}
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/corrreia/lootshim/internal/shared"
)

var (
	logCallbackMu sync.Mutex
	logCallback   C.loot_log_callback_t
)

// setLogCallback installs cb as the log destination; nil restores stderr
func setLogCallback(cb C.loot_log_callback_t) {
	logCallbackMu.Lock()
	logCallback = cb
	logCallbackMu.Unlock()

	if cb == nil {
		shared.SetLogCallback(nil)
		return
	}
	shared.SetLogCallback(forwardLog)
}

// forwardLog sends one record to the host callback
func forwardLog(level shared.LogLevel, tag, message string) {
	logCallbackMu.Lock()
	cb := logCallback
	logCallbackMu.Unlock()
	if cb == nil {
		return
	}

	cTag := C.CString(tag)
	cMsg := C.CString(message)
	defer C.free(unsafe.Pointer(cTag))
	defer C.free(unsafe.Pointer(cMsg))

	C.call_log(cb, C.int(hostLogLevel(level)), cTag, cMsg)
}
