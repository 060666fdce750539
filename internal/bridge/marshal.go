// Package bridge exports the shim's C interface.
// This file contains the C allocations handed to the host and their release.
package bridge

/*
#cgo CFLAGS: -I../../native/include
#include "loot_shim_types.h"
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"

	"github.com/corrreia/lootshim/internal/marshal"
)

// goString copies a C string; NULL becomes ""
func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// cBuffer copies doc into a malloc'd NUL-terminated buffer.
// nil yields NULL. Caller must free with loot_free_json.
func cBuffer(doc []byte) *C.char {
	if doc == nil {
		return nil
	}
	buf := (*C.char)(C.malloc(C.size_t(len(doc) + 1)))
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), len(doc)+1)
	copy(dst, doc)
	dst[len(doc)] = 0
	return buf
}

// cStringList copies names into a malloc'd array of malloc'd C strings.
// Names must already be free of NUL bytes. Caller must free with loot_free_string_list.
func cStringList(names []string) C.LootStringList {
	if len(names) == 0 {
		return C.LootStringList{}
	}

	n := len(names)
	items := (**C.char)(C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	slots := unsafe.Slice(items, n)
	for i, name := range names {
		slots[i] = C.CString(name)
	}
	return C.LootStringList{items: items, count: C.size_t(n)}
}

// freeStringList releases a list built by cStringList. The empty list is ignored.
func freeStringList(list C.LootStringList) {
	if !marshal.ListReleasable(list.items != nil, int(list.count)) {
		return
	}
	for _, item := range unsafe.Slice(list.items, int(list.count)) {
		C.free(unsafe.Pointer(item))
	}
	C.free(unsafe.Pointer(list.items))
}

// freeBuffer releases a buffer built by cBuffer or C.CString. NULL is ignored.
func freeBuffer(buf *C.char) {
	if buf == nil {
		return
	}
	C.free(unsafe.Pointer(buf))
}
