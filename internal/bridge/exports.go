// Package bridge exports the shim's C interface.
// This file contains all functions exported to C via CGO.
package bridge

/*
#cgo CFLAGS: -I../../native/include
#include "loot_shim_types.h"
#include <stdlib.h>
*/
import "C"
import (
	"github.com/corrreia/lootshim/internal/marshal"
	"github.com/corrreia/lootshim/internal/runtime"
	"github.com/corrreia/lootshim/internal/session"
	"github.com/corrreia/lootshim/internal/shared"
)

// ============================================================
// Sessions
// ============================================================

//export loot_create_game_handle
func loot_create_game_handle(game C.LootGameType, dataPath, installPath *C.char) C.LootGameHandle {
	return runtime.SafeCallWithResult("loot_create_game_handle", C.LootGameHandle(session.NullHandle), func() C.LootGameHandle {
		h := ensureInit().Create(int(game), goString(dataPath), goString(installPath))
		return C.LootGameHandle(h)
	})
}

//export loot_destroy_game_handle
func loot_destroy_game_handle(handle C.LootGameHandle) {
	runtime.SafeCall("loot_destroy_game_handle", func() {
		ensureInit().Destroy(session.Handle(handle))
	})
}

//export loot_sort_plugins
func loot_sort_plugins(handle C.LootGameHandle) C.int {
	return runtime.SafeCallWithResult("loot_sort_plugins", C.int(panicSortStatus), func() C.int {
		return C.int(ensureInit().Sort(session.Handle(handle)))
	})
}

//export loot_get_sorted_plugins
func loot_get_sorted_plugins(handle C.LootGameHandle) C.LootStringList {
	return runtime.SafeCallWithResult("loot_get_sorted_plugins", C.LootStringList{}, func() C.LootStringList {
		return cStringList(ensureInit().SortedOrder(session.Handle(handle)))
	})
}

// ============================================================
// Metadata
// ============================================================

//export loot_load_masterlist
func loot_load_masterlist(handle C.LootGameHandle, masterlistPath, preludePath *C.char) C.int {
	return runtime.SafeCallWithResult("loot_load_masterlist", C.int(panicLoadStatus), func() C.int {
		return C.int(ensureInit().LoadMasterlist(session.Handle(handle), goString(masterlistPath), goString(preludePath)))
	})
}

//export loot_load_userlist
func loot_load_userlist(handle C.LootGameHandle, userlistPath *C.char) C.int {
	return runtime.SafeCallWithResult("loot_load_userlist", C.int(panicLoadStatus), func() C.int {
		return C.int(ensureInit().LoadUserlist(session.Handle(handle), goString(userlistPath)))
	})
}

//export loot_clear_user_metadata
func loot_clear_user_metadata(handle C.LootGameHandle) C.int {
	return runtime.SafeCallWithResult("loot_clear_user_metadata", C.int(panicClearStatus), func() C.int {
		return C.int(ensureInit().ClearUserMetadata(session.Handle(handle)))
	})
}

//export loot_get_plugin_details_json
func loot_get_plugin_details_json(handle C.LootGameHandle, pluginName *C.char) *C.char {
	return runtime.SafeCallWithResult("loot_get_plugin_details_json", (*C.char)(nil), func() *C.char {
		return cBuffer(ensureInit().PluginDetails(session.Handle(handle), goString(pluginName)))
	})
}

//export loot_get_general_messages_json
func loot_get_general_messages_json(handle C.LootGameHandle) *C.char {
	return runtime.SafeCallWithResult("loot_get_general_messages_json", (*C.char)(nil), func() *C.char {
		return cBuffer(ensureInit().GeneralMessages(session.Handle(handle)))
	})
}

//export loot_get_sort_history_json
func loot_get_sort_history_json(handle C.LootGameHandle, limit C.int) *C.char {
	return runtime.SafeCallWithResult("loot_get_sort_history_json", (*C.char)(nil), func() *C.char {
		return cBuffer(ensureInit().SortHistory(session.Handle(handle), int(limit)))
	})
}

// ============================================================
// Release
// ============================================================

//export loot_free_string_list
func loot_free_string_list(list C.LootStringList) {
	runtime.SafeCall("loot_free_string_list", func() {
		freeStringList(list)
	})
}

//export loot_free_json
func loot_free_json(json *C.char) {
	freeBuffer(json)
}

// ============================================================
// Utilities
// ============================================================

//export loot_detect_game_type
func loot_detect_game_type(installPath *C.char) C.int {
	return runtime.SafeCallWithResult("loot_detect_game_type", C.int(detectNoPath), func() C.int {
		ensureInit()
		return C.int(detectGameType(goString(installPath)))
	})
}

//export loot_set_log_callback
func loot_set_log_callback(cb C.loot_log_callback_t) {
	runtime.SafeCall("loot_set_log_callback", func() {
		ensureInit()
		setLogCallback(cb)
	})
}

//export loot_get_last_error
func loot_get_last_error() *C.char {
	msg := shared.LastError()
	if msg == "" || marshal.CheckTerminable(msg) != nil {
		return nil
	}
	// Caller must free this memory
	return C.CString(msg)
}

//export loot_clear_last_error
func loot_clear_last_error() {
	shared.ClearLastError()
}

//export loot_get_abi_version
func loot_get_abi_version() C.int32_t {
	return C.LOOT_SHIM_ABI_VERSION
}
