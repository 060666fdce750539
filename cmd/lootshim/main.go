// Package main is the entry point for the lootshim c-shared library.
// This file is built with -buildmode=c-shared to create libloot_shim.so
package main

import "C"

import (
	// Bridge exports all CGO functions to C
	_ "github.com/corrreia/lootshim/internal/bridge"
)

// main is required for c-shared build mode but is never called
func main() {}
