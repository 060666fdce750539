package loot

import (
	"golang.org/x/text/cases"
)

// foldName returns the case-folded form used to compare plugin and file names.
// A Caser is stateful, so one is created per call.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// namesEqual compares two plugin names case-insensitively
func namesEqual(a, b string) bool {
	return a == b || foldName(a) == foldName(b)
}
