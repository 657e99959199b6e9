//go:build debug

package utils

import "fmt"

const DebugChecks = true

func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("assertion failed: "+format, args...))
	}
}
