//go:build !debug

package utils

const DebugChecks = false

func Assert(cond bool, format string, args ...any) {}
