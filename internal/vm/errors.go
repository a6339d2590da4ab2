package vm

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ErrorKind is the taxonomy from §7: compile, runtime, out-of-memory,
// and assertion failure (the last of which ember surfaces as a Go
// panic in debug builds, matching "in debug builds aborts the
// process").
type ErrorKind int

const (
	ErrorCompile ErrorKind = iota
	ErrorRuntime
	ErrorOutOfMemory
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorCompile:
		return "compile error"
	case ErrorRuntime:
		return "runtime error"
	case ErrorOutOfMemory:
		return "out of memory"
	default:
		return "error"
	}
}

func (v *VM) reportError(kind ErrorKind, module string, line int, message string) {
	if v.config.ErrorFn != nil {
		v.config.ErrorFn(kind, module, line, message)
	}
}

// defaultErrorFn is the console sink used when the embedder does not
// supply one: it colorizes the kind label (red for runtime/OOM, yellow
// for compile errors) the way surge's `--color` flag colorizes
// diagnostics, and otherwise matches the "(module, line, message)"
// shape §6/§7 specify.
func defaultErrorFn(w io.Writer) ErrorFn {
	return func(kind ErrorKind, module string, line int, message string) {
		label := color.New(color.FgYellow, color.Bold).Sprint(kind.String())
		if kind != ErrorCompile {
			label = color.New(color.FgRed, color.Bold).Sprint(kind.String())
		}
		if line > 0 {
			fmt.Fprintf(w, "%s [%s line %d] %s\n", label, module, line, message)
		} else {
			fmt.Fprintf(w, "%s [%s] %s\n", label, module, message)
		}
	}
}
