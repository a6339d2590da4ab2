// Package compiler is the thin external collaborator the core
// delegates to for turning source text into bytecode: a single-pass,
// hand-rolled recursive-descent compiler in the reference's own style
// (no separate AST stage — each grammar rule emits bytecode directly
// as it parses, the way wren_compiler.c's compiler works). It covers
// a literal subset of the scripting surface: numbers, strings,
// booleans, null, var declarations, if/else, while, function and
// class declarations, return, arithmetic/comparison operators, calls,
// field access, and list/map literals.
package compiler

import (
	"fmt"
	"strings"

	"ember/internal/vm"
)

// Compile implements vm.CompileFn, the core's single entry point into
// this package.
func Compile(v *vm.VM, moduleName, source string) (*vm.ObjFunction, error) {
	module, ok := v.Module(moduleName)
	if !ok {
		module = vm.NewModule(v, vm.NewString(v, moduleName))
		v.RegisterModule(moduleName, module)
	}
	p := &parser{lex: newLexer(source), vm: v, module: module}
	p.advance()
	fn := p.compileModuleBody(moduleName)
	if p.hadError {
		return nil, fmt.Errorf("line %d: %s", p.errLine, p.errMsg)
	}
	return fn, nil
}

// localVar is one slot on a funcCompiler's simulated stack frame.
type localVar struct {
	name  string
	depth int
}

// upvalRef records how a funcCompiler's Nth upvalue is reached from
// its immediately enclosing function: either directly off one of the
// parent's own locals, or by forwarding one of the parent's upvalues.
type upvalRef struct {
	index   int
	isLocal bool
}

// funcCompiler is the compile-time state for one function body
// (module body, a fn literal, or a method). Nesting funcCompilers via
// parent is what lets resolveUpvalue walk outward to find a captured
// variable, exactly as a Lox/Wren-style single-pass compiler does.
type funcCompiler struct {
	parent *funcCompiler
	fn     *vm.ObjFunction

	locals     []localVar
	upvalues   []upvalRef
	scopeDepth int

	classFields []string // non-nil only within a method body or its nested closures
}

func (fc *funcCompiler) isModuleScope() bool {
	return fc.parent == nil && fc.scopeDepth == 0
}

func (fc *funcCompiler) lookupClassFields() []string {
	for c := fc; c != nil; c = c.parent {
		if c.classFields != nil {
			return c.classFields
		}
	}
	return nil
}

func (fc *funcCompiler) mark() int { return len(fc.fn.Code) }

func (fc *funcCompiler) truncate(mark int) {
	fc.fn.Code = fc.fn.Code[:mark]
	fc.fn.Lines = fc.fn.Lines[:mark]
}

func (fc *funcCompiler) emitByte(b byte, line int) {
	fc.fn.Code = append(fc.fn.Code, b)
	fc.fn.Lines = append(fc.fn.Lines, line)
}

func (fc *funcCompiler) emitOp(op vm.OpCode, line int) { fc.emitByte(byte(op), line) }

func (fc *funcCompiler) emitU8(b byte, line int) { fc.emitByte(b, line) }

func (fc *funcCompiler) emitU16(n int, line int) {
	fc.emitByte(byte(n>>8), line)
	fc.emitByte(byte(n), line)
}

// emitJump writes op plus a placeholder 2-byte offset, returning the
// offset field's position so the caller can patchJump once the target
// is known.
func (fc *funcCompiler) emitJump(op vm.OpCode, line int) int {
	fc.emitOp(op, line)
	fc.emitU16(0, line)
	return len(fc.fn.Code) - 2
}

func (fc *funcCompiler) patchJump(at int) {
	offset := len(fc.fn.Code) - (at + 2)
	fc.fn.Code[at] = byte(offset >> 8)
	fc.fn.Code[at+1] = byte(offset)
}

func (fc *funcCompiler) emitLoop(start int, line int) {
	fc.emitOp(vm.OpLoop, line)
	offset := len(fc.fn.Code) + 2 - start
	fc.emitU16(offset, line)
}

func (fc *funcCompiler) addConstant(val vm.Value) int {
	fc.fn.Constants = append(fc.fn.Constants, val)
	return len(fc.fn.Constants) - 1
}

func (fc *funcCompiler) addLocal(name string) int {
	fc.locals = append(fc.locals, localVar{name: name, depth: fc.scopeDepth})
	slot := len(fc.locals) - 1
	if slot+1 > fc.fn.MaxSlots {
		fc.fn.MaxSlots = slot + 1
	}
	return slot
}

func resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue walks outward through enclosing funcCompilers to find
// name as a local or upvalue of some ancestor, wiring a chain of
// upvalue forwarding entries (parent's local -> this fn's upvalue ->
// grandchild's upvalue -> ...) as it unwinds back in.
func resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.parent == nil {
		return -1
	}
	if local := resolveLocal(fc.parent, name); local >= 0 {
		return addUpvalue(fc, upvalRef{index: local, isLocal: true})
	}
	if up := resolveUpvalue(fc.parent, name); up >= 0 {
		return addUpvalue(fc, upvalRef{index: up, isLocal: false})
	}
	return -1
}

func addUpvalue(fc *funcCompiler, ref upvalRef) int {
	for i, u := range fc.upvalues {
		if u == ref {
			return i
		}
	}
	fc.upvalues = append(fc.upvalues, ref)
	return len(fc.upvalues) - 1
}

func methodSelector(name string, argc int) string {
	if argc == 0 {
		return name
	}
	parts := make([]string, argc)
	for i := range parts {
		parts[i] = "_"
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}
