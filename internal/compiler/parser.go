package compiler

import (
	"ember/internal/vm"
)

// parser drives one single-pass compile: it holds the token stream and
// the currently-active funcCompiler, switching fc as it descends into
// nested function/method bodies and popping back out when they close.
type parser struct {
	lex    *lexer
	cur    token
	prev   token
	peeked *token

	vm     *vm.VM
	module *vm.ObjModule
	fc     *funcCompiler

	// lastWasThis records whether the primary expression just parsed
	// was the bare `this` keyword, so parsePostfix can tell field
	// access (`this.field`) apart from an ordinary getter call.
	lastWasThis bool

	hadError bool
	errMsg   string
	errLine  int
}

func (p *parser) peekNext() token {
	if p.peeked == nil {
		t := p.lex.next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *parser) advance() {
	p.prev = p.cur
	if p.peeked != nil {
		p.cur = *p.peeked
		p.peeked = nil
	} else {
		p.cur = p.lex.next()
	}
	if p.cur.kind == tkError {
		p.errorAtCurrent(p.cur.text)
	}
}

func (p *parser) check(k tokenKind) bool { return p.cur.kind == k }

func (p *parser) match(k tokenKind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) expect(k tokenKind, msg string) {
	if p.match(k) {
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) expectIdentText(msg string) string {
	if !p.check(tkIdent) {
		p.errorAtCurrent(msg)
		return ""
	}
	name := p.cur.text
	p.advance()
	return name
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.cur.line, msg) }
func (p *parser) errorAtPrev(msg string)    { p.errorAt(p.prev.line, msg) }

func (p *parser) errorAt(line int, msg string) {
	if p.hadError {
		return
	}
	p.hadError = true
	p.errLine = line
	p.errMsg = msg
}

// compileModuleBody parses statements until EOF, treating the whole
// source file as one implicit top-level function body, the way the
// reference treats a module as one implicit closure.
func (p *parser) compileModuleBody(moduleName string) *vm.ObjFunction {
	fn := vm.NewFunction(p.vm, p.module, "<module "+moduleName+">")
	p.fc = &funcCompiler{fn: fn}
	for !p.check(tkEOF) && !p.hadError {
		p.statement()
	}
	p.fc.emitOp(vm.OpEnd, p.cur.line)
	return fn
}

func (p *parser) block() {
	for !p.check(tkRBrace) && !p.check(tkEOF) && !p.hadError {
		p.statement()
	}
	p.expect(tkRBrace, "expected '}' to close block")
}

func (p *parser) beginScope() { p.fc.scopeDepth++ }

func (p *parser) endScope() {
	fc := p.fc
	depth := fc.scopeDepth
	fc.scopeDepth--
	line := p.prev.line
	minSlot := -1
	n := 0
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth == depth {
		minSlot = len(fc.locals) - 1
		fc.locals = fc.locals[:len(fc.locals)-1]
		n++
	}
	if n == 0 {
		return
	}
	fc.emitOp(vm.OpCloseUpvalue, line)
	fc.emitU8(byte(minSlot), line)
	for i := 0; i < n; i++ {
		fc.emitOp(vm.OpPop, line)
	}
}

func (p *parser) statementOrBlock() {
	if p.match(tkLBrace) {
		p.beginScope()
		p.block()
		p.endScope()
		return
	}
	p.statement()
}

func (p *parser) statement() {
	switch {
	case p.match(tkVar):
		p.varDecl()
	case p.match(tkFn):
		p.fnDeclStatement()
	case p.match(tkClass):
		p.classDecl()
	case p.match(tkIf):
		p.ifStmt()
	case p.match(tkWhile):
		p.whileStmt()
	case p.match(tkReturn):
		p.returnStmt()
	case p.match(tkLBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.exprStmt()
	}
}

func (p *parser) varDecl() {
	name := p.expectIdentText("expected variable name")
	line := p.prev.line
	fc := p.fc

	if fc.isModuleScope() {
		sym := p.module.DeclareUndefined(name, line)
		if p.match(tkEq) {
			p.expression()
		} else {
			fc.emitOp(vm.OpNull, line)
		}
		fc.emitOp(vm.OpSetModuleVar, line)
		fc.emitU16(sym, line)
		fc.emitOp(vm.OpPop, line)
	} else {
		if p.match(tkEq) {
			p.expression()
		} else {
			fc.emitOp(vm.OpNull, line)
		}
		fc.addLocal(name)
	}
	p.expect(tkSemicolon, "expected ';' after variable declaration")
}

func (p *parser) fnDeclStatement() {
	name := p.expectIdentText("expected function name")
	line := p.prev.line
	fc := p.fc
	isModule := fc.isModuleScope()

	var sym int
	if isModule {
		sym = p.module.DeclareUndefined(name, line)
	}
	p.functionBody(name, nil)
	if isModule {
		fc.emitOp(vm.OpSetModuleVar, line)
		fc.emitU16(sym, line)
		fc.emitOp(vm.OpPop, line)
	} else {
		fc.addLocal(name)
	}
}

// functionBody parses "(params) { ... }" for a nested function or
// closure literal, compiling it as a brand-new funcCompiler whose
// parent is the currently active one (enabling upvalue capture), and
// emits the OpClosure instruction that materializes it at runtime into
// the *enclosing* function's code, leaving the closure on the stack.
func (p *parser) functionBody(name string, classFields []string) {
	parent := p.fc
	childFn := vm.NewFunction(p.vm, p.module, name)
	var child *funcCompiler
	if classFields != nil {
		child = &funcCompiler{fn: childFn, classFields: classFields}
		child.addLocal("this")
	} else {
		child = &funcCompiler{parent: parent, fn: childFn}
	}
	p.fc = child

	p.expect(tkLParen, "expected '(' after function name")
	arity := 0
	if !p.check(tkRParen) {
		for {
			pname := p.expectIdentText("expected parameter name")
			child.addLocal(pname)
			arity++
			if !p.match(tkComma) {
				break
			}
		}
	}
	p.expect(tkRParen, "expected ')' after parameters")
	childFn.Arity = arity

	p.expect(tkLBrace, "expected '{' to begin function body")
	p.block()
	child.emitOp(vm.OpNull, p.prev.line)
	child.emitOp(vm.OpReturn, p.prev.line)
	childFn.NumUpvalues = len(child.upvalues)

	p.fc = parent
	fnIdx := parent.addConstant(vm.ObjVal(childFn))
	line := p.prev.line
	parent.emitOp(vm.OpClosure, line)
	parent.emitU16(fnIdx, line)
	for _, u := range child.upvalues {
		if u.isLocal {
			parent.emitU8(1, line)
		} else {
			parent.emitU8(0, line)
		}
		parent.emitU8(byte(u.index), line)
	}
}

// methodBody is functionBody specialized for a class method: it never
// closes over an enclosing function's locals (methods are compiled as
// if they were their own module-level function, their only non-module
// names being "this", their own fields, and their own params), which
// keeps field resolution and upvalue resolution from having to agree
// on how a method relates to the class-declaration statement that
// contains it.
func (p *parser) methodBody(name string, fields []string) (fn *vm.ObjFunction, arity int) {
	childFn := vm.NewFunction(p.vm, p.module, name)
	child := &funcCompiler{fn: childFn, classFields: fields}
	child.addLocal("this")
	p.fc = child

	p.expect(tkLParen, "expected '(' after method name")
	if !p.check(tkRParen) {
		for {
			pname := p.expectIdentText("expected parameter name")
			child.addLocal(pname)
			arity++
			if !p.match(tkComma) {
				break
			}
		}
	}
	p.expect(tkRParen, "expected ')' after parameters")
	childFn.Arity = arity

	p.expect(tkLBrace, "expected '{' to begin method body")
	p.block()
	child.emitOp(vm.OpNull, p.prev.line)
	child.emitOp(vm.OpReturn, p.prev.line)
	childFn.NumUpvalues = len(child.upvalues)

	p.fc = nil
	return childFn, arity
}

// classDecl builds the ObjClass and its methods entirely at compile
// time: a method never captures anything beyond its own fields/params,
// so there is no runtime state a deferred OpClass/OpMethod pair would
// add — constructing the class eagerly and binding it as a plain
// module variable is behaviorally identical and needs no bytecode.
func (p *parser) classDecl() {
	if !p.fc.isModuleScope() {
		p.errorAtCurrent("classes may only be declared at module scope")
		return
	}
	name := p.expectIdentText("expected class name")
	p.expect(tkLBrace, "expected '{' after class name")

	var fields []string
	type methodDecl struct {
		selector string
		fn       *vm.ObjFunction
	}
	var methods []methodDecl

	for !p.check(tkRBrace) && !p.check(tkEOF) && !p.hadError {
		switch {
		case p.check(tkIdent) && p.cur.text == "field":
			p.advance()
			fname := p.expectIdentText("expected field name")
			fields = append(fields, fname)
			p.expect(tkSemicolon, "expected ';' after field declaration")
		case p.match(tkFn):
			mname := p.expectIdentText("expected method name")
			fn, arity := p.methodBody(mname, fields)
			methods = append(methods, methodDecl{selector: methodSelector(mname, arity), fn: fn})
		default:
			p.errorAtCurrent("expected 'field' or 'fn' inside class body")
			return
		}
	}
	p.expect(tkRBrace, "expected '}' after class body")
	if p.hadError {
		return
	}

	classNameStr := vm.NewString(p.vm, name)
	class := vm.NewClass(p.vm, p.vm.ObjectClass(), len(fields), classNameStr)
	for _, m := range methods {
		sym := p.vm.MethodSymbol(m.selector)
		closure := vm.NewClosure(p.vm, m.fn)
		p.vm.BindMethod(class, sym, vm.Method{Kind: vm.MethodBlock, Closure: closure})
	}
	p.module.Define(name, vm.ObjVal(class))
}

func (p *parser) ifStmt() {
	line := p.prev.line
	p.expect(tkLParen, "expected '(' after 'if'")
	p.expression()
	p.expect(tkRParen, "expected ')' after condition")

	thenJump := p.fc.emitJump(vm.OpJumpIfFalse, line)
	p.statementOrBlock()

	elseJump := p.fc.emitJump(vm.OpJump, line)
	p.fc.patchJump(thenJump)

	if p.match(tkElse) {
		p.statementOrBlock()
	}
	p.fc.patchJump(elseJump)
}

func (p *parser) whileStmt() {
	line := p.prev.line
	loopStart := p.fc.mark()
	p.expect(tkLParen, "expected '(' after 'while'")
	p.expression()
	p.expect(tkRParen, "expected ')' after condition")

	exitJump := p.fc.emitJump(vm.OpJumpIfFalse, line)
	p.statementOrBlock()
	p.fc.emitLoop(loopStart, line)

	p.fc.patchJump(exitJump)
}

func (p *parser) returnStmt() {
	line := p.prev.line
	if p.check(tkSemicolon) {
		p.fc.emitOp(vm.OpNull, line)
	} else {
		p.expression()
	}
	p.expect(tkSemicolon, "expected ';' after return value")
	p.fc.emitOp(vm.OpReturn, line)
}

func (p *parser) exprStmt() {
	p.expression()
	p.expect(tkSemicolon, "expected ';' after expression")
	p.fc.emitOp(vm.OpPop, p.prev.line)
}
