package compiler

import "ember/internal/vm"

// expression compiles one expression, leaving its value on top of the
// stack. The chain below climbs from the loosest-binding form
// (assignment) down to primaries, each level deferring to the next for
// its operands.
func (p *parser) expression() { p.parseAssignment() }

// parseAssignment special-cases the common "bare identifier = value"
// shape up front, since it needs no lookahead beyond the token after
// the identifier. Every other assignment target (this.field, a
// dotted setter, or an indexing expression) is discovered inside
// parsePostfix by speculatively emitting the matching getter and
// rewinding if an '=' follows — see funcCompiler.mark/truncate.
func (p *parser) parseAssignment() {
	if p.check(tkIdent) && p.peekNext().kind == tkEq {
		name := p.cur.text
		line := p.cur.line
		p.advance() // identifier
		p.advance() // '='
		p.parseAssignment()
		p.emitVarSet(name, line)
		return
	}
	p.parseRange()
}

func (p *parser) emitVarSet(name string, line int) {
	fc := p.fc
	if slot := resolveLocal(fc, name); slot >= 0 {
		fc.emitOp(vm.OpSetLocal, line)
		fc.emitU8(byte(slot), line)
		return
	}
	if up := resolveUpvalue(fc, name); up >= 0 {
		fc.emitOp(vm.OpSetUpvalue, line)
		fc.emitU8(byte(up), line)
		return
	}
	sym := p.module.VariableNames.Find(name)
	if sym < 0 {
		p.errorAtPrev("undefined variable '" + name + "'")
		return
	}
	fc.emitOp(vm.OpSetModuleVar, line)
	fc.emitU16(sym, line)
}

func (p *parser) emitCallSelector(selector string, argc int, line int) {
	sym := p.vm.MethodSymbol(selector)
	p.fc.emitOp(vm.OpCall, line)
	p.fc.emitU8(byte(argc), line)
	p.fc.emitU16(sym, line)
}

func (p *parser) parseRange() {
	p.parseEquality()
	for {
		switch {
		case p.match(tkDotDot):
			line := p.prev.line
			p.parseEquality()
			p.emitCallSelector("..(_)", 1, line)
		case p.match(tkDotDotDot):
			line := p.prev.line
			p.parseEquality()
			p.emitCallSelector("...(_)", 1, line)
		default:
			return
		}
	}
}

func (p *parser) parseEquality() {
	p.parseIs()
	for {
		switch {
		case p.match(tkEqEq):
			line := p.prev.line
			p.parseIs()
			p.emitCallSelector("==(_)", 1, line)
		case p.match(tkBangEq):
			line := p.prev.line
			p.parseIs()
			p.emitCallSelector("!=(_)", 1, line)
		default:
			return
		}
	}
}

func (p *parser) parseIs() {
	p.parseComparison()
	for p.match(tkIs) {
		line := p.prev.line
		p.parseComparison()
		p.emitCallSelector("is(_)", 1, line)
	}
}

func (p *parser) parseComparison() {
	p.parseAdditive()
	for {
		var sel string
		switch {
		case p.match(tkLt):
			sel = "<(_)"
		case p.match(tkLe):
			sel = "<=(_)"
		case p.match(tkGt):
			sel = ">(_)"
		case p.match(tkGe):
			sel = ">=(_)"
		default:
			return
		}
		line := p.prev.line
		p.parseAdditive()
		p.emitCallSelector(sel, 1, line)
	}
}

func (p *parser) parseAdditive() {
	p.parseMultiplicative()
	for {
		var sel string
		switch {
		case p.match(tkPlus):
			sel = "+(_)"
		case p.match(tkMinus):
			sel = "-(_)"
		default:
			return
		}
		line := p.prev.line
		p.parseMultiplicative()
		p.emitCallSelector(sel, 1, line)
	}
}

func (p *parser) parseMultiplicative() {
	p.parseUnary()
	for {
		var sel string
		switch {
		case p.match(tkStar):
			sel = "*(_)"
		case p.match(tkSlash):
			sel = "/(_)"
		case p.match(tkPercent):
			sel = "%(_)"
		default:
			return
		}
		line := p.prev.line
		p.parseUnary()
		p.emitCallSelector(sel, 1, line)
	}
}

func (p *parser) parseUnary() {
	switch {
	case p.match(tkBang):
		line := p.prev.line
		p.parseUnary()
		p.fc.emitOp(vm.OpNot, line)
	case p.match(tkMinus):
		line := p.prev.line
		p.parseUnary()
		p.fc.emitOp(vm.OpNegate, line)
	default:
		p.parsePostfix()
	}
}

// parsePostfix handles the chain of '.', '[...]', and '(...)' suffixes
// that can follow a primary expression: method/getter calls, field
// access, indexing, and direct closure invocation. The '.' and '['
// arms use the emit-then-maybe-truncate trick to support assignment
// without a separate lvalue grammar.
func (p *parser) parsePostfix() {
	p.parsePrimary()
	baseIsThis := p.lastWasThis
	p.lastWasThis = false
	first := true
	for {
		switch {
		case p.match(tkDot):
			fieldEligible := first && baseIsThis
			if p.postfixDot(fieldEligible) {
				return
			}
		case p.match(tkLBracket):
			if p.postfixIndex() {
				return
			}
		case p.match(tkLParen):
			line := p.prev.line
			argc := p.parseArgListAfterParen()
			p.fc.emitOp(vm.OpCallValue, line)
			p.fc.emitU8(byte(argc), line)
		default:
			return
		}
		first = false
	}
}

// postfixDot compiles one ".name", ".name(args)", or ".name = value"
// suffix. fieldEligible is true only when this is the first suffix in
// the chain and the base expression was literally `this`: field names
// are only ever valid directly after `this.`, matching the reference's
// restriction that fields are not a general property-access mechanism.
// It returns true when the suffix was an assignment, which ends the
// postfix chain (the assigned value is the expression's result, the
// same as every other language in this family).
func (p *parser) postfixDot(fieldEligible bool) bool {
	name := p.expectIdentText("expected property name after '.'")
	line := p.prev.line

	if p.match(tkLParen) {
		argc := p.parseArgListAfterParen()
		p.emitCallSelector(methodSelector(name, argc), argc, line)
		return false
	}

	fieldIdx := -1
	if fieldEligible {
		for i, fld := range p.fc.lookupClassFields() {
			if fld == name {
				fieldIdx = i
				break
			}
		}
	}

	// The base (e.g. `this`) is already sitting on top of the stack
	// from parsePrimary/parsePostfix; OpGetField/OpSetField consume it
	// directly rather than assuming any particular frame slot, so
	// field access keeps working inside a closure nested in a method.
	mark := p.fc.mark()
	if fieldIdx >= 0 {
		p.fc.emitOp(vm.OpGetField, line)
		p.fc.emitU8(byte(fieldIdx), line)
	} else {
		p.emitCallSelector(name, 0, line)
	}

	if !p.check(tkEq) {
		return false
	}
	p.advance()
	p.fc.truncate(mark)
	if fieldIdx >= 0 {
		p.parseAssignment()
		p.fc.emitOp(vm.OpSetField, line)
		p.fc.emitU8(byte(fieldIdx), line)
	} else {
		p.parseAssignment()
		p.emitCallSelector(name+"=(_)", 1, line)
	}
	return true
}

// postfixIndex compiles one "[expr]" or "[expr] = value" suffix.
func (p *parser) postfixIndex() bool {
	line := p.prev.line
	p.expression()
	p.expect(tkRBracket, "expected ']' after index expression")

	mark := p.fc.mark()
	p.emitCallSelector("[_]", 1, line)

	if !p.check(tkEq) {
		return false
	}
	p.advance()
	p.fc.truncate(mark)
	p.parseAssignment()
	p.emitCallSelector("[_]=(_)", 2, line)
	return true
}

func (p *parser) parseArgListAfterParen() int {
	argc := 0
	if !p.check(tkRParen) {
		for {
			p.expression()
			argc++
			if !p.match(tkComma) {
				break
			}
			if p.hadError {
				break
			}
		}
	}
	p.expect(tkRParen, "expected ')' after arguments")
	return argc
}

func (p *parser) parsePrimary() {
	line := p.cur.line
	p.lastWasThis = false
	switch {
	case p.match(tkNumber):
		idx := p.fc.addConstant(vm.NumberVal(p.prev.num))
		p.fc.emitOp(vm.OpConstant, line)
		p.fc.emitU16(idx, line)
	case p.match(tkString):
		idx := p.fc.addConstant(vm.ObjVal(vm.NewString(p.vm, p.prev.text)))
		p.fc.emitOp(vm.OpConstant, line)
		p.fc.emitU16(idx, line)
	case p.match(tkTrue):
		p.fc.emitOp(vm.OpTrue, line)
	case p.match(tkFalse):
		p.fc.emitOp(vm.OpFalse, line)
	case p.match(tkNull):
		p.fc.emitOp(vm.OpNull, line)
	case p.match(tkThis):
		p.parseThis(line)
	case p.match(tkIdent):
		p.identifierGet(p.prev.text, line)
	case p.match(tkLParen):
		p.expression()
		p.expect(tkRParen, "expected ')' after expression")
	case p.match(tkLBracket):
		p.listLiteral(line)
	case p.match(tkLBrace):
		p.mapLiteral(line)
	case p.match(tkFn):
		p.functionBody("<fn>", nil)
	default:
		p.errorAtCurrent("expected expression")
	}
}

func (p *parser) parseThis(line int) {
	if p.fc.lookupClassFields() == nil {
		p.errorAtPrev("'this' used outside a method")
		return
	}
	p.lastWasThis = true
	if slot := resolveLocal(p.fc, "this"); slot >= 0 {
		p.fc.emitOp(vm.OpGetLocal, line)
		p.fc.emitU8(byte(slot), line)
		return
	}
	up := resolveUpvalue(p.fc, "this")
	p.fc.emitOp(vm.OpGetUpvalue, line)
	p.fc.emitU8(byte(up), line)
}

func (p *parser) identifierGet(name string, line int) {
	if slot := resolveLocal(p.fc, name); slot >= 0 {
		p.fc.emitOp(vm.OpGetLocal, line)
		p.fc.emitU8(byte(slot), line)
		return
	}
	if up := resolveUpvalue(p.fc, name); up >= 0 {
		p.fc.emitOp(vm.OpGetUpvalue, line)
		p.fc.emitU8(byte(up), line)
		return
	}
	sym := p.module.VariableNames.Find(name)
	if sym < 0 {
		p.errorAtPrev("undefined variable '" + name + "'")
		sym = 0
	}
	p.fc.emitOp(vm.OpGetModuleVar, line)
	p.fc.emitU16(sym, line)
}

func (p *parser) listLiteral(line int) {
	p.fc.emitOp(vm.OpList, line)
	if !p.check(tkRBracket) {
		for {
			p.expression()
			p.fc.emitOp(vm.OpListAppend, p.prev.line)
			if !p.match(tkComma) {
				break
			}
			if p.hadError {
				break
			}
		}
	}
	p.expect(tkRBracket, "expected ']' after list literal")
}

func (p *parser) mapLiteral(line int) {
	p.fc.emitOp(vm.OpMap, line)
	if !p.check(tkRBrace) {
		for {
			p.expression()
			p.expect(tkColon, "expected ':' in map literal")
			p.expression()
			p.fc.emitOp(vm.OpMapInsert, p.prev.line)
			if !p.match(tkComma) {
				break
			}
			if p.hadError {
				break
			}
		}
	}
	p.expect(tkRBrace, "expected '}' after map literal")
}
