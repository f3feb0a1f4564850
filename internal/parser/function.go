package parser

import (
	"strings"

	"stylusguard/grammar"
	"stylusguard/internal/ir"
)

// parseFunction consumes one `fn` declaration: signature, then the brace
// matched body, recognizing operations as it goes. A malformed declaration
// records a diagnostic and resynchronizes instead of failing the build.
func (p *Parser) parseFunction() {
	fnTok := p.advance() // 'fn'

	nameTok := p.peek()
	if nameTok.Kind != grammar.KindIdent {
		p.diag(p.pos(nameTok), "function without a name, region skipped")
		p.clearPending()
		p.synchronize()
		return
	}
	p.advance()

	fn := &ir.Function{
		Name:       nameTok.Text,
		Pos:        p.pos(fnTok),
		Documented: p.pendingDoc,
	}
	guardAttr := p.hasGuardAttr()
	isPub := p.pendingPub && !p.pendingPubScoped
	isScoped := p.pendingPubScoped
	p.clearPending()

	// skip generics between name and parameter list
	for !p.isAtEnd() && !p.peek().IsPunct("(") && !p.peek().IsPunct("{") && !p.peek().IsPunct(";") {
		p.advance()
	}
	if !p.peek().IsPunct("(") {
		p.diag(p.pos(p.peek()), "function %s has no parameter list, region skipped", fn.Name)
		p.synchronize()
		return
	}

	params, selfKind := p.parseParams()
	fn.ParamCount = len(params)
	fn.Visibility = p.visibilityFor(isPub, isScoped)

	// return type and where clauses sit between ')' and the body
	for !p.isAtEnd() && !p.peek().IsPunct("{") && !p.peek().IsPunct(";") {
		p.advance()
	}
	if p.peek().IsPunct(";") {
		p.advance() // bodyless trait declaration, nothing to analyze
		return
	}
	if !p.peek().IsPunct("{") {
		p.diag(p.pos(fnTok), "function %s has no body, region skipped", fn.Name)
		return
	}

	if guardAttr {
		fn.Ops = append(fn.Ops, ir.Operation{Kind: ir.OpGuard, Pos: fn.Pos, Detail: "attribute"})
	}

	body := newBodyScanner(p, fn, params)
	complete := body.scan()
	fn.EndLine = body.endLine
	fn.Mutability = mutabilityFor(selfKind, body.sawMsgValue, fn)

	if !complete {
		p.diag(fn.Pos, "function %s has an unterminated body, parsed partially", fn.Name)
	}
	p.contract.Functions = append(p.contract.Functions, fn)
}

func (p *Parser) hasGuardAttr() bool {
	for _, attr := range p.pendingAttrs {
		lower := strings.ToLower(attr)
		if strings.Contains(lower, "access") || strings.Contains(lower, "authorize") ||
			strings.Contains(lower, "only") {
			return true
		}
	}
	return false
}

type selfKind int

const (
	selfNone selfKind = iota
	selfRef           // &self
	selfMut           // &mut self or mut self
)

// parseParams consumes `( ... )` and returns the parameter names (self
// excluded) plus how the receiver is taken.
func (p *Parser) parseParams() (map[string]bool, selfKind) {
	p.advance() // '('
	depth := 1
	params := make(map[string]bool)
	kind := selfNone
	sawMut := false

	for !p.isAtEnd() && depth > 0 {
		tok := p.advance()
		switch {
		case tok.IsPunct("("):
			depth++
		case tok.IsPunct(")"):
			depth--
		case tok.IsIdent("mut"):
			sawMut = true
		case tok.IsIdent("self"):
			if sawMut {
				kind = selfMut
			} else {
				kind = selfRef
			}
		case tok.Kind == grammar.KindIdent && depth == 1 && p.peek().IsPunct(":"):
			params[tok.Text] = true
		default:
			if !tok.IsOperator("&") {
				sawMut = false
			}
		}
	}
	return params, kind
}

func (p *Parser) visibilityFor(isPub, isScoped bool) ir.Visibility {
	switch {
	case isPub && p.externalImpl:
		return ir.VisibilityExternal
	case isPub:
		return ir.VisibilityPublic
	case isScoped:
		return ir.VisibilityInternal
	case p.braceDepth > 0:
		return ir.VisibilityPrivate
	default:
		return ir.VisibilityInternal
	}
}

func mutabilityFor(kind selfKind, sawMsgValue bool, fn *ir.Function) ir.Mutability {
	if sawMsgValue {
		return ir.MutabilityPayable
	}
	switch kind {
	case selfMut:
		return ir.MutabilityNonPayable
	case selfRef:
		if len(fn.OpsOfKind(ir.OpStorageWrite)) > 0 {
			return ir.MutabilityNonPayable
		}
		return ir.MutabilityView
	default:
		if len(fn.OpsOfKind(ir.OpStorageWrite)) > 0 {
			return ir.MutabilityNonPayable
		}
		if len(fn.OpsOfKind(ir.OpStorageRead)) > 0 {
			return ir.MutabilityView
		}
		return ir.MutabilityPure
	}
}
