package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"stylusguard/grammar"
	"stylusguard/internal/errors"
	"stylusguard/internal/ir"
)

// Dialect hints which contract flavor the source is written in.
type Dialect string

const (
	// DialectAuto lets the builder decide from the source itself.
	DialectAuto Dialect = ""
	// DialectStylus is the Rust dialect Stylus contracts are written in.
	DialectStylus Dialect = "stylus"
)

// Diagnostic records a region the builder had to skip. The analysis keeps
// going; the diagnostic surfaces in the final report.
type Diagnostic struct {
	Pos     ir.Position
	Message string
}

// ParseResult is a built contract model plus the diagnostics recovery
// produced along the way.
type ParseResult struct {
	Contract    *ir.Contract
	Diagnostics []Diagnostic
}

// Build lexes and structurally parses contract source into the IR. It is
// pure extraction: no analysis judgment happens here. A malformed function
// is skipped with a diagnostic and parsing resumes at the next declaration;
// Build fails outright only when the dialect is unsupported, the source
// cannot be lexed, or zero structure is recoverable.
func Build(filename, source string, dialect Dialect) (*ParseResult, error) {
	switch dialect {
	case DialectAuto, DialectStylus:
	default:
		return nil, &errors.ParseError{
			Pos:    ir.Position{File: filename, Line: 1, Column: 1},
			Reason: fmt.Sprintf("unsupported dialect %q", dialect),
		}
	}

	tokens, err := grammar.Lex(filename, source)
	if err != nil {
		return nil, &errors.ParseError{
			Pos:    ir.Position{File: filename, Line: 1, Column: 1},
			Reason: err.Error(),
		}
	}

	p := &Parser{
		filename: filename,
		tokens:   tokens,
		contract: &ir.Contract{File: filename},
		slots:    make(map[string]*ir.StorageSlot),
	}
	p.parse()

	if p.contract.Name == "" {
		p.contract.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if len(p.contract.Functions) == 0 && len(p.contract.Storage) == 0 {
		pos := ir.Position{File: filename, Line: 1, Column: 1}
		if len(p.diagnostics) > 0 {
			pos = p.diagnostics[0].Pos
		}
		return nil, &errors.ParseError{Pos: pos, Reason: "no contract structure recoverable"}
	}

	p.summarizeStorageAccess()
	return &ParseResult{Contract: p.contract, Diagnostics: p.diagnostics}, nil
}

// Parser walks the token stream once, collecting declarations. It carries
// no analysis state beyond what the IR needs.
type Parser struct {
	filename    string
	tokens      []grammar.Token
	current     int
	contract    *ir.Contract
	slots       map[string]*ir.StorageSlot
	diagnostics []Diagnostic

	// pending declaration context, reset after each consumed declaration
	pendingAttrs     []string
	pendingDoc       bool
	pendingPub       bool
	pendingPubScoped bool     // pub(crate), pub(super): not externally callable
	externalImpl     bool     // inside an impl block marked #[external] or #[public]
	implDepth        int      // brace depth of that impl block
	braceDepth       int
}

func (p *Parser) parse() {
	for !p.isAtEnd() {
		tok := p.peek()
		switch {
		case tok.Kind == grammar.KindDocComment:
			p.pendingDoc = true
			p.advance()
		case tok.IsComment():
			p.advance()
		case tok.IsPunct("#"):
			p.scanAttribute()
		case tok.IsIdent("sol_storage") && p.checkAt(1, grammar.KindOperator, "!"):
			p.parseSolStorage()
		case tok.IsIdent("struct"):
			p.parseStruct()
		case tok.IsIdent("impl"):
			p.parseImplHeader()
		case tok.IsIdent("fn"):
			p.parseFunction()
		case tok.IsIdent("pub"):
			p.pendingPub = true
			p.advance()
			if p.peek().IsPunct("(") {
				p.pendingPubScoped = true
				for !p.isAtEnd() && !p.peek().IsPunct(")") {
					p.advance()
				}
				p.advance() // ')'
			}
		case tok.IsPunct("{"):
			p.braceDepth++
			p.advance()
		case tok.IsPunct("}"):
			p.braceDepth--
			if p.externalImpl && p.braceDepth < p.implDepth {
				p.externalImpl = false
			}
			p.advance()
		default:
			p.advance()
		}
	}
}

// scanAttribute consumes `#[...]` and records its first path segment, e.g.
// "entrypoint", "external", "stylus_sdk". Doc state survives attributes so
// `/// doc` + `#[attr]` + `fn` still marks the function documented.
func (p *Parser) scanAttribute() {
	p.advance() // '#'
	if !p.peek().IsPunct("[") {
		return
	}
	p.advance() // '['
	depth := 1
	first := true
	for !p.isAtEnd() && depth > 0 {
		tok := p.advance()
		switch {
		case tok.IsPunct("["):
			depth++
		case tok.IsPunct("]"):
			depth--
		case first && tok.Kind == grammar.KindIdent:
			p.pendingAttrs = append(p.pendingAttrs, tok.Text)
			first = false
		}
	}
}

// parseImplHeader consumes `impl Name {` and adopts Name as the contract
// name when none is known yet. An #[external] or #[public] attribute marks
// every pub fn inside as externally callable.
func (p *Parser) parseImplHeader() {
	p.advance() // 'impl'
	// Skip generics and trait paths up to the implemented type name: the
	// last identifier before '{' or 'for' target wins.
	var name string
	for !p.isAtEnd() && !p.peek().IsPunct("{") {
		if p.peek().Kind == grammar.KindIdent && !p.peek().IsIdent("for") {
			name = p.peek().Text
		}
		p.advance()
	}
	if p.contract.Name == "" && name != "" {
		p.contract.Name = name
	}
	if p.hasPendingAttr("external") || p.hasPendingAttr("public") {
		p.externalImpl = true
		p.implDepth = p.braceDepth + 1
	}
	p.clearPending()
}

func (p *Parser) hasPendingAttr(name string) bool {
	for _, attr := range p.pendingAttrs {
		if attr == name {
			return true
		}
	}
	return false
}

func (p *Parser) clearPending() {
	p.pendingAttrs = nil
	p.pendingDoc = false
	p.pendingPub = false
	p.pendingPubScoped = false
}

// diag records a recovery diagnostic at a position.
func (p *Parser) diag(pos ir.Position, format string, args ...any) {
	p.diagnostics = append(p.diagnostics, Diagnostic{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// synchronize skips tokens until the next declaration keyword at brace
// depth zero-or-current, so one malformed region cannot poison the rest.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		tok := p.peek()
		if tok.IsIdent("fn") || tok.IsIdent("struct") || tok.IsIdent("impl") || tok.IsIdent("pub") {
			return
		}
		if tok.IsPunct("{") {
			p.braceDepth++
		}
		if tok.IsPunct("}") {
			p.braceDepth--
		}
		p.advance()
	}
}

// summarizeStorageAccess back-fills each slot's reader/writer lists from
// the operations collected per function, keeping declaration order.
func (p *Parser) summarizeStorageAccess() {
	for _, fn := range p.contract.Functions {
		seenRead := make(map[string]bool)
		seenWrite := make(map[string]bool)
		for _, op := range fn.Ops {
			switch op.Kind {
			case ir.OpStorageRead:
				if slot := p.slot(op.Target, op.Pos); slot != nil && !seenRead[op.Target] {
					slot.ReadBy = append(slot.ReadBy, fn.Name)
					seenRead[op.Target] = true
				}
			case ir.OpStorageWrite:
				if slot := p.slot(op.Target, op.Pos); slot != nil && !seenWrite[op.Target] {
					slot.WrittenBy = append(slot.WrittenBy, fn.Name)
					seenWrite[op.Target] = true
				}
			}
		}
	}
}

// slot resolves a storage slot by name, creating an implicit value slot
// for fields accessed but never declared (partial sources still analyze).
func (p *Parser) slot(name string, pos ir.Position) *ir.StorageSlot {
	if name == "" {
		return nil
	}
	if slot, ok := p.slots[name]; ok {
		return slot
	}
	slot := &ir.StorageSlot{Name: name, TypeClass: ir.TypeClassValue, Pos: pos}
	p.slots[name] = slot
	p.contract.Storage = append(p.contract.Storage, slot)
	return slot
}

// Token cursor helpers.

func (p *Parser) isAtEnd() bool { return p.current >= len(p.tokens) }

func (p *Parser) peek() grammar.Token {
	if p.isAtEnd() {
		return grammar.Token{}
	}
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) grammar.Token {
	idx := p.current + offset
	if idx < 0 || idx >= len(p.tokens) {
		return grammar.Token{}
	}
	return p.tokens[idx]
}

func (p *Parser) checkAt(offset int, kind, text string) bool {
	tok := p.peekAt(offset)
	return tok.Kind == kind && tok.Text == text
}

func (p *Parser) advance() grammar.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) pos(tok grammar.Token) ir.Position {
	return ir.Position{File: p.filename, Line: tok.Pos.Line, Column: tok.Pos.Column}
}
