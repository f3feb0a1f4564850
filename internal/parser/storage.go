package parser

import (
	"strings"

	"stylusguard/grammar"
	"stylusguard/internal/ir"
)

// parseSolStorage consumes a `sol_storage! { ... }` macro invocation. The
// body holds Solidity-style declarations inside one or more structs; the
// struct carrying #[entrypoint] names the contract.
func (p *Parser) parseSolStorage() {
	p.advance() // 'sol_storage'
	p.advance() // '!'
	if !p.peek().IsPunct("{") {
		p.diag(p.pos(p.peek()), "sol_storage! without a body")
		p.clearPending()
		p.synchronize()
		return
	}
	p.advance() // '{'
	depth := 1

	entrypoint := false
	for !p.isAtEnd() && depth > 0 {
		tok := p.peek()
		switch {
		case tok.IsPunct("{"):
			depth++
			p.advance()
		case tok.IsPunct("}"):
			depth--
			p.advance()
		case tok.IsPunct("#"):
			start := len(p.pendingAttrs)
			p.scanAttribute()
			for _, attr := range p.pendingAttrs[start:] {
				if attr == "entrypoint" {
					entrypoint = true
				}
			}
		case tok.IsIdent("struct"):
			p.advance()
			if name := p.peek(); name.Kind == grammar.KindIdent {
				if entrypoint || p.contract.Name == "" {
					p.contract.Name = name.Text
				}
				p.advance()
			}
			if p.peek().IsPunct("{") {
				p.advance()
				depth++
				p.parseSolidityFields(&depth)
			}
		default:
			p.advance()
		}
	}
	p.clearPending()
}

// parseSolidityFields reads Solidity-style declarations up to the struct's
// closing brace: `mapping(address => uint256) stakes;`, `address[] holders;`,
// `uint256 total_staked;`. The identifier before each ';' is the slot name.
func (p *Parser) parseSolidityFields(depth *int) {
	for !p.isAtEnd() && *depth > 0 {
		tok := p.peek()
		switch {
		case tok.IsPunct("}"):
			*depth = *depth - 1
			p.advance()
			return
		case tok.IsPunct("{"):
			*depth = *depth + 1
			p.advance()
		case tok.IsComment(), tok.Kind == grammar.KindDocComment:
			p.advance()
		default:
			p.parseSolidityField()
		}
	}
}

func (p *Parser) parseSolidityField() {
	start := p.peek()
	class := ir.TypeClassValue
	var lastIdent grammar.Token

	for !p.isAtEnd() {
		tok := p.peek()
		if tok.IsPunct(";") {
			p.advance()
			if lastIdent.Kind == grammar.KindIdent {
				p.declareSlot(lastIdent.Text, class, p.pos(start))
			}
			return
		}
		if tok.IsPunct("}") || tok.IsPunct("{") {
			// malformed field, let the caller handle the brace
			if lastIdent.Kind == grammar.KindIdent {
				p.declareSlot(lastIdent.Text, class, p.pos(start))
			} else {
				p.diag(p.pos(start), "skipped malformed storage declaration")
			}
			return
		}
		switch {
		case tok.IsIdent("mapping"):
			class = ir.TypeClassMapping
		case tok.IsPunct("["):
			if class == ir.TypeClassValue {
				class = ir.TypeClassArray
			}
		case tok.Kind == grammar.KindIdent:
			lastIdent = tok
		}
		p.advance()
	}
}

// parseStruct consumes a Rust struct declaration. Structs whose fields use
// stylus_sdk storage types (StorageMap, StorageU256, ...) declare the
// contract's persistent state; anything else is plain data and is skipped.
func (p *Parser) parseStruct() {
	p.advance() // 'struct'
	nameTok := p.peek()
	if nameTok.Kind != grammar.KindIdent {
		p.diag(p.pos(nameTok), "struct without a name")
		p.clearPending()
		p.synchronize()
		return
	}
	p.advance()

	isEntry := p.hasPendingAttr("entrypoint") || p.hasPendingAttr("storage") ||
		p.hasPendingAttr("stylus_sdk") || p.hasPendingAttr("contract")
	if isEntry && (p.contract.Name == "" || p.hasPendingAttr("entrypoint")) {
		p.contract.Name = nameTok.Text
	}
	p.clearPending()

	// tuple structs and unit structs carry no storage
	if !p.peek().IsPunct("{") {
		p.synchronize()
		return
	}
	p.advance() // '{'
	depth := 1

	for !p.isAtEnd() && depth > 0 {
		tok := p.peek()
		switch {
		case tok.IsPunct("{"):
			depth++
			p.advance()
		case tok.IsPunct("}"):
			depth--
			p.advance()
		case tok.Kind == grammar.KindIdent && p.checkAt(1, grammar.KindPunct, ":") && depth == 1:
			p.parseRustField(tok)
		default:
			p.advance()
		}
	}
}

// parseRustField reads `name: Type,` and declares a slot when Type is a
// stylus_sdk storage type.
func (p *Parser) parseRustField(nameTok grammar.Token) {
	p.advance() // name
	p.advance() // ':'

	var typeIdents []string
	genericDepth := 0
	for !p.isAtEnd() {
		tok := p.peek()
		if genericDepth == 0 && (tok.IsPunct(",") || tok.IsPunct("}")) {
			break
		}
		switch {
		case tok.IsOperator("<"):
			genericDepth++
		case tok.IsOperator(">"):
			genericDepth--
		case tok.Kind == grammar.KindIdent:
			typeIdents = append(typeIdents, tok.Text)
		}
		p.advance()
	}
	if p.peek().IsPunct(",") {
		p.advance()
	}

	class, isStorage := storageTypeClass(typeIdents)
	if isStorage {
		p.declareSlot(nameTok.Text, class, p.pos(nameTok))
	}
}

func storageTypeClass(typeIdents []string) (ir.TypeClass, bool) {
	for _, ident := range typeIdents {
		switch {
		case ident == "StorageMap":
			return ir.TypeClassMapping, true
		case ident == "StorageVec" || ident == "StorageArray":
			return ir.TypeClassArray, true
		case strings.HasPrefix(ident, "Storage"):
			return ir.TypeClassValue, true
		}
	}
	return ir.TypeClassValue, false
}

func (p *Parser) declareSlot(name string, class ir.TypeClass, pos ir.Position) {
	if existing, ok := p.slots[name]; ok {
		// declaration wins over an implicitly created slot
		existing.TypeClass = class
		existing.Pos = pos
		return
	}
	slot := &ir.StorageSlot{Name: name, TypeClass: class, Pos: pos}
	p.slots[name] = slot
	p.contract.Storage = append(p.contract.Storage, slot)
}
