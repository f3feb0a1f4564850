package parser

import (
	"strings"

	"stylusguard/grammar"
	"stylusguard/internal/ir"
)

// bodyScanner walks one brace-matched function body and turns the token
// patterns a Stylus contract uses into IR operations. It is deliberately
// shallow: it never builds an expression tree, it recognizes the shapes
// the detectors care about and nothing else.
type bodyScanner struct {
	p      *Parser
	fn     *ir.Function
	params map[string]bool

	depth       int
	loopStack   []int // brace depths at which loop bodies opened
	pendingLoop bool  // a loop header was consumed, next '{' is its body

	endLine     int
	sawMsgValue bool
}

func newBodyScanner(p *Parser, fn *ir.Function, params map[string]bool) *bodyScanner {
	return &bodyScanner{p: p, fn: fn, params: params}
}

// scan consumes the body from its opening '{' through the matching '}'.
// It reports false when the stream ends first; the partial operations
// collected so far stay on the function.
func (b *bodyScanner) scan() bool {
	open := b.p.advance() // '{'
	b.depth = 1
	b.endLine = open.Pos.Line

	for !b.p.isAtEnd() && b.depth > 0 {
		tok := b.p.peek()
		if tok.Pos.Line > b.endLine {
			b.endLine = tok.Pos.Line
		}
		switch {
		case tok.IsPunct("{"):
			b.depth++
			if b.pendingLoop {
				b.loopStack = append(b.loopStack, b.depth)
				b.pendingLoop = false
			}
			b.p.advance()
		case tok.IsPunct("}"):
			b.depth--
			if n := len(b.loopStack); n > 0 && b.loopStack[n-1] > b.depth {
				b.loopStack = b.loopStack[:n-1]
			}
			b.p.advance()
		case tok.IsComment():
			b.p.advance()
		case tok.IsIdent("self") && b.p.checkAt(1, grammar.KindPunct, "."):
			b.scanSelfChain(tok)
		case tok.IsIdent("msg") && b.p.checkAt(1, grammar.KindOperator, "::"):
			b.scanMsgPath(tok)
		case tok.IsIdent("evm") && b.p.checkAt(1, grammar.KindOperator, "::"):
			b.scanEvmPath(tok)
		case b.isAssertMacro(tok):
			b.scanAssertMacro(tok)
		case b.isEventMacro(tok):
			b.scanEventMacro(tok)
		case tok.IsIdent("unsafe"):
			b.fn.UnsafeBlocks++
			b.p.advance()
		case tok.IsOperator("*") && (b.p.peekAt(1).IsIdent("mut") || b.p.peekAt(1).IsIdent("const")):
			b.fn.RawPointers++
			b.p.advance()
			b.p.advance()
		case tok.IsIdent("for") || tok.IsIdent("while") || tok.IsIdent("loop"):
			b.scanLoopHeader(tok)
		case tok.IsIdent("if") || tok.IsIdent("match"):
			b.emit(ir.Operation{Kind: ir.OpBranch, Pos: b.p.pos(tok), Detail: tok.Text})
			b.fn.Branches++
			b.p.advance()
		case b.isCheckedArith(tok):
			b.emit(ir.Operation{Kind: ir.OpArithmetic, Pos: b.p.pos(tok), Detail: tok.Text, Checked: true})
			b.p.advance()
		case b.scanAlloc(tok):
			// consumed inside scanAlloc
		case b.isExternalCallIdent(tok):
			b.scanExternalCall(tok)
		case tok.Kind == grammar.KindOperator && isCompoundArith(tok.Text):
			b.emit(ir.Operation{Kind: ir.OpArithmetic, Pos: b.p.pos(tok), Detail: tok.Text})
			b.p.advance()
		case tok.Kind == grammar.KindOperator && b.isBinaryArith(tok):
			b.emit(ir.Operation{Kind: ir.OpArithmetic, Pos: b.p.pos(tok), Detail: tok.Text})
			b.p.advance()
		default:
			b.p.advance()
		}
	}
	return b.depth == 0
}

// emit stamps the current loop depth onto the operation.
func (b *bodyScanner) emit(op ir.Operation) {
	op.LoopDepth = len(b.loopStack)
	b.fn.Ops = append(b.fn.Ops, op)
}

var storageReadMethods = map[string]bool{
	"get": true, "get_or_default": true, "getter": true,
	"len": true, "is_empty": true, "contains": true, "contains_key": true,
	"balance": true, "load": true,
}

var storageWriteMethods = map[string]bool{
	"insert": true, "set": true, "setter": true, "push": true, "pop": true,
	"remove": true, "clear": true, "replace": true, "take": true, "write": true,
	"add_assign_checked": true, "sub_assign_checked": true,
}

// scanSelfChain handles `self.<field>...`: field reads and writes through
// accessor methods, direct assignment, and bare reads in expressions. A
// single-segment method call on self that looks like an access check
// becomes a guard.
func (b *bodyScanner) scanSelfChain(selfTok grammar.Token) {
	b.p.advance() // 'self'
	var segments []string
	for b.p.peek().IsPunct(".") && b.p.peekAt(1).Kind == grammar.KindIdent {
		b.p.advance() // '.'
		segments = append(segments, b.p.advance().Text)
	}
	if len(segments) == 0 {
		return
	}
	pos := b.p.pos(selfTok)
	field := segments[0]
	last := segments[len(segments)-1]

	next := b.p.peek()
	switch {
	case next.IsPunct("("):
		// method call; the arguments stay in the stream for the main loop
		if len(segments) == 1 {
			if isGuardName(last) {
				b.emit(ir.Operation{Kind: ir.OpGuard, Pos: pos, Target: last, Detail: "self call"})
			}
			return
		}
		switch {
		case storageWriteMethods[last]:
			b.emit(ir.Operation{Kind: ir.OpStorageWrite, Pos: pos, Target: field, Detail: last})
		case storageReadMethods[last]:
			b.emit(ir.Operation{Kind: ir.OpStorageRead, Pos: pos, Target: field, Detail: last})
		default:
			// unknown accessor, treat as a read of the field
			b.emit(ir.Operation{Kind: ir.OpStorageRead, Pos: pos, Target: field, Detail: last})
		}
	case next.Kind == grammar.KindOperator && isAssignOp(next.Text):
		b.p.advance() // consume the assignment operator
		b.emit(ir.Operation{Kind: ir.OpStorageWrite, Pos: pos, Target: field, Detail: next.Text})
		if next.Text != "=" {
			// compound assignment both reads and computes
			b.emit(ir.Operation{Kind: ir.OpStorageRead, Pos: pos, Target: field, Detail: next.Text})
			b.emit(ir.Operation{Kind: ir.OpArithmetic, Pos: pos, Detail: next.Text})
		}
	default:
		// bare field in an expression
		b.emit(ir.Operation{Kind: ir.OpStorageRead, Pos: pos, Target: field})
	}
}

// scanMsgPath handles msg::value, msg::sender and the transfer family.
func (b *bodyScanner) scanMsgPath(msgTok grammar.Token) {
	name := b.p.peekAt(2).Text
	b.p.advance() // 'msg'
	b.p.advance() // '::'
	b.p.advance() // name
	switch name {
	case "value":
		b.sawMsgValue = true
	case "send", "send_value", "transfer", "transfer_eth":
		b.emitExternalCall(msgTok, "msg::"+name)
	}
}

// scanEvmPath handles evm::log and friends.
func (b *bodyScanner) scanEvmPath(evmTok grammar.Token) {
	name := b.p.peekAt(2).Text
	b.p.advance() // 'evm'
	b.p.advance() // '::'
	b.p.advance() // name
	if name == "log" || strings.HasPrefix(name, "log") || name == "emit_log" {
		b.emit(ir.Operation{Kind: ir.OpEventEmit, Pos: b.p.pos(evmTok), Target: b.firstIdentInParens()})
	}
}

func (b *bodyScanner) isAssertMacro(tok grammar.Token) bool {
	if !b.p.checkAt(1, grammar.KindOperator, "!") {
		return false
	}
	switch tok.Text {
	case "require", "assert", "assert_eq", "assert_ne", "ensure":
		return true
	}
	return false
}

// scanAssertMacro consumes only the macro name and bang; the argument list
// stays in the stream so storage reads inside the condition still count.
// A condition over the caller identity is a guard, anything else a branch.
func (b *bodyScanner) scanAssertMacro(tok grammar.Token) {
	pos := b.p.pos(tok)
	b.p.advance() // name
	b.p.advance() // '!'
	if b.parensMentionCaller() {
		b.emit(ir.Operation{Kind: ir.OpGuard, Pos: pos, Detail: tok.Text})
	} else {
		b.emit(ir.Operation{Kind: ir.OpBranch, Pos: pos, Detail: tok.Text})
		b.fn.Branches++
	}
}

func (b *bodyScanner) isEventMacro(tok grammar.Token) bool {
	if !b.p.checkAt(1, grammar.KindOperator, "!") {
		return false
	}
	return tok.Text == "emit" || tok.Text == "log"
}

func (b *bodyScanner) scanEventMacro(tok grammar.Token) {
	b.p.advance() // name
	b.p.advance() // '!'
	b.emit(ir.Operation{Kind: ir.OpEventEmit, Pos: b.p.pos(tok), Target: b.firstIdentInParens()})
	b.skipParens()
}

// scanLoopHeader consumes a for/while/loop header up to (not including)
// its opening brace and decides whether the iteration count is bounded.
// Iterating a storage collection, `while` over storage state and bare
// `loop` are unbounded.
func (b *bodyScanner) scanLoopHeader(tok grammar.Token) {
	pos := b.p.pos(tok)
	b.p.advance() // keyword
	bounded := true
	target := ""
	if tok.Text == "loop" {
		bounded = false
	}
	for !b.p.isAtEnd() && !b.p.peek().IsPunct("{") && !b.p.peek().IsPunct(";") {
		cur := b.p.peek()
		if cur.IsIdent("self") && b.p.checkAt(1, grammar.KindPunct, ".") &&
			b.p.peekAt(2).Kind == grammar.KindIdent {
			bounded = false
			target = b.p.peekAt(2).Text
			b.emit(ir.Operation{Kind: ir.OpStorageRead, Pos: b.p.pos(cur), Target: target, Detail: "loop bound"})
			b.p.advance()
			b.p.advance()
			b.p.advance()
			continue
		}
		if tok.Text == "while" && cur.IsIdent("true") {
			bounded = false
		}
		b.p.advance()
	}
	b.emit(ir.Operation{Kind: ir.OpLoop, Pos: pos, Target: target, Detail: tok.Text, Bounded: bounded})
	b.fn.Loops++
	b.pendingLoop = true
}

func (b *bodyScanner) isCheckedArith(tok grammar.Token) bool {
	if tok.Kind != grammar.KindIdent || !b.p.peekAt(1).IsPunct("(") {
		return false
	}
	for _, prefix := range []string{"checked_", "saturating_", "wrapping_", "overflowing_"} {
		if strings.HasPrefix(tok.Text, prefix) {
			return true
		}
	}
	return false
}

// scanAlloc recognizes heap allocation shapes and reports whether it
// consumed anything.
func (b *bodyScanner) scanAlloc(tok grammar.Token) bool {
	pos := b.p.pos(tok)
	switch {
	case tok.Kind == grammar.KindIdent && b.p.checkAt(1, grammar.KindOperator, "::"):
		if tok.Text != "Vec" && tok.Text != "String" && tok.Text != "Box" {
			return false
		}
		method := b.p.peekAt(2).Text
		if method != "new" && method != "from" && method != "with_capacity" {
			return false
		}
		b.emit(ir.Operation{Kind: ir.OpMemoryAlloc, Pos: pos, Detail: tok.Text + "::" + method})
		b.p.advance()
		b.p.advance()
		b.p.advance()
		return true
	case (tok.IsIdent("vec") || tok.IsIdent("format")) && b.p.checkAt(1, grammar.KindOperator, "!"):
		b.emit(ir.Operation{Kind: ir.OpMemoryAlloc, Pos: pos, Detail: tok.Text + "!"})
		b.p.advance()
		b.p.advance()
		return true
	case tok.Kind == grammar.KindIdent && b.p.peekAt(-1).IsPunct(".") && b.p.peekAt(1).IsPunct("("):
		switch tok.Text {
		case "clone", "cloned", "to_vec", "to_string", "to_owned", "with_capacity":
			b.emit(ir.Operation{Kind: ir.OpMemoryAlloc, Pos: pos, Detail: "." + tok.Text})
			b.p.advance()
			return true
		}
	}
	return false
}

func (b *bodyScanner) isExternalCallIdent(tok grammar.Token) bool {
	if tok.Kind != grammar.KindIdent {
		return false
	}
	switch tok.Text {
	case "call", "delegate_call", "static_call", "transfer_eth", "raw_call", "RawCall":
		return b.p.peekAt(1).IsPunct("(") || b.p.checkAt(1, grammar.KindOperator, "::")
	}
	return false
}

// scanExternalCall consumes the call identifier (plus a trailing `::path`)
// and records the call with its error-handling and taint signals. The
// argument list stays in the stream.
func (b *bodyScanner) scanExternalCall(tok grammar.Token) {
	target := tok.Text
	b.p.advance()
	for b.p.peek().IsOperator("::") && b.p.peekAt(1).Kind == grammar.KindIdent {
		b.p.advance()
		target += "::" + b.p.advance().Text
	}
	b.emitExternalCall(tok, target)
}

// emitExternalCall records an external call at the current position and
// scans ahead (without consuming) for whether the result is handled and
// whether the destination comes straight from a parameter.
func (b *bodyScanner) emitExternalCall(tok grammar.Token, target string) {
	op := ir.Operation{
		Kind:    ir.OpExternalCall,
		Pos:     b.p.pos(tok),
		Target:  target,
		Handled: b.callResultHandled(),
	}
	op.FromParam = b.parensMentionParam()
	b.emit(op)
	b.p.contract.ExternalCalls = append(b.p.contract.ExternalCalls, &ir.ExternalCall{
		Caller:    b.fn.Name,
		Target:    target,
		Pos:       op.Pos,
		Handled:   op.Handled,
		FromParam: op.FromParam,
	})
}

// callResultHandled peeks past the call's argument list to the end of the
// statement looking for `?`, a result combinator, or a surrounding match.
func (b *bodyScanner) callResultHandled() bool {
	// a `match` or `if let` a few tokens back means the result is inspected
	for off := -1; off >= -8; off-- {
		back := b.p.peekAt(off)
		if back.IsPunct(";") || back.IsPunct("{") || back.IsPunct("}") {
			break
		}
		if back.IsIdent("match") || (back.IsIdent("if") && b.p.peekAt(off+1).IsIdent("let")) ||
			(back.IsIdent("let") && b.p.peekAt(off+1).IsIdent("Ok")) {
			return true
		}
	}
	off := 0
	if !b.p.peekAt(off).IsPunct("(") {
		// skip to the argument list first
		for ; off < 16; off++ {
			if b.p.peekAt(off).IsPunct("(") || b.p.peekAt(off).IsPunct(";") {
				break
			}
		}
	}
	if !b.p.peekAt(off).IsPunct("(") {
		return false
	}
	depth := 0
	for ; off < 256; off++ {
		cur := b.p.peekAt(off)
		if cur.Kind == "" {
			return false
		}
		if cur.IsPunct("(") {
			depth++
		}
		if cur.IsPunct(")") {
			depth--
			if depth == 0 {
				off++
				break
			}
		}
	}
	for ; off < 272; off++ {
		cur := b.p.peekAt(off)
		switch {
		case cur.Kind == "" || cur.IsPunct(";") || cur.IsPunct("{") || cur.IsPunct("}"):
			return false
		case cur.IsOperator("?"):
			return true
		case cur.Kind == grammar.KindIdent:
			switch cur.Text {
			case "unwrap_or", "unwrap_or_default", "unwrap_or_else",
				"expect", "is_ok", "is_err", "map_err", "ok", "unwrap":
				return true
			}
		}
	}
	return false
}

// parensMentionParam peeks into the upcoming argument list for one of the
// function's parameters.
func (b *bodyScanner) parensMentionParam() bool {
	found := false
	b.peekParens(func(tok grammar.Token) {
		if tok.Kind == grammar.KindIdent && b.params[tok.Text] {
			found = true
		}
	})
	return found
}

// parensMentionCaller peeks into the upcoming argument list for a caller
// identity check: msg::sender or an owner/admin/role flavored name.
func (b *bodyScanner) parensMentionCaller() bool {
	found := false
	prev := grammar.Token{}
	b.peekParens(func(tok grammar.Token) {
		if tok.IsIdent("sender") && prev.IsOperator("::") {
			found = true
		}
		if tok.Kind == grammar.KindIdent && isGuardName(tok.Text) {
			found = true
		}
		prev = tok
	})
	return found
}

// peekParens walks the next balanced `( ... )` group without consuming,
// invoking fn on each inner token. A missing group is a no-op.
func (b *bodyScanner) peekParens(visit func(grammar.Token)) {
	off := 0
	for ; off < 4; off++ {
		if b.p.peekAt(off).IsPunct("(") {
			break
		}
	}
	if !b.p.peekAt(off).IsPunct("(") {
		return
	}
	depth := 0
	for ; off < 512; off++ {
		cur := b.p.peekAt(off)
		if cur.Kind == "" {
			return
		}
		if cur.IsPunct("(") {
			depth++
			if depth == 1 {
				continue
			}
		}
		if cur.IsPunct(")") {
			depth--
			if depth == 0 {
				return
			}
		}
		visit(cur)
	}
}

func (b *bodyScanner) firstIdentInParens() string {
	name := ""
	b.peekParens(func(tok grammar.Token) {
		if name == "" && tok.Kind == grammar.KindIdent {
			name = tok.Text
		}
	})
	return name
}

// skipParens consumes the next balanced `( ... )` group.
func (b *bodyScanner) skipParens() {
	for !b.p.isAtEnd() && !b.p.peek().IsPunct("(") {
		if b.p.peek().IsPunct(";") || b.p.peek().IsPunct("{") {
			return
		}
		b.p.advance()
	}
	depth := 0
	for !b.p.isAtEnd() {
		tok := b.p.advance()
		if tok.IsPunct("(") {
			depth++
		}
		if tok.IsPunct(")") {
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// isBinaryArith reports whether an operator token sits between two value
// operands, distinguishing `a + b` from unary minus and dereference.
func (b *bodyScanner) isBinaryArith(tok grammar.Token) bool {
	switch tok.Text {
	case "+", "-", "*", "/", "%":
	default:
		return false
	}
	prev := b.p.peekAt(-1)
	next := b.p.peekAt(1)
	prevOperand := prev.Kind == grammar.KindIdent || prev.Kind == grammar.KindInteger ||
		prev.IsPunct(")") || prev.IsPunct("]")
	nextOperand := next.Kind == grammar.KindIdent || next.Kind == grammar.KindInteger ||
		next.IsPunct("(")
	return prevOperand && nextOperand
}

func isCompoundArith(text string) bool {
	switch text {
	case "+=", "-=", "*=", "/=", "%=":
		return true
	}
	return false
}

func isAssignOp(text string) bool {
	return text == "=" || isCompoundArith(text)
}

func isGuardName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"owner", "admin", "auth", "role", "only", "guard", "permit", "access"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
