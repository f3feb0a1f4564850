package grammar

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind names mirror the rule names in StylusLexer.
const (
	KindDocComment   = "DocComment"
	KindComment      = "Comment"
	KindBlockComment = "BlockComment"
	KindString       = "String"
	KindChar         = "Char"
	KindLifetime     = "Lifetime"
	KindInteger      = "Integer"
	KindIdent        = "Ident"
	KindOperator     = "Operator"
	KindPunct        = "Punct"
)

// Token is a single lexed token with its source position.
type Token struct {
	Kind string
	Text string
	Pos  lexer.Position
}

// Is reports whether the token has the given kind and exact text.
func (t Token) Is(kind, text string) bool { return t.Kind == kind && t.Text == text }

// IsIdent reports whether the token is the identifier text.
func (t Token) IsIdent(text string) bool { return t.Is(KindIdent, text) }

// IsPunct reports whether the token is the punctuation text.
func (t Token) IsPunct(text string) bool { return t.Is(KindPunct, text) }

// IsOperator reports whether the token is the operator text.
func (t Token) IsOperator(text string) bool { return t.Is(KindOperator, text) }

// IsComment reports whether the token is any comment form.
func (t Token) IsComment() bool {
	return t.Kind == KindComment || t.Kind == KindDocComment || t.Kind == KindBlockComment
}

// Lex tokenizes source and returns all tokens except whitespace. Comments
// are kept: doc comments feed documentation-coverage analysis and regular
// comments keep positions honest for diagnostics.
func Lex(filename, source string) ([]Token, error) {
	lx, err := StylusLexer.Lex(filename, strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("lexer init failed: %w", err)
	}

	symbols := symbolNames()
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, fmt.Errorf("%s:%d:%d: %w", filename, tok.Pos.Line, tok.Pos.Column, err)
		}
		if tok.EOF() {
			break
		}
		kind := symbols[tok.Type]
		if kind == "Whitespace" {
			continue
		}
		tokens = append(tokens, Token{Kind: kind, Text: tok.Value, Pos: tok.Pos})
	}
	return tokens, nil
}

func symbolNames() map[lexer.TokenType]string {
	names := make(map[lexer.TokenType]string, len(StylusLexer.Symbols()))
	for name, typ := range StylusLexer.Symbols() {
		names[typ] = name
	}
	return names
}
