package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexSimpleFunction(t *testing.T) {
	source := `pub fn transfer(&mut self, to: Address, amount: U256) -> Result<bool, Vec<u8>> {
    Ok(true)
}`

	tokens, err := Lex("test.rs", source)
	require.NoError(t, err, "Should lex without errors")
	require.NotEmpty(t, tokens)

	assert.True(t, tokens[0].IsIdent("pub"), "First token should be 'pub'")
	assert.True(t, tokens[1].IsIdent("fn"), "Second token should be 'fn'")
	assert.True(t, tokens[2].IsIdent("transfer"), "Third token should be the function name")
}

func TestLexPositionsAreOneBased(t *testing.T) {
	tokens, err := Lex("test.rs", "fn main() {}")
	require.NoError(t, err)

	assert.Equal(t, 1, tokens[0].Pos.Line)
	assert.Equal(t, 1, tokens[0].Pos.Column)
	assert.Equal(t, 4, tokens[1].Pos.Column, "'main' starts at column 4")
}

func TestLexDocCommentsKept(t *testing.T) {
	source := `/// Transfers tokens between accounts.
pub fn transfer() {}`

	tokens, err := Lex("test.rs", source)
	require.NoError(t, err)

	assert.Equal(t, KindDocComment, tokens[0].Kind)
	assert.Contains(t, tokens[0].Text, "Transfers tokens")
}

func TestLexPathAndMacroTokens(t *testing.T) {
	source := `self.balances.insert(&user, msg::value());
require!(amount > 0, "zero");`

	tokens, err := Lex("test.rs", source)
	require.NoError(t, err)

	var sawPathSep, sawBang, sawString bool
	for _, tok := range tokens {
		if tok.IsOperator("::") {
			sawPathSep = true
		}
		if tok.IsOperator("!") {
			sawBang = true
		}
		if tok.Kind == KindString {
			sawString = true
		}
	}
	assert.True(t, sawPathSep, "Should lex '::' as one operator")
	assert.True(t, sawBang, "Should lex macro bang")
	assert.True(t, sawString, "Should lex string literal")
}

func TestLexBlockCommentSpansLines(t *testing.T) {
	source := "/* first\nsecond */ fn f() {}"

	tokens, err := Lex("test.rs", source)
	require.NoError(t, err)

	assert.Equal(t, KindBlockComment, tokens[0].Kind)
	assert.True(t, tokens[1].IsIdent("fn"), "Block comment should be one token")
}

func TestLexNumericLiterals(t *testing.T) {
	tokens, err := Lex("test.rs", "let x = 0xFF_AA + 1_000;")
	require.NoError(t, err)

	var integers []string
	for _, tok := range tokens {
		if tok.Kind == KindInteger {
			integers = append(integers, tok.Text)
		}
	}
	assert.Equal(t, []string{"0xFF_AA", "1_000"}, integers)
}
