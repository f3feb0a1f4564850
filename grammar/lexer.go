package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// StylusLexer tokenizes the Rust dialect used by Arbitrum Stylus contracts.
// The model builder only needs structural tokens, so the rules stay flat:
// one Root state, longest-match-first ordering.
var StylusLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments (doc comments carry documentation-coverage signal)
		{Name: "DocComment", Pattern: `///[^\n]*|//![^\n]*`, Action: nil},
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "BlockComment", Pattern: `/\*(?s:.*?)\*/`, Action: nil},

		// Literals
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`, Action: nil},
		{Name: "Char", Pattern: `'(\\.|[^'\\])'`, Action: nil},
		{Name: "Lifetime", Pattern: `'[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Integer", Pattern: `0x[0-9a-fA-F_]+|[0-9][0-9_]*`, Action: nil},

		// Identifiers and keywords share one rule; the builder matches on text
		{Name: "Ident", Pattern: `r#[a-zA-Z_][a-zA-Z0-9_]*|[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},

		// Multi-character operators before single characters (order matters)
		{Name: "Operator", Pattern: `=>|->|::|\.\.=|\.\.|\|\||&&|==|!=|<=|>=|<<=|>>=|\+=|-=|\*=|/=|%=|&=|\|=|\^=|<<|>>|[-+*/%=<>&|^!?~]`, Action: nil},

		// Punctuation (after operators so '::' wins over ':')
		{Name: "Punct", Pattern: `[{}()\[\],;:#.@$]`, Action: nil},

		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
