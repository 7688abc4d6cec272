package expression

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// formulaLexer splits formula text into raw tokens. Dice terms are not a
// token of their own: "2d6kh" lexes as Number "2" followed by Ident "d6kh",
// and the splitter reassembles them.
var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Reference", Pattern: `@[A-Za-z0-9_.]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenReference
	tokenIdent
	tokenPunct
)

type token struct {
	kind   tokenKind
	value  string
	offset int
}

var tokenKinds = func() map[lexer.TokenType]tokenKind {
	symbols := formulaLexer.Symbols()
	return map[lexer.TokenType]tokenKind{
		symbols["Number"]:    tokenNumber,
		symbols["Reference"]: tokenReference,
		symbols["Ident"]:     tokenIdent,
		symbols["Punct"]:     tokenPunct,
	}
}()

// tokenize lexes text, dropping whitespace.
func tokenize(text string) ([]token, error) {
	lex, err := formulaLexer.LexString("", text)
	if err != nil {
		return nil, newError(KindParse, text, -1, "%v", err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, newError(KindParse, text, -1, "%v", err)
	}

	tokens := make([]token, 0, len(raw))
	for _, t := range raw {
		if t.EOF() {
			continue
		}
		kind, ok := tokenKinds[t.Type]
		if !ok {
			continue // whitespace
		}
		tokens = append(tokens, token{kind: kind, value: t.Value, offset: t.Pos.Offset})
	}
	return tokens, nil
}
