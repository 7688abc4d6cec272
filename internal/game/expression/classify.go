package expression

import (
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Parse splits, classifies and folds text into an Expression.
// References are expanded from table; table may be nil when text has none.
//
// Precondition: none; malformed text is reported as an *Error.
// Postcondition: the returned expression holds only Sum and Difference
// operators at every level; multiplication and division are Operation nodes.
func Parse(text string, table SubstitutionTable) (Expression, error) {
	p := &parser{table: table}
	return p.parse(text)
}

// Classify splits text into its flat, unfolded top-level components.
// Nested groups, substitutions and function arguments are parsed and folded.
func Classify(text string, table SubstitutionTable) ([]Component, error) {
	p := &parser{table: table}
	return p.classify(text)
}

type parser struct {
	table SubstitutionTable
	// expanding holds the substitution names currently being expanded.
	expanding []string
}

func (p *parser) parse(text string) (Expression, error) {
	components, err := p.classify(text)
	if err != nil {
		return Expression{}, err
	}
	folded, err := Fold(components)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Text == "" {
			e.Text = text
		}
		return Expression{}, err
	}
	return Expression{Text: text, Components: folded}, nil
}

func (p *parser) classify(text string) ([]Component, error) {
	if err := checkParentheses(text); err != nil {
		return nil, err
	}
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	sections, err := splitSections(text, tokens)
	if err != nil {
		return nil, err
	}

	components := make([]Component, 0, len(sections))
	for _, s := range sections {
		c, err := p.classifySection(text, s)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}

// checkParentheses rejects unbalanced parentheses before anything else runs.
func checkParentheses(text string) error {
	var open []int
	for i, r := range text {
		switch r {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				return newError(KindParse, text, i, "unexpected ')'")
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return newError(KindParse, text, open[len(open)-1], "unclosed '('")
	}
	return nil
}

type sectionKind int

const (
	sectionNumber sectionKind = iota
	sectionOperator
	sectionReference
	sectionGroup
	sectionFunction
	sectionDice
	sectionDiceDynamicSides
	sectionDiceDynamicAmount
	sectionDiceDynamicBoth
)

// span is a half-open byte range of text.
type span struct {
	start, end int
}

// section is one top-level piece of a formula before classification.
type section struct {
	kind      sectionKind
	value     string // literal text: number, operator, reference, function name or amount
	sides     string // literal sides for dice
	selectors string
	amount    span // inner text of a parenthesized amount, or a group or call
	sidesExpr span // inner text of a parenthesized sides expression
	pos       int
}

// splitSections groups tokens into operators, atoms and balanced
// parenthesized groups, merging adjacent pieces that form one dice term or
// function call.
func splitSections(text string, tokens []token) ([]section, error) {
	var sections []section
	i := 0
	for i < len(tokens) {
		t := tokens[i]
		switch {
		case t.kind == tokenPunct && t.value == "(":
			group, next := readGroup(tokens, i)
			if next < len(tokens) && tokens[next].kind == tokenIdent {
				ident := tokens[next]
				if ident.value == "d" && next+1 < len(tokens) && tokens[next+1].value == "(" {
					sides, after := readGroup(tokens, next+1)
					selectors, after := readSelectors(tokens, after)
					sections = append(sections, section{
						kind: sectionDiceDynamicBoth, amount: group, sidesExpr: sides,
						selectors: selectors, pos: t.offset,
					})
					i = after
					continue
				}
				sides, selectors, ok := splitDiceIdent(ident.value)
				if !ok {
					return nil, newError(KindParse, text, ident.offset, "unexpected identifier %q", ident.value)
				}
				sections = append(sections, section{
					kind: sectionDiceDynamicAmount, amount: group, sides: sides,
					selectors: selectors, pos: t.offset,
				})
				i = next + 1
				continue
			}
			sections = append(sections, section{kind: sectionGroup, amount: group, pos: t.offset})
			i = next

		case t.kind == tokenPunct && t.value == ",":
			return nil, newError(KindParse, text, t.offset, "unexpected ','")

		case t.kind == tokenPunct && t.value == ")":
			return nil, newError(KindParse, text, t.offset, "unexpected ')'")

		case t.kind == tokenPunct:
			sections = append(sections, section{kind: sectionOperator, value: t.value, pos: t.offset})
			i++

		case t.kind == tokenNumber:
			if i+1 < len(tokens) && tokens[i+1].kind == tokenIdent {
				ident := tokens[i+1]
				if ident.value == "d" && i+2 < len(tokens) && tokens[i+2].value == "(" {
					sides, after := readGroup(tokens, i+2)
					selectors, after := readSelectors(tokens, after)
					sections = append(sections, section{
						kind: sectionDiceDynamicSides, value: t.value, sidesExpr: sides,
						selectors: selectors, pos: t.offset,
					})
					i = after
					continue
				}
				sides, selectors, ok := splitDiceIdent(ident.value)
				if !ok {
					return nil, newError(KindParse, text, ident.offset, "unexpected identifier %q", ident.value)
				}
				sections = append(sections, section{
					kind: sectionDice, value: t.value, sides: sides,
					selectors: selectors, pos: t.offset,
				})
				i += 2
				continue
			}
			sections = append(sections, section{kind: sectionNumber, value: t.value, pos: t.offset})
			i++

		case t.kind == tokenReference:
			sections = append(sections, section{kind: sectionReference, value: t.value[1:], pos: t.offset})
			i++

		case t.kind == tokenIdent:
			if IsFunctionName(t.value) && i+1 < len(tokens) && tokens[i+1].value == "(" {
				args, next := readGroup(tokens, i+1)
				sections = append(sections, section{kind: sectionFunction, value: t.value, amount: args, pos: t.offset})
				i = next
				continue
			}
			if _, _, ok := splitDiceIdent(t.value); ok || t.value == "d" {
				return nil, newError(KindParse, text, t.offset, "dice %q has no amount", t.value)
			}
			return nil, newError(KindParse, text, t.offset, "unexpected identifier %q", t.value)
		}
	}
	return sections, nil
}

// readGroup reads the balanced group opening at tokens[open]. It returns the
// inner text span and the index after the closing parenthesis.
//
// Precondition: parentheses in the source text are balanced.
func readGroup(tokens []token, open int) (span, int) {
	depth := 0
	for j := open; j < len(tokens); j++ {
		switch tokens[j].value {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return span{start: tokens[open].offset + 1, end: tokens[j].offset}, j + 1
			}
		}
	}
	return span{start: tokens[open].offset + 1, end: tokens[len(tokens)-1].offset}, len(tokens)
}

// readSelectors consumes a selector identifier following a parenthesized
// sides expression, as in "2d(6)kh".
func readSelectors(tokens []token, i int) (string, int) {
	if i < len(tokens) && tokens[i].kind == tokenIdent && !IsFunctionName(tokens[i].value) {
		return tokens[i].value, i + 1
	}
	return "", i
}

var diceIdentPattern = regexp.MustCompile(`^d(\d+)(.*)$`)

// splitDiceIdent splits an identifier like "d20dhdl" into sides "20" and
// selectors "dhdl".
func splitDiceIdent(ident string) (sides, selectors string, ok bool) {
	m := diceIdentPattern.FindStringSubmatch(ident)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

var selectorPattern = regexp.MustCompile(`^(kh|kl|dh|dl)(\d*)`)

// parseSelectors parses a selector chain such as "kh2dl". A missing or zero
// count means 1.
func parseSelectors(text string, pos int, chain string) ([]Selector, error) {
	var selectors []Selector
	rest := chain
	for rest != "" {
		m := selectorPattern.FindStringSubmatch(rest)
		if m == nil {
			return nil, newError(KindParse, text, pos, "unknown dice selector %q", rest)
		}
		count := 1
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, newError(KindParse, text, pos, "invalid selector count %q", m[2])
			}
			if n > 0 {
				count = n
			}
		}
		selectors = append(selectors, Selector{Kind: SelectorKind(m[1]), Count: count})
		rest = rest[len(m[0]):]
	}
	return selectors, nil
}

func (p *parser) classifySection(text string, s section) (Component, error) {
	switch s.kind {
	case sectionOperator:
		return Operator{Symbol: Symbol(s.value)}, nil

	case sectionNumber:
		v, err := strconv.ParseFloat(s.value, 64)
		if err != nil {
			return nil, newError(KindParse, text, s.pos, "invalid number %q", s.value)
		}
		return Number{Value: v}, nil

	case sectionReference:
		return p.substitute(text, s.pos, s.value)

	case sectionGroup:
		inner, err := p.parse(text[s.amount.start:s.amount.end])
		if err != nil {
			return nil, err
		}
		return NestedExpression{Value: inner}, nil

	case sectionFunction:
		return p.function(text, s)
	}

	dice := DiceExpression{}
	var err error
	switch s.kind {
	case sectionDice, sectionDiceDynamicSides:
		if dice.Amount, err = literalCount(text, s.pos, "amount", s.value); err != nil {
			return nil, err
		}
	default:
		expr, err := p.parse(text[s.amount.start:s.amount.end])
		if err != nil {
			return nil, err
		}
		dice.AmountExpression = &expr
	}
	switch s.kind {
	case sectionDice, sectionDiceDynamicAmount:
		if dice.Sides, err = literalCount(text, s.pos, "sides", s.sides); err != nil {
			return nil, err
		}
	default:
		expr, err := p.parse(text[s.sidesExpr.start:s.sidesExpr.end])
		if err != nil {
			return nil, err
		}
		dice.SidesExpression = &expr
	}
	if dice.Selectors, err = parseSelectors(text, s.pos, s.selectors); err != nil {
		return nil, err
	}
	return dice, nil
}

func literalCount(text string, pos int, what, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, newError(KindParse, text, pos, "dice %s %q is not a whole number", what, value)
	}
	return n, nil
}

// substitute expands @name from the parser's table.
func (p *parser) substitute(text string, pos int, name string) (Component, error) {
	sub, ok := p.table[name]
	if !ok {
		return nil, newError(KindMissingSubstitution, text, pos, "no substitution for @%s", name)
	}
	if slices.Contains(p.expanding, name) {
		return nil, newError(KindParse, text, pos, "substitution cycle through @%s", name)
	}
	p.expanding = append(p.expanding, name)
	defer func() { p.expanding = p.expanding[:len(p.expanding)-1] }()

	expr, err := p.parse(sub.Expression)
	if err != nil {
		return nil, err
	}
	return NestedExpression{Value: expr, ExtraData: sub.ExtraData}, nil
}

func (p *parser) function(text string, s section) (Component, error) {
	name := FunctionName(s.value)
	fn := functions[name]

	var args []Expression
	inner := text[s.amount.start:s.amount.end]
	if strings.TrimSpace(inner) != "" {
		for _, arg := range splitArguments(inner) {
			arg = strings.TrimSpace(arg)
			if arg == "" {
				return nil, newError(KindParse, text, s.pos, "empty argument to %s", name)
			}
			expr, err := p.parse(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, expr)
		}
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, newError(KindParse, text, s.pos, "%s takes %s, got %d", name, arity(fn), len(args))
	}
	return Function{Name: name, Args: args}, nil
}

// splitArguments splits on commas that are not inside parentheses.
func splitArguments(inner string) []string {
	var args []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, inner[start:i])
				start = i + 1
			}
		}
	}
	return append(args, inner[start:])
}

func arity(fn function) string {
	switch {
	case fn.maxArgs < 0:
		return "at least " + strconv.Itoa(fn.minArgs) + " argument(s)"
	case fn.minArgs == fn.maxArgs:
		return strconv.Itoa(fn.minArgs) + " argument(s)"
	default:
		return strconv.Itoa(fn.minArgs) + " to " + strconv.Itoa(fn.maxArgs) + " arguments"
	}
}
