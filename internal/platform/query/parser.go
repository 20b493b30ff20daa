// Package query repairs free-text boolean search queries and parses them into
// an expression tree that can be serialized back to canonical text.
package query

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every error the grammar reports. User input never
// produces it: the repair passes remove everything the grammar rejects, so a
// syntax error means the passes and the grammar disagree.
var ErrSyntax = errors.New("query syntax error")

// SyntaxError describes where the grammar stopped.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Parser repairs and parses boolean search queries. A Parser holds no
// per-call state and may be shared between goroutines.
type Parser struct {
	normalizeUnicode bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithUnicodeNormalization toggles NFC composition of the input before any
// repair pass runs. It is enabled by default.
func WithUnicodeNormalization(enabled bool) Option {
	return func(p *Parser) {
		p.normalizeUnicode = enabled
	}
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{normalizeUnicode: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse repairs and parses q with the default Parser.
func Parse(q string) (Node, []string, error) {
	return defaultParser.Parse(q)
}

// Repair normalizes q with the default Parser.
func Repair(q string) (string, []string) {
	return defaultParser.Repair(q)
}

// Repair returns the cleaned query and the description of every repair
// pass that changed it, in the order the passes ran.
func (p *Parser) Repair(q string) (string, []string) {
	return repair(q, p.normalizeUnicode)
}

// Parse repairs q and parses the result. The node is nil when nothing is
// left after the repairs. Malformed input is never an error; a non-nil error
// wraps ErrSyntax and indicates an internal inconsistency.
func (p *Parser) Parse(q string) (Node, []string, error) {
	cleaned, fixes := p.Repair(q)
	if cleaned == "" {
		return nil, fixes, nil
	}

	node, err := parseCleaned(cleaned)
	if err != nil {
		return nil, fixes, fmt.Errorf("parse repaired query %q: %w", cleaned, err)
	}
	return node, fixes, nil
}

// ---------------------------------------------------------------------------
// Recursive descent parser
//
// Grammar (highest precedence last):
//   orExpr   -> andExpr ("OR" orExpr)?
//   andExpr  -> notExpr ("AND" andExpr | andExpr)?
//   notExpr  -> "NOT" notExpr | primary
//   primary  -> "(" orExpr ")" | PHRASE | WORD
//
// The bare "andExpr" alternative is the implicit AND between juxtaposed terms.
// ---------------------------------------------------------------------------

type queryParser struct {
	tokens []queryToken
	pos    int
	end    int // byte length of the input, for end-of-input errors
}

func parseCleaned(q string) (Node, error) {
	tokens, err := tokenizeQuery(q)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &SyntaxError{Pos: 0, Msg: "empty query"}
	}

	p := &queryParser{tokens: tokens, end: len(q)}
	node, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t != nil {
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %s %q", t.Type, t.Value)}
	}
	return node, nil
}

func (p *queryParser) peek() *queryToken {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *queryParser) advance() *queryToken {
	t := p.peek()
	if t != nil {
		p.pos++
	}
	return t
}

func (p *queryParser) parseOrExpr() (Node, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t == nil || t.Type != tokenOr {
		return left, nil
	}
	p.advance() // consume "OR"
	right, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Operator: OpOr, Left: left, Right: right}, nil
}

func (p *queryParser) parseAndExpr() (Node, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t == nil {
		return left, nil
	}

	switch t.Type {
	case tokenAnd:
		p.advance() // consume "AND"
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Operator: OpAnd, Left: left, Right: right}, nil

	case tokenNot, tokenLParen, tokenWord, tokenPhrase:
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Operator: OpAnd, Left: left, Right: right, Implicit: true}, nil

	default:
		return left, nil
	}
}

func (p *queryParser) parseNotExpr() (Node, error) {
	t := p.peek()
	if t != nil && t.Type == tokenNot {
		p.advance() // consume "NOT"
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Operator: OpNot, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *queryParser) parsePrimary() (Node, error) {
	t := p.advance()
	if t == nil {
		return nil, &SyntaxError{Pos: p.end, Msg: "unexpected end of query, expected a term or '('"}
	}

	switch t.Type {
	case tokenLParen:
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		closing := p.advance()
		if closing == nil {
			return nil, &SyntaxError{Pos: p.end, Msg: "expected ')' to close parenthesized expression"}
		}
		if closing.Type != tokenRParen {
			return nil, &SyntaxError{Pos: closing.Pos, Msg: fmt.Sprintf("expected ')', got %s %q", closing.Type, closing.Value)}
		}
		return &ParensNode{Expression: expr}, nil

	case tokenPhrase:
		return &TermNode{Type: TermPhrase, Value: t.Value}, nil

	case tokenWord:
		return &TermNode{Type: TermWord, Value: t.Value}, nil

	default:
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %s, expected a term or '('", t.Type)}
	}
}
