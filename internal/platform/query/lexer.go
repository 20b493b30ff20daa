package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type queryTokenType int

const (
	tokenWord   queryTokenType = iota // A bare word
	tokenPhrase                       // A double-quoted phrase (quotes stripped)
	tokenLParen
	tokenRParen
	tokenAnd
	tokenOr
	tokenNot
)

func (t queryTokenType) String() string {
	switch t {
	case tokenWord:
		return "word"
	case tokenPhrase:
		return "phrase"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenAnd:
		return "AND"
	case tokenOr:
		return "OR"
	case tokenNot:
		return "NOT"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

type queryToken struct {
	Type  queryTokenType
	Value string
	Pos   int // byte offset in the input
}

// tokenizeQuery splits a repaired query into lexical tokens. Keywords are
// recognised only when a whole word equals AND, OR or NOT.
func tokenizeQuery(q string) ([]queryToken, error) {
	var tokens []queryToken
	i := 0
	n := len(q)

	for i < n {
		r, size := utf8.DecodeRuneInString(q[i:])

		if unicode.IsSpace(r) {
			i += size
			continue
		}

		switch r {
		case '(':
			tokens = append(tokens, queryToken{Type: tokenLParen, Value: "(", Pos: i})
			i++
			continue
		case ')':
			tokens = append(tokens, queryToken{Type: tokenRParen, Value: ")", Pos: i})
			i++
			continue
		case '"':
			end := closingQuote(q, i)
			if end < 0 {
				return nil, &SyntaxError{Pos: i, Msg: "unterminated phrase"}
			}
			value := strings.ReplaceAll(q[i+1:end], `\"`, `"`)
			tokens = append(tokens, queryToken{Type: tokenPhrase, Value: value, Pos: i})
			i = end + 1
			continue
		}

		if !isWordRune(r) {
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}

		j := i + size
		for j < n {
			r2, size2 := utf8.DecodeRuneInString(q[j:])
			if !isWordRune(r2) {
				break
			}
			j += size2
		}
		word := q[i:j]

		switch Operator(word) {
		case OpAnd:
			tokens = append(tokens, queryToken{Type: tokenAnd, Value: word, Pos: i})
		case OpOr:
			tokens = append(tokens, queryToken{Type: tokenOr, Value: word, Pos: i})
		case OpNot:
			tokens = append(tokens, queryToken{Type: tokenNot, Value: word, Pos: i})
		default:
			tokens = append(tokens, queryToken{Type: tokenWord, Value: word, Pos: i})
		}
		i = j
	}

	return tokens, nil
}

// closingQuote returns the index of the quote that closes the phrase opened
// at open, or -1. A quote preceded by a backslash does not close a phrase.
func closingQuote(q string, open int) int {
	for j := open + 1; j < len(q); j++ {
		if q[j] == '"' && q[j-1] != '\\' {
			return j
		}
	}
	return -1
}
