package query

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Fix descriptions reported by Repair and Parse, in pass order.
const (
	FixUnbalancedQuotes        = "Fixed unbalanced quotes"
	FixUnbalancedParentheses   = "Fixed unbalanced parentheses"
	FixInvalidCharacters       = "Fixed invalid characters"
	FixConsecutiveOperators    = "Fixed invalid consecutive operators"
	FixOperatorsAtStartOfLine  = "Fixed invalid operators at start of line"
	FixOperatorsAtEndOfLine    = "Fixed invalid operators at end of line"
	FixOperatorsAtStartOfParen = "Fixed invalid operators at start of parentheses"
	FixOperatorsAtEndOfParen   = "Fixed invalid operators at end of parentheses"
	FixEmptyParentheses        = "Fixed empty parentheses"
)

type repairPass struct {
	fix   string
	apply func(string) string
}

// structuralPasses run once, in order.
var structuralPasses = []repairPass{
	{FixUnbalancedQuotes, replaceUnbalancedQuotes},
	{FixUnbalancedParentheses, replaceUnbalancedParentheses},
	{FixInvalidCharacters, replaceInvalidCharacters},
}

// operatorPasses run in order and are repeated until none of them changes the
// query. Removing an empty group can expose a dangling operator ("foo AND ()")
// or another empty group ("(())"), which a single round would leave behind.
var operatorPasses = []repairPass{
	{FixConsecutiveOperators, collapseConsecutiveOperators},
	{FixOperatorsAtStartOfLine, stripLeadingBinaryOperators},
	{FixOperatorsAtEndOfLine, stripTrailingOperators},
	{FixOperatorsAtStartOfParen, stripOperatorsAfterOpenParen},
	{FixOperatorsAtEndOfParen, stripOperatorsBeforeCloseParen},
	{FixEmptyParentheses, removeEmptyParens},
}

// repair runs the full normalization pipeline and returns the cleaned query
// with the fixes that changed it.
func repair(q string, normalizeUnicode bool) (string, []string) {
	fixes := make([]string, 0, 2)
	if normalizeUnicode {
		q = norm.NFC.String(q)
	}

	for _, pass := range structuralPasses {
		if after := pass.apply(q); after != q {
			fixes = append(fixes, pass.fix)
			q = after
		}
	}

	for changed := true; changed; {
		changed = false
		for _, pass := range operatorPasses {
			after := pass.apply(q)
			if after == q {
				continue
			}
			changed = true
			q = after
			if !containsFix(fixes, pass.fix) {
				fixes = append(fixes, pass.fix)
			}
		}
	}

	return tidy(q), fixes
}

func containsFix(fixes []string, fix string) bool {
	for _, f := range fixes {
		if f == fix {
			return true
		}
	}
	return false
}

// replaceUnbalancedQuotes blanks out the opening quote of a phrase that is
// never closed. A quote preceded by a backslash does not count.
func replaceUnbalancedQuotes(s string) string {
	inQuote := false
	lastOpen := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '"' && (i == 0 || s[i-1] != '\\') {
			inQuote = !inQuote
			if inQuote {
				lastOpen = i
			}
		}
	}
	if !inQuote || lastOpen < 0 {
		return s
	}
	return s[:lastOpen] + " " + s[lastOpen+1:]
}

// replaceUnbalancedParentheses blanks out parentheses without a partner.
// Parentheses inside quoted segments are ignored; the segments are the same
// ones every later pass works on, so a phrase the later passes dissolve
// (one spanning a line break, say) has its parentheses balanced here too.
func replaceUnbalancedParentheses(s string) string {
	type parenPos struct{ seg, idx int }

	segments := splitSegments(s)
	texts := make([][]byte, len(segments))
	var open []parenPos

	for i, seg := range segments {
		if seg.quoted {
			continue
		}
		texts[i] = []byte(seg.text)
		for j := 0; j < len(seg.text); j++ {
			switch seg.text[j] {
			case '(':
				open = append(open, parenPos{i, j})
			case ')':
				if len(open) > 0 {
					open = open[:len(open)-1]
				} else {
					texts[i][j] = ' '
				}
			}
		}
	}

	for _, p := range open {
		texts[p.seg][p.idx] = ' '
	}
	for i := range segments {
		if !segments[i].quoted {
			segments[i].text = string(texts[i])
		}
	}
	return joinSegments(segments)
}

// replaceInvalidCharacters drops every character outside phrases that can
// not appear in a word, a parenthesis or a separator.
func replaceInvalidCharacters(s string) string {
	return modifyUnquoted(s, func(seg string) string {
		var b strings.Builder
		b.Grow(len(seg))
		for i := 0; i < len(seg); {
			r, size := utf8.DecodeRuneInString(seg[i:])
			if size == 1 && r == utf8.RuneError {
				i++
				continue
			}
			if isPermittedRune(r) {
				b.WriteString(seg[i : i+size])
			}
			i += size
		}
		return b.String()
	})
}

// isWordRune reports whether r can be part of a WORD term: ASCII letters and
// digits, the Latin-1 letters, underscore, hyphen and apostrophe.
func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == '\'':
		return true
	case r >= 0xC0 && r <= 0xFF:
		return r != 0xD7 && r != 0xF7 // × and ÷
	}
	return false
}

func isPermittedRune(r rune) bool {
	return isWordRune(r) || r == '(' || r == ')' || r == ' '
}

var (
	spaceAfterOpenParen   = regexp.MustCompile(`\(\s*`)
	spaceBeforeCloseParen = regexp.MustCompile(`\s*\)`)
	spaceRun              = regexp.MustCompile(`\s+`)
)

// tidy applies the whitespace cleanup that is never reported as a fix.
func tidy(s string) string {
	s = strings.TrimSpace(s)
	s = modifyUnquoted(s, func(seg string) string {
		seg = spaceAfterOpenParen.ReplaceAllString(seg, "(")
		seg = spaceBeforeCloseParen.ReplaceAllString(seg, ")")
		return spaceRun.ReplaceAllString(seg, " ")
	})
	return s
}
