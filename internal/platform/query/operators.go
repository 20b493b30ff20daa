package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Word spans
//
// The operator passes work on an unquoted segment split into spans: maximal
// runs of word characters, runs of whitespace, and single other characters.
// A keyword is a word span that is exactly AND, OR or NOT, which is the same
// rule the grammar applies, so "ORANGE" or "BRAND" are never touched.
// ---------------------------------------------------------------------------

type spanKind int

const (
	spanWord spanKind = iota
	spanSpace
	spanOpen
	spanClose
	spanOther
)

type span struct {
	kind spanKind
	text string
}

func (s span) isOperator() bool {
	if s.kind != spanWord {
		return false
	}
	switch Operator(s.text) {
	case OpAnd, OpOr, OpNot:
		return true
	}
	return false
}

func (s span) isBinaryOperator() bool {
	return s.kind == spanWord && (s.text == string(OpAnd) || s.text == string(OpOr))
}

func (s span) isNot() bool {
	return s.kind == spanWord && s.text == string(OpNot)
}

// splitSpans cuts an unquoted segment into spans.
func splitSpans(s string) []span {
	var spans []span
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case isWordRune(r):
			j := i + size
			for j < len(s) {
				r2, size2 := utf8.DecodeRuneInString(s[j:])
				if !isWordRune(r2) {
					break
				}
				j += size2
			}
			spans = append(spans, span{kind: spanWord, text: s[i:j]})
			i = j
		case unicode.IsSpace(r):
			j := i + size
			for j < len(s) {
				r2, size2 := utf8.DecodeRuneInString(s[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += size2
			}
			spans = append(spans, span{kind: spanSpace, text: s[i:j]})
			i = j
		case r == '(':
			spans = append(spans, span{kind: spanOpen, text: "("})
			i += size
		case r == ')':
			spans = append(spans, span{kind: spanClose, text: ")"})
			i += size
		default:
			spans = append(spans, span{kind: spanOther, text: s[i : i+size]})
			i += size
		}
	}
	return spans
}

func joinSpans(spans []span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.text)
	}
	return b.String()
}

// skipBinaryOperators consumes a run of AND/OR keywords starting at from,
// together with the whitespace around them. It reports the index after the
// run and whether at least one operator was consumed.
func skipBinaryOperators(spans []span, from int) (int, bool) {
	i, found := from, false
	for {
		k := i
		if k < len(spans) && spans[k].kind == spanSpace {
			k++
		}
		if k < len(spans) && spans[k].isBinaryOperator() {
			i, found = k+1, true
			continue
		}
		break
	}
	if !found {
		return from, false
	}
	if i < len(spans) && spans[i].kind == spanSpace {
		i++
	}
	return i, true
}

// trimTrailingOperators drops a run of NOT/AND/OR keywords at the end of
// spans, together with the whitespace before, between and after them.
func trimTrailingOperators(spans []span) ([]span, bool) {
	end := len(spans)
	if end > 0 && spans[end-1].kind == spanSpace {
		end--
	}
	found := false
	for end > 0 && spans[end-1].isOperator() {
		end--
		found = true
		if end > 0 && spans[end-1].kind == spanSpace {
			end--
		}
	}
	if !found {
		return spans, false
	}
	return spans[:end], true
}

// ---------------------------------------------------------------------------
// Operator passes
// ---------------------------------------------------------------------------

// collapseConsecutiveOperators reduces a run of keywords that contains a
// binary operator after its first keyword to that first keyword, keeping a
// NOT that directly follows the last binary operator of the run:
//
//	foo AND AND bar        -> foo AND bar
//	foo NOT AND bar        -> foo NOT bar
//	foo AND OR NOT bar     -> foo AND NOT bar
//	foo AND NOT OR NOT bar -> foo AND NOT bar
func collapseConsecutiveOperators(s string) string {
	return modifyUnquoted(s, func(seg string) string {
		spans := splitSpans(seg)
		out := make([]span, 0, len(spans))
		for i := 0; i < len(spans); {
			if !spans[i].isOperator() {
				out = append(out, spans[i])
				i++
				continue
			}

			run := []int{i}
			for {
				k := run[len(run)-1] + 1
				if k < len(spans) && spans[k].kind == spanSpace {
					k++
				}
				if k < len(spans) && spans[k].isOperator() {
					run = append(run, k)
					continue
				}
				break
			}

			last := -1
			for r := len(run) - 1; r > 0; r-- {
				if spans[run[r]].isBinaryOperator() {
					last = r
					break
				}
			}
			if last < 0 {
				end := run[len(run)-1] + 1
				out = append(out, spans[i:end]...)
				i = end
				continue
			}

			out = append(out, spans[i])
			if i+1 < len(spans) && spans[i+1].kind == spanSpace {
				out = append(out, spans[i+1])
			}
			if last+1 < len(run) && spans[run[last+1]].isNot() {
				out = append(out, spans[run[last+1]])
				i = run[last+1] + 1
				continue
			}
			i = run[last] + 1
			if i < len(spans) && spans[i].kind == spanSpace {
				i++
			}
		}
		return joinSpans(out)
	})
}

// stripLeadingBinaryOperators removes AND/OR keywords at the very start.
func stripLeadingBinaryOperators(s string) string {
	return modifyLeading(s, func(seg string) string {
		spans := splitSpans(seg)
		next, found := skipBinaryOperators(spans, 0)
		if !found {
			return seg
		}
		return joinSpans(spans[next:])
	})
}

// stripTrailingOperators removes NOT/AND/OR keywords at the very end.
func stripTrailingOperators(s string) string {
	return modifyTrailing(s, func(seg string) string {
		spans, found := trimTrailingOperators(splitSpans(seg))
		if !found {
			return seg
		}
		return joinSpans(spans)
	})
}

// stripOperatorsAfterOpenParen removes AND/OR keywords directly after "(".
func stripOperatorsAfterOpenParen(s string) string {
	return modifyUnquoted(s, func(seg string) string {
		spans := splitSpans(seg)
		out := make([]span, 0, len(spans))
		for i := 0; i < len(spans); i++ {
			out = append(out, spans[i])
			if spans[i].kind != spanOpen {
				continue
			}
			if next, found := skipBinaryOperators(spans, i+1); found {
				i = next - 1
			}
		}
		return joinSpans(out)
	})
}

// stripOperatorsBeforeCloseParen removes NOT/AND/OR keywords directly before ")".
func stripOperatorsBeforeCloseParen(s string) string {
	return modifyUnquoted(s, func(seg string) string {
		spans := splitSpans(seg)
		out := make([]span, 0, len(spans))
		for _, sp := range spans {
			if sp.kind == spanClose {
				out, _ = trimTrailingOperators(out)
			}
			out = append(out, sp)
		}
		return joinSpans(out)
	})
}

// removeEmptyParens drops "()" pairs that enclose only whitespace, including
// groups that become empty once their inner groups are dropped, in one scan.
func removeEmptyParens(s string) string {
	return modifyUnquoted(s, func(seg string) string {
		out := make([]byte, 0, len(seg))
		var open []int // offsets in out of unclosed "("
		for i := 0; i < len(seg); i++ {
			switch c := seg[i]; c {
			case '(':
				open = append(open, len(out))
				out = append(out, c)
			case ')':
				if len(open) == 0 {
					out = append(out, c)
					continue
				}
				start := open[len(open)-1]
				open = open[:len(open)-1]
				if isBlank(out[start+1:]) {
					out = out[:start]
					continue
				}
				out = append(out, c)
			default:
				out = append(out, c)
			}
		}
		return string(out)
	})
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\v' && c != '\f' {
			return false
		}
	}
	return true
}
