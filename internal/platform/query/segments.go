package query

import (
	"regexp"
	"strings"
)

// quotedSegmentPattern matches a double-quoted segment on a single line. Inner
// quotes must be backslash-escaped and the closing quote must not follow a
// backslash.
var quotedSegmentPattern = regexp.MustCompile(`"(?:\\*[^"\\\n]|\\+")*"`)

// segment is a slice of the query that is either inside or outside quotes.
type segment struct {
	text   string
	quoted bool
}

// splitSegments splits s into alternating unquoted and quoted segments. The
// result always starts and ends with an unquoted segment (possibly empty), so
// the first and last elements are the text before the first and after the
// last quoted segment.
func splitSegments(s string) []segment {
	locs := quotedSegmentPattern.FindAllStringIndex(s, -1)
	segments := make([]segment, 0, 2*len(locs)+1)
	prev := 0
	for _, loc := range locs {
		segments = append(segments,
			segment{text: s[prev:loc[0]]},
			segment{text: s[loc[0]:loc[1]], quoted: true},
		)
		prev = loc[1]
	}
	return append(segments, segment{text: s[prev:]})
}

func joinSegments(segments []segment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.text)
	}
	return b.String()
}

// modifyUnquoted applies fn to every segment outside quotes and reassembles
// the string in its original order.
func modifyUnquoted(s string, fn func(string) string) string {
	segments := splitSegments(s)
	for i := range segments {
		if !segments[i].quoted {
			segments[i].text = fn(segments[i].text)
		}
	}
	return joinSegments(segments)
}

// modifyLeading applies fn to the unquoted text at the start of s.
func modifyLeading(s string, fn func(string) string) string {
	segments := splitSegments(s)
	segments[0].text = fn(segments[0].text)
	return joinSegments(segments)
}

// modifyTrailing applies fn to the unquoted text at the end of s.
func modifyTrailing(s string, fn func(string) string) string {
	segments := splitSegments(s)
	last := len(segments) - 1
	segments[last].text = fn(segments[last].text)
	return joinSegments(segments)
}
