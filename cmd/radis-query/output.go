package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/radis/radis/internal/config"
	"github.com/radis/radis/internal/domain/search"
)

type parseResult struct {
	*search.ValidatedQuery
	Tree string `json:"tree,omitempty"`
}

func writeParseJSON(w io.Writer, v *search.ValidatedQuery, showTree bool) error {
	res := parseResult{ValidatedQuery: v}
	if showTree && v.Node != nil {
		res.Tree = v.Node.String()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeParseText(w io.Writer, v *search.ValidatedQuery, showTree bool) error {
	var b strings.Builder
	if v.Empty {
		b.WriteString("query: (empty)\n")
	} else {
		fmt.Fprintf(&b, "query: %s\n", v.Query)
	}
	if v.Fixed() {
		b.WriteString("fixes:\n")
		for _, fix := range v.Fixes {
			fmt.Fprintf(&b, "  - %s\n", fix)
		}
	}
	if showTree && v.Node != nil {
		fmt.Fprintf(&b, "tree: %s\n", v.Node)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ---------------------------------------------------------------------------
// check output
// ---------------------------------------------------------------------------

type checkSummary struct {
	Total int `json:"total"`
	OK    int `json:"ok"`
	Fixed int `json:"fixed"`
	Empty int `json:"empty"`
}

func (s *checkSummary) add(v *search.ValidatedQuery) {
	s.Total++
	switch {
	case v.Empty:
		s.Empty++
	case v.Fixed():
		s.Fixed++
	default:
		s.OK++
	}
}

type checkRecord struct {
	Line  int      `json:"line"`
	Raw   string   `json:"raw"`
	Query string   `json:"query"`
	Fixed bool     `json:"fixed"`
	Empty bool     `json:"empty"`
	Fixes []string `json:"fixes"`
}

type checkWriter struct {
	w    io.Writer
	json bool
	enc  *json.Encoder
}

func newCheckWriter(w io.Writer, format string) *checkWriter {
	return &checkWriter{w: w, json: format == config.FormatJSON, enc: json.NewEncoder(w)}
}

func (cw *checkWriter) record(line int, v *search.ValidatedQuery) error {
	if cw.json {
		return cw.enc.Encode(checkRecord{
			Line:  line,
			Raw:   v.Raw,
			Query: v.Query,
			Fixed: v.Fixed(),
			Empty: v.Empty,
			Fixes: v.Fixes,
		})
	}

	var err error
	switch {
	case v.Empty:
		_, err = fmt.Fprintf(cw.w, "%d\tempty\t%s\n", line, strings.Join(v.Fixes, "; "))
	case v.Fixed():
		_, err = fmt.Fprintf(cw.w, "%d\tfixed\t%s\t%s\n", line, v.Query, strings.Join(v.Fixes, "; "))
	default:
		_, err = fmt.Fprintf(cw.w, "%d\tok\t%s\n", line, v.Query)
	}
	return err
}

func (cw *checkWriter) summary(s checkSummary) error {
	if cw.json {
		return cw.enc.Encode(map[string]checkSummary{"summary": s})
	}
	_, err := fmt.Fprintf(cw.w, "checked %d queries: %d ok, %d fixed, %d empty\n", s.Total, s.OK, s.Fixed, s.Empty)
	return err
}
