package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/radis/radis/internal/domain/search"
	"github.com/radis/radis/internal/platform/query"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "info")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// parse
// ---------------------------------------------------------------------------

func TestParseCmd_Text(t *testing.T) {
	out, _, err := runCmd(t, "parse", "foo", "AND", "AND", "bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "query: foo AND bar\n") {
		t.Errorf("output missing canonical query:\n%s", out)
	}
	if !strings.Contains(out, "  - "+query.FixConsecutiveOperators+"\n") {
		t.Errorf("output missing fix:\n%s", out)
	}
}

func TestParseCmd_Tree(t *testing.T) {
	out, _, err := runCmd(t, "parse", "--tree", "a b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "tree: BinaryNode(AND, TermNode(WORD, a), TermNode(WORD, b), implicit)"
	if !strings.Contains(out, want) {
		t.Errorf("output missing tree %q:\n%s", want, out)
	}
	if strings.Contains(out, "fixes:") {
		t.Errorf("valid query should list no fixes:\n%s", out)
	}
}

func TestParseCmd_JSONEmpty(t *testing.T) {
	out, _, err := runCmd(t, "parse", "--format", "json", "()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Raw   string   `json:"raw"`
		Query string   `json:"query"`
		Fixes []string `json:"fixes"`
		Empty bool     `json:"empty"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if !got.Empty || got.Query != "" || got.Raw != "()" {
		t.Errorf("unexpected result %+v", got)
	}
	if len(got.Fixes) != 1 || got.Fixes[0] != query.FixEmptyParentheses {
		t.Errorf("fixes = %v", got.Fixes)
	}
}

func TestParseCmd_TooLong(t *testing.T) {
	t.Setenv("MAX_QUERY_LENGTH", "3")

	if _, _, err := runCmd(t, "parse", "foobar"); !errors.Is(err, search.ErrQueryTooLong) {
		t.Errorf("expected ErrQueryTooLong, got %v", err)
	}
}

func TestParseCmd_BadFormat(t *testing.T) {
	if _, _, err := runCmd(t, "parse", "--format", "xml", "foo"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

const checkInput = "foo AND bar\n\n(baz\n( AND OR )\n"

func TestCheckCmd_Text(t *testing.T) {
	path := writeFile(t, "queries.txt", checkInput)

	out, logs, err := runCmd(t, "check", "--input", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d output lines, want 4:\n%s", len(lines), out)
	}
	if lines[0] != "1\tok\tfoo AND bar" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "3\tfixed\tbaz\t"+query.FixUnbalancedParentheses {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "4\tempty\t") {
		t.Errorf("line 2 = %q", lines[2])
	}
	if lines[3] != "checked 3 queries: 1 ok, 1 fixed, 1 empty" {
		t.Errorf("summary = %q", lines[3])
	}

	if !strings.Contains(logs, `"run_id":"`) {
		t.Errorf("logs missing run_id:\n%s", logs)
	}
	if !strings.Contains(logs, `"message":"check finished"`) {
		t.Errorf("logs missing completion entry:\n%s", logs)
	}
}

func TestCheckCmd_Strict(t *testing.T) {
	path := writeFile(t, "queries.txt", checkInput)

	_, _, err := runCmd(t, "check", "--strict", "--input", path)
	if !errors.Is(err, errQueriesFixed) {
		t.Errorf("expected errQueriesFixed, got %v", err)
	}

	clean := writeFile(t, "clean.txt", "foo\nbar OR baz\n")
	if _, _, err := runCmd(t, "check", "--strict", "--input", clean); err != nil {
		t.Errorf("clean input should pass strict mode: %v", err)
	}
}

func TestCheckCmd_NDJSON(t *testing.T) {
	path := writeFile(t, "queries.ndjson",
		`{"q": "foo OR OR bar"}`+"\n"+`{"q": "NOT baz"}`+"\n")

	out, _, err := runCmd(t, "check", "--format", "json", "--field", "q", "--input", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	var records []checkRecord
	var summary map[string]checkSummary
	for scanner.Scan() {
		line := scanner.Bytes()
		if bytes.HasPrefix(line, []byte(`{"summary"`)) {
			if err := json.Unmarshal(line, &summary); err != nil {
				t.Fatalf("invalid summary: %v", err)
			}
			continue
		}
		var rec checkRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("invalid record %s: %v", line, err)
		}
		records = append(records, rec)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Query != "foo OR bar" || !records[0].Fixed || records[0].Line != 1 {
		t.Errorf("record[0] = %+v", records[0])
	}
	if records[1].Query != "NOT baz" || records[1].Fixed {
		t.Errorf("record[1] = %+v", records[1])
	}
	if summary["summary"] != (checkSummary{Total: 2, OK: 1, Fixed: 1}) {
		t.Errorf("summary = %+v", summary)
	}
}

func TestCheckCmd_NamesLineOfTooLongQuery(t *testing.T) {
	t.Setenv("MAX_QUERY_LENGTH", "5")
	path := writeFile(t, "queries.txt", "foo\n\nway too long\n")

	out, _, err := runCmd(t, "check", "--input", path)
	if !errors.Is(err, search.ErrQueryTooLong) {
		t.Fatalf("expected ErrQueryTooLong, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "line 3:") {
		t.Errorf("error should name line 3: %v", err)
	}
	// Records before the failing one are reported as they are read.
	if out != "1\tok\tfoo\n" {
		t.Errorf("output = %q, want the first record only", out)
	}
}

func TestCheckCmd_StopsAtBadRecord(t *testing.T) {
	path := writeFile(t, "queries.ndjson",
		`{"q": "foo"}`+"\n"+`{"q": "bar"}`+"\n"+`{"other": 1}`+"\n"+`{"q": "never read"}`+"\n")

	out, _, err := runCmd(t, "check", "--field", "q", "--input", path)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected an error naming line 3, got %v", err)
	}
	if out != "1\tok\tfoo\n2\tok\tbar\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCheckCmd_RequiresInput(t *testing.T) {
	if _, _, err := runCmd(t, "check"); err == nil {
		t.Error("expected error without --input")
	}
}

func TestCheckCmd_MissingFile(t *testing.T) {
	if _, _, err := runCmd(t, "check", "--input", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func TestVersionCmd(t *testing.T) {
	out, _, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "radis-query dev\n" {
		t.Errorf("version output = %q", out)
	}
}
