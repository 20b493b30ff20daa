package query

import (
	"errors"
	"testing"
)

func TestUnparse(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"nil", nil, ""},
		{"word", word("foo"), "foo"},
		{"phrase", phrase("foo bar"), `"foo bar"`},
		{"phrase with quote", phrase(`say "hi"`), `"say \"hi\""`},
		{"parens", &ParensNode{Expression: word("foo")}, "(foo)"},
		{"not", &UnaryNode{Operator: OpNot, Operand: word("foo")}, "NOT foo"},
		{
			"explicit and",
			&BinaryNode{Operator: OpAnd, Left: word("foo"), Right: word("bar")},
			"foo AND bar",
		},
		{
			"implicit and",
			&BinaryNode{Operator: OpAnd, Left: word("foo"), Right: word("bar"), Implicit: true},
			"foo bar",
		},
		{
			"nested",
			&BinaryNode{
				Operator: OpOr,
				Left:     &UnaryNode{Operator: OpNot, Operand: phrase("a b")},
				Right: &ParensNode{Expression: &BinaryNode{
					Operator: OpAnd, Left: word("c"), Right: word("d"), Implicit: true,
				}},
			},
			`NOT "a b" OR (c d)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unparse(tt.node); got != tt.want {
				t.Errorf("Unparse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnparse_UnknownTermTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown term type")
		}
	}()
	Unparse(&TermNode{Type: "REGEX", Value: "foo"})
}

func TestNewBinaryNode(t *testing.T) {
	left, right := word("foo"), word("bar")

	n, err := NewBinaryNode(OpAnd, left, right, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.Implicit || n.Operator != OpAnd {
		t.Errorf("unexpected node %v", n)
	}

	n, err = NewBinaryNode(OpOr, left, right, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Unparse(n) != "foo OR bar" {
		t.Errorf("Unparse = %q", Unparse(n))
	}

	if _, err := NewBinaryNode(OpOr, left, right, true); !errors.Is(err, ErrImplicitOperator) {
		t.Errorf("implicit OR: error = %v, want ErrImplicitOperator", err)
	}
	if _, err := NewBinaryNode(OpNot, left, right, false); err == nil {
		t.Error("binary NOT: expected error")
	}
}

func TestNode_String(t *testing.T) {
	n := &BinaryNode{
		Operator: OpAnd,
		Left:     &UnaryNode{Operator: OpNot, Operand: word("foo")},
		Right:    &ParensNode{Expression: phrase("bar baz")},
		Implicit: true,
	}
	want := "BinaryNode(AND, UnaryNode(NOT, TermNode(WORD, foo)), ParensNode(TermNode(PHRASE, bar baz)), implicit)"
	if got := n.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Node
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", word("a"), nil, false},
		{"same word", word("a"), word("a"), true},
		{"word vs phrase", word("a"), phrase("a"), false},
		{"different value", word("a"), word("b"), false},
		{"term vs parens", word("a"), &ParensNode{Expression: word("a")}, false},
		{
			"implicit differs",
			&BinaryNode{Operator: OpAnd, Left: word("a"), Right: word("b")},
			&BinaryNode{Operator: OpAnd, Left: word("a"), Right: word("b"), Implicit: true},
			false,
		},
		{
			"deep equal",
			&UnaryNode{Operator: OpNot, Operand: &ParensNode{Expression: word("a")}},
			&UnaryNode{Operator: OpNot, Operand: &ParensNode{Expression: word("a")}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
