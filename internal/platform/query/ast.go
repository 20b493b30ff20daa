package query

import (
	"errors"
	"fmt"
)

// TermType distinguishes bare words from quoted phrases.
type TermType string

const (
	TermWord   TermType = "WORD"
	TermPhrase TermType = "PHRASE"
)

// Operator is a boolean query operator keyword.
type Operator string

const (
	OpNot Operator = "NOT"
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// ErrImplicitOperator is returned when an implicit binary node is requested
// for an operator other than AND.
var ErrImplicitOperator = errors.New("implicit operator can only be an AND")

// Node is a node of a parsed query. The set of implementations is closed:
// TermNode, ParensNode, UnaryNode and BinaryNode.
type Node interface {
	fmt.Stringer
	queryNode()
}

// TermNode is a single word or a quoted phrase.
type TermNode struct {
	Type  TermType
	Value string
}

// ParensNode is an explicitly parenthesized sub-expression.
type ParensNode struct {
	Expression Node
}

// UnaryNode negates its operand. Operator is always OpNot.
type UnaryNode struct {
	Operator Operator
	Operand  Node
}

// BinaryNode joins two expressions with AND or OR. Implicit marks an AND that
// was inferred from juxtaposed terms; it unparses without the keyword.
type BinaryNode struct {
	Operator Operator
	Left     Node
	Right    Node
	Implicit bool
}

func (*TermNode) queryNode()   {}
func (*ParensNode) queryNode() {}
func (*UnaryNode) queryNode()  {}
func (*BinaryNode) queryNode() {}

// NewBinaryNode builds a BinaryNode, rejecting implicit operators other than AND.
func NewBinaryNode(op Operator, left, right Node, implicit bool) (*BinaryNode, error) {
	if op != OpAnd && op != OpOr {
		return nil, fmt.Errorf("invalid binary operator %q", op)
	}
	if implicit && op != OpAnd {
		return nil, ErrImplicitOperator
	}
	return &BinaryNode{Operator: op, Left: left, Right: right, Implicit: implicit}, nil
}

func (n *TermNode) String() string {
	return fmt.Sprintf("TermNode(%s, %s)", n.Type, n.Value)
}

func (n *ParensNode) String() string {
	return fmt.Sprintf("ParensNode(%s)", n.Expression)
}

func (n *UnaryNode) String() string {
	return fmt.Sprintf("UnaryNode(%s, %s)", n.Operator, n.Operand)
}

func (n *BinaryNode) String() string {
	if n.Implicit {
		return fmt.Sprintf("BinaryNode(%s, %s, %s, implicit)", n.Operator, n.Left, n.Right)
	}
	return fmt.Sprintf("BinaryNode(%s, %s, %s)", n.Operator, n.Left, n.Right)
}

// Equal reports whether two trees have the same structure and values.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *TermNode:
		y, ok := b.(*TermNode)
		return ok && x.Type == y.Type && x.Value == y.Value
	case *ParensNode:
		y, ok := b.(*ParensNode)
		return ok && Equal(x.Expression, y.Expression)
	case *UnaryNode:
		y, ok := b.(*UnaryNode)
		return ok && x.Operator == y.Operator && Equal(x.Operand, y.Operand)
	case *BinaryNode:
		y, ok := b.(*BinaryNode)
		return ok && x.Operator == y.Operator && x.Implicit == y.Implicit &&
			Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	default:
		return false
	}
}
