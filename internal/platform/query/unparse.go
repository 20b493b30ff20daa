package query

import (
	"fmt"
	"strings"
)

// Unparse serializes a node back to canonical query text. Implicit ANDs are
// written without the keyword and phrase quotes are escaped.
func Unparse(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		return

	case *TermNode:
		switch n.Type {
		case TermWord:
			b.WriteString(n.Value)
		case TermPhrase:
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(n.Value, `"`, `\"`))
			b.WriteByte('"')
		default:
			panic(fmt.Sprintf("query: unknown term type %q", n.Type))
		}

	case *ParensNode:
		b.WriteByte('(')
		writeNode(b, n.Expression)
		b.WriteByte(')')

	case *UnaryNode:
		b.WriteString(string(n.Operator))
		b.WriteByte(' ')
		writeNode(b, n.Operand)

	case *BinaryNode:
		writeNode(b, n.Left)
		b.WriteByte(' ')
		if !n.Implicit {
			b.WriteString(string(n.Operator))
			b.WriteByte(' ')
		}
		writeNode(b, n.Right)

	default:
		panic(fmt.Sprintf("query: unknown node type %T", node))
	}
}
