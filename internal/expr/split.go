package expr

import (
	"strings"

	"github.com/san-kum/odelab/internal/dynamo"
)

// SplitList splits a comma-separated list of expressions, ignoring commas
// nested inside parentheses or brackets. Items are trimmed.
func SplitList(src string) ([]string, error) {
	var (
		items []string
		depth int
		start int
	)
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, &dynamo.ExpressionError{Text: src, Pos: i, Reason: "unbalanced " + string(src[i])}
			}
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(src[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, &dynamo.ExpressionError{Text: src, Pos: len(src), Reason: "unbalanced parentheses"}
	}
	return append(items, strings.TrimSpace(src[start:])), nil
}

// StripLHS removes an optional "lhs =" prefix such as "dN/dt =".
func StripLHS(eq string) string {
	if i := strings.IndexByte(eq, '='); i >= 0 {
		return strings.TrimSpace(eq[i+1:])
	}
	return strings.TrimSpace(eq)
}
