package expr

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/san-kum/odelab/internal/dynamo"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lex splits src into tokens. "**" is folded into "^".
func lex(src string) ([]token, error) {
	tokens := make([]token, 0, len(src)/2+1)
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r >= '0' && r <= '9' || r == '.':
			start := i
			i = scanNumber(src, i)
			lit := src[start:i]
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, &dynamo.ExpressionError{Text: src, Pos: start, Reason: "bad number " + strconv.Quote(lit)}
			}
			tokens = append(tokens, token{kind: tokNum, text: lit, num: v, pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
		case r == '*' && i+1 < len(src) && src[i+1] == '*':
			tokens = append(tokens, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			tokens = append(tokens, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '[':
			tokens = append(tokens, token{kind: tokLBrack, text: "[", pos: i})
			i++
		case r == ']':
			tokens = append(tokens, token{kind: tokRBrack, text: "]", pos: i})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++
		default:
			return nil, &dynamo.ExpressionError{Text: src, Pos: i, Reason: "unexpected character " + strconv.QuoteRune(r)}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

// scanNumber consumes digits, an optional fraction and an optional exponent.
func scanNumber(src string, i int) int {
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
