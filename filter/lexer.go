package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString
	TokenNumber
	TokenBool
	TokenNull
	TokenOperator // eq ne gt ge lt le sw ew so
	TokenAnd
	TokenOr
	TokenLParen
	TokenRParen
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:      "end of filter",
	TokenIdent:    "field",
	TokenString:   "string",
	TokenNumber:   "number",
	TokenBool:     "boolean",
	TokenNull:     "null",
	TokenOperator: "operator",
	TokenAnd:      "'and'",
	TokenOr:       "'or'",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
}

func (t TokenType) String() string {
	return tokenTypeNames[t]
}

// Token is a lexical unit of a filter expression. Pos is the byte offset in the input.
// Keyword values are lower cased; Raw keeps the word as written.
type Token struct {
	Type  TokenType
	Value string
	Raw   string
	Pos   int
}

// keywords are recognized only when they form a whole word, so a field named
// "sweet" or "order" is never split into an operator.
var keywords = map[string]TokenType{
	"eq":    TokenOperator,
	"ne":    TokenOperator,
	"gt":    TokenOperator,
	"ge":    TokenOperator,
	"lt":    TokenOperator,
	"le":    TokenOperator,
	"sw":    TokenOperator,
	"ew":    TokenOperator,
	"so":    TokenOperator,
	"and":   TokenAnd,
	"or":    TokenOr,
	"true":  TokenBool,
	"false": TokenBool,
	"null":  TokenNull,
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '@' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '.'
}

// Tokenize splits a filter expression into tokens, terminated by a TokenEOF token.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	runes := []rune(input)
	offsets := make([]int, len(runes)+1)
	for i, off := 0, 0; i < len(runes); i++ {
		offsets[i] = off
		off += len(string(runes[i]))
		offsets[i+1] = off
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, Token{Type: TokenLParen, Value: "(", Pos: offsets[i]})
			i++
		case r == ')':
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")", Pos: offsets[i]})
			i++
		case r == '\'':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '\'' {
					// '' is an escaped quote inside a literal
					if i+1 < len(runes) && runes[i+1] == '\'' {
						sb.WriteRune('\'')
						i += 2
						continue
					}
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, &SyntaxError{Pos: offsets[start], Msg: "unterminated string literal"}
			}
			tokens = append(tokens, Token{Type: TokenString, Value: sb.String(), Pos: offsets[start]})
		case unicode.IsDigit(r) || ((r == '-' || r == '+') && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == 'e' || runes[i] == 'E' ||
				((runes[i] == '-' || runes[i] == '+') && (runes[i-1] == 'e' || runes[i-1] == 'E'))) {
				i++
			}
			text := string(runes[start:i])
			if i < len(runes) && isIdentStart(runes[i]) {
				return nil, &SyntaxError{Pos: offsets[start], Msg: fmt.Sprintf("invalid number %q", text+string(runes[i]))}
			}
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, &SyntaxError{Pos: offsets[start], Msg: fmt.Sprintf("invalid number %q", text)}
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: text, Pos: offsets[start]})
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			if typ, ok := keywords[strings.ToLower(word)]; ok {
				tokens = append(tokens, Token{Type: typ, Value: strings.ToLower(word), Raw: word, Pos: offsets[start]})
				continue
			}
			if strings.HasSuffix(word, ".") || strings.Contains(word, "..") {
				return nil, &SyntaxError{Pos: offsets[start], Msg: fmt.Sprintf("invalid field path %q", word)}
			}
			tokens = append(tokens, Token{Type: TokenIdent, Value: word, Raw: word, Pos: offsets[start]})
		default:
			return nil, &SyntaxError{Pos: offsets[i], Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	tokens = append(tokens, Token{Type: TokenEOF, Pos: len(input)})
	return tokens, nil
}
