package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// parser is a recursive descent parser over the token stream:
//
//	expr    := and ('or' and)*
//	and     := primary ('and' primary)*
//	primary := '(' expr ')' | field op literal
type parser struct {
	tokens []Token
	pos    int
	base   string
}

// Parse parses a filter expression into an AST. base is the record variable name
// used when rendering the expression; a leading "<base>." on a field is stripped.
func Parse(input, base string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "filter is empty"}
	}
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, base: base}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.unexpected(tok, "'and', 'or' or end of filter")
	}
	return node, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) unexpected(tok Token, want string) error {
	if tok.Type == TokenEOF {
		return &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected end of filter, expected %s", want)}
	}
	return &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %s %q, expected %s", tok.Type, tok.Value, want)}
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAnd {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.Type {
	case TokenLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.Type != TokenRParen {
			return nil, p.unexpected(closing, "')'")
		}
		return node, nil
	case TokenIdent:
		return p.parseCondition(tok)
	case TokenOperator, TokenAnd, TokenOr, TokenBool, TokenNull:
		// a keyword directly followed by an operator names a field ("so eq 'x'")
		if p.peek().Type == TokenOperator {
			return p.parseCondition(Token{Type: TokenIdent, Value: tok.Raw, Raw: tok.Raw, Pos: tok.Pos})
		}
		return nil, p.unexpected(tok, "field or '('")
	default:
		return nil, p.unexpected(tok, "field or '('")
	}
}

func (p *parser) parseCondition(fieldTok Token) (Node, error) {
	field := p.fieldPath(fieldTok.Value)
	opTok := p.next()
	if opTok.Type != TokenOperator {
		return nil, p.unexpected(opTok, "operator (eq ne gt ge lt le sw ew so)")
	}
	litTok := p.next()
	literal, err := p.literal(litTok)
	if err != nil {
		return nil, err
	}
	if _, ok := nativeStringMethods[opTok.Value]; ok {
		if literal.Kind != TokenString {
			return nil, &SyntaxError{
				Pos: litTok.Pos,
				Msg: fmt.Sprintf("operator %q requires a string literal, got %s", opTok.Value, litTok.Type),
			}
		}
		return &StringMatch{Base: p.base, Field: field, Op: opTok.Value, Value: literal.Text}, nil
	}
	return &Comparison{Base: p.base, Field: field, Op: opTok.Value, Value: literal}, nil
}

// fieldPath splits a dotted field and drops a leading base qualifier.
func (p *parser) fieldPath(raw string) []string {
	parts := strings.Split(raw, ".")
	if p.base != "" && len(parts) > 1 && parts[0] == p.base {
		parts = parts[1:]
	}
	return parts
}

func (p *parser) literal(tok Token) (Literal, error) {
	switch tok.Type {
	case TokenString:
		return Literal{Kind: TokenString, Text: tok.Value, Value: tok.Value}, nil
	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return Literal{}, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("invalid number %q", tok.Value)}
		}
		return Literal{Kind: TokenNumber, Text: tok.Value, Value: f}, nil
	case TokenBool:
		return Literal{Kind: TokenBool, Text: tok.Value, Value: tok.Value == "true"}, nil
	case TokenNull:
		return Literal{Kind: TokenNull, Text: "null", Value: nil}, nil
	default:
		return Literal{}, p.unexpected(tok, "literal")
	}
}
