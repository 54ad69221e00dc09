package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Node is a compiled filter expression.
type Node interface {
	fmt.Stringer
	Eval(record map[string]any) (bool, error)
}

// Literal is the right hand side of a comparison.
type Literal struct {
	Kind  TokenType // TokenString, TokenNumber, TokenBool or TokenNull
	Text  string
	Value any // string, float64, bool or nil
}

func (l Literal) String() string {
	switch l.Kind {
	case TokenString:
		return "'" + strings.ReplaceAll(l.Text, "'", "\\'") + "'"
	default:
		return l.Text
	}
}

// Comparison is "<field> eq|ne|gt|ge|lt|le <literal>".
type Comparison struct {
	Base  string
	Field []string
	Op    string
	Value Literal
}

var nativeOperators = map[string]string{
	"eq": "==",
	"ne": "!=",
	"gt": ">",
	"ge": ">=",
	"lt": "<",
	"le": "<=",
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", qualified(c.Base, c.Field), nativeOperators[c.Op], c.Value)
}

func (c *Comparison) Eval(record map[string]any) (bool, error) {
	actual, err := lookup(record, c.Field, c)
	if err != nil {
		return false, err
	}
	return compare(actual, c.Op, c.Value.Value, c)
}

// StringMatch is "<field> sw|ew|so '<literal>'".
type StringMatch struct {
	Base  string
	Field []string
	Op    string
	Value string
}

var nativeStringMethods = map[string]string{
	"sw": "startsWith",
	"ew": "endsWith",
	"so": "includes",
}

func (s *StringMatch) String() string {
	return fmt.Sprintf("%s.%s(%s)", qualified(s.Base, s.Field), nativeStringMethods[s.Op], Literal{Kind: TokenString, Text: s.Value})
}

func (s *StringMatch) Eval(record map[string]any) (bool, error) {
	actual, err := lookup(record, s.Field, s)
	if err != nil {
		return false, err
	}
	str, ok := actual.(string)
	if !ok {
		return false, &EvalError{Expr: s.String(), Msg: fmt.Sprintf("field is %s, not a string", kindOf(actual))}
	}
	switch s.Op {
	case "sw":
		return strings.HasPrefix(str, s.Value), nil
	case "ew":
		return strings.HasSuffix(str, s.Value), nil
	default:
		return strings.Contains(str, s.Value), nil
	}
}

// And is true when both sides are. The right side is not evaluated when the left side is false.
type And struct {
	Left, Right Node
}

func (a *And) String() string {
	return fmt.Sprintf("(%s && %s)", a.Left, a.Right)
}

func (a *And) Eval(record map[string]any) (bool, error) {
	left, err := a.Left.Eval(record)
	if err != nil || !left {
		return false, err
	}
	return a.Right.Eval(record)
}

// Or is true when either side is. The right side is not evaluated when the left side is true.
type Or struct {
	Left, Right Node
}

func (o *Or) String() string {
	return fmt.Sprintf("(%s || %s)", o.Left, o.Right)
}

func (o *Or) Eval(record map[string]any) (bool, error) {
	left, err := o.Left.Eval(record)
	if err != nil || left {
		return left, err
	}
	return o.Right.Eval(record)
}

func qualified(base string, field []string) string {
	path := strings.Join(field, ".")
	if base == "" {
		return path
	}
	return base + "." + path
}

// lookup walks a dotted field path through nested maps.
func lookup(record map[string]any, field []string, node Node) (any, error) {
	var current any = record
	for i, part := range field {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, &EvalError{
				Expr: node.String(),
				Msg:  fmt.Sprintf("cannot read %q of %s", part, kindOf(current)),
			}
		}
		value, exists := m[part]
		if !exists {
			return nil, &EvalError{
				Expr: node.String(),
				Msg:  fmt.Sprintf("field %q not found in record", strings.Join(field[:i+1], ".")),
			}
		}
		current = value
	}
	return current, nil
}

// normalize maps every Go numeric kind and json.Number to float64.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := strconv.ParseFloat(string(n), 64); err == nil {
			return f
		}
		return string(n)
	}
	return v
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// compare applies op without type coercion. eq across kinds is false, ne true;
// ordering across kinds or on booleans/null is an error.
func compare(actual any, op string, expected any, node Node) (bool, error) {
	actual = normalize(actual)
	sameKind := kindOf(actual) == kindOf(expected)
	switch op {
	case "eq":
		return sameKind && actual == expected, nil
	case "ne":
		return !sameKind || actual != expected, nil
	}
	if !sameKind {
		return false, &EvalError{
			Expr: node.String(),
			Msg:  fmt.Sprintf("cannot order %s against %s", kindOf(actual), kindOf(expected)),
		}
	}
	var cmp int
	switch a := actual.(type) {
	case float64:
		b := expected.(float64)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	case string:
		cmp = strings.Compare(a, expected.(string))
	default:
		return false, &EvalError{Expr: node.String(), Msg: fmt.Sprintf("%s values cannot be ordered", kindOf(actual))}
	}
	switch op {
	case "gt":
		return cmp > 0, nil
	case "ge":
		return cmp >= 0, nil
	case "lt":
		return cmp < 0, nil
	default:
		return cmp <= 0, nil
	}
}
