package filter

import (
	"encoding/json"
	"testing"
)

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		record map[string]any
		want   bool
	}{
		{"eq match", "name eq 'Sales'", map[string]any{"name": "Sales"}, true},
		{"eq mismatch", "name eq 'Sales'", map[string]any{"name": "Finance"}, false},
		{"ne", "name ne 'Sales'", map[string]any{"name": "Finance"}, true},
		{"gt number", "age gt 18", map[string]any{"age": 21}, true},
		{"gt equal", "age gt 18", map[string]any{"age": 18}, false},
		{"ge equal", "age ge 18", map[string]any{"age": 18.0}, true},
		{"lt", "age lt 18", map[string]any{"age": int64(3)}, true},
		{"le", "age le 18", map[string]any{"age": 19}, false},
		{"json number", "size gt 1.5", map[string]any{"size": json.Number("2")}, true},
		{"string ordering", "name lt 'b'", map[string]any{"name": "a"}, true},
		{"sw", "name sw 'Jo'", map[string]any{"name": "John"}, true},
		{"sw mismatch", "name sw 'Jo'", map[string]any{"name": "Mary"}, false},
		{"ew", "name ew 'hn'", map[string]any{"name": "John"}, true},
		{"so", "name so 'oh'", map[string]any{"name": "John"}, true},
		{"bool", "published eq true", map[string]any{"published": true}, true},
		{"null", "stream eq null", map[string]any{"stream": nil}, true},
		{"null ne", "stream ne null", map[string]any{"stream": "Everyone"}, true},
		{"no coercion", "age eq '18'", map[string]any{"age": 18}, false},
		{"no coercion ne", "age ne '18'", map[string]any{"age": 18}, true},
		{"escaped quote", "name eq 'O''Brien'", map[string]any{"name": "O'Brien"}, true},
		{"nested field", "owner.name eq 'alice'", map[string]any{"owner": map[string]any{"name": "alice"}}, true},
		{"base qualifier", "r.name eq 'x'", map[string]any{"name": "x"}, true},
		{"upper case keywords", "name EQ 'x' AND age GT 1", map[string]any{"name": "x", "age": 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(tt.filter, "r")
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.filter, err)
			}
			got, err := pred(tt.record)
			if err != nil {
				t.Fatalf("predicate error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compile(%q)(%v) = %v, want %v", tt.filter, tt.record, got, tt.want)
			}
		})
	}
}

func TestCompile_KeywordInsideIdentifier(t *testing.T) {
	node, err := Parse("sweet eq 'x'", "r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := node.(*Comparison); !ok {
		t.Fatalf("expected *Comparison, got %T", node)
	}
	if got, want := node.String(), "r.sweet == 'x'"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	pred := MustCompile("sweet eq 'x'", "r")
	ok, err := pred(map[string]any{"sweet": "x"})
	if err != nil || !ok {
		t.Errorf("expected match, got %v, %v", ok, err)
	}

	for _, field := range []string{"order", "android", "newest", "eqx", "sorted"} {
		node, err := Parse(field+" eq 1", "r")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", field, err)
		}
		cmp, ok := node.(*Comparison)
		if !ok || len(cmp.Field) != 1 || cmp.Field[0] != field {
			t.Errorf("%s: parsed as %s", field, node)
		}
	}
}

func TestCompile_KeywordAsField(t *testing.T) {
	for field, record := range map[string]map[string]any{
		"so":   {"so": "x"},
		"eq":   {"eq": "x"},
		"and":  {"and": "x"},
		"True": {"True": "x"},
	} {
		pred, err := Compile(field+" eq 'x'", "r")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", field, err)
		}
		if ok, err := pred(record); err != nil || !ok {
			t.Errorf("%s: expected match, got %v, %v", field, ok, err)
		}
	}

	pred := MustCompile("name eq 'a' and or ne 'b'", "r")
	ok, err := pred(map[string]any{"name": "a", "or": "c"})
	if err != nil || !ok {
		t.Errorf("expected match, got %v, %v", ok, err)
	}
	if _, err = Compile("so 'x'", "r"); !IsSyntaxErr(err) {
		t.Errorf("keyword without operator should be a SyntaxError, got %v", err)
	}
}

func TestCompile_Combinators(t *testing.T) {
	and := MustCompile("a eq 1 and b eq 2", "r")
	or := MustCompile("a eq 1 or b eq 2", "r")

	tests := []struct {
		name   string
		pred   Predicate
		record map[string]any
		want   bool
	}{
		{"and both", and, map[string]any{"a": 1, "b": 2}, true},
		{"and one", and, map[string]any{"a": 1, "b": 3}, false},
		{"or second", or, map[string]any{"a": 9, "b": 2}, true},
		{"or none", or, map[string]any{"a": 9, "b": 9}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pred(tt.record)
			if err != nil {
				t.Fatalf("predicate error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_QualifiesEveryComparison(t *testing.T) {
	node, err := Parse("a eq 1 and b eq 2 and c sw 'x'", "row")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "((row.a == 1 && row.b == 2) && row.c.startsWith('x'))"
	if got := node.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParse_Precedence(t *testing.T) {
	node, err := Parse("a eq 1 or b eq 2 and c eq 3", "r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := node.String(), "(r.a == 1 || (r.b == 2 && r.c == 3))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// and binds tighter than or
	pred := MustCompile("a eq 1 or b eq 2 and c eq 3", "r")
	ok, err := pred(map[string]any{"a": 1, "b": 0, "c": 0})
	if err != nil || !ok {
		t.Errorf("expected match, got %v, %v", ok, err)
	}
}

func TestCompile_Parentheses(t *testing.T) {
	pred := MustCompile("(a eq 1 or b eq 2) and c eq 3", "r")

	ok, err := pred(map[string]any{"a": 1, "b": 0, "c": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("grouping ignored: expected no match when c differs")
	}

	ok, err = pred(map[string]any{"a": 0, "b": 2, "c": 3})
	if err != nil || !ok {
		t.Errorf("expected match, got %v, %v", ok, err)
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"name eq 'unterminated",
		"name like 'x'",
		"name eq",
		"name 'x'",
		"eq 'x'",
		"name eq 'x' and",
		"name eq 'x' name eq 'y'",
		"(name eq 'x'",
		"name eq 'x')",
		"age sw 1",
		"name eq 'x' # comment",
		"name. eq 'x'",
		"12abc eq 1",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Compile(input, "r")
			if err == nil {
				t.Fatalf("Compile(%q) expected error", input)
			}
			if !IsSyntaxErr(err) {
				t.Errorf("Compile(%q) error %v is not a SyntaxError", input, err)
			}
		})
	}
}

func TestCompile_EvalErrors(t *testing.T) {
	tests := []struct {
		filter string
		record map[string]any
	}{
		{"missing eq 'x'", map[string]any{"name": "x"}},
		{"owner.name eq 'x'", map[string]any{"owner": "flat"}},
		{"count sw 'x'", map[string]any{"count": 1}},
		{"name gt 1", map[string]any{"name": "x"}},
		{"published gt true", map[string]any{"published": true}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			pred, err := Compile(tt.filter, "r")
			if err != nil {
				t.Fatalf("Compile(%q) unexpected error: %v", tt.filter, err)
			}
			_, err = pred(tt.record)
			if !IsEvalErr(err) {
				t.Errorf("expected EvalError, got %v", err)
			}
		})
	}
}

func TestCompile_ShortCircuit(t *testing.T) {
	// the right side refers to a missing field and must not be evaluated
	pred := MustCompile("a eq 1 or missing eq 2", "r")
	ok, err := pred(map[string]any{"a": 1})
	if err != nil || !ok {
		t.Errorf("or: got %v, %v", ok, err)
	}

	pred = MustCompile("a eq 2 and missing eq 2", "r")
	ok, err = pred(map[string]any{"a": 1})
	if err != nil || ok {
		t.Errorf("and: got %v, %v", ok, err)
	}
}

func TestTokenize(t *testing.T) {
	tokens, err := Tokenize("(name sw 'a b') or size ge -1.5e3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		typ   TokenType
		value string
	}{
		{TokenLParen, "("},
		{TokenIdent, "name"},
		{TokenOperator, "sw"},
		{TokenString, "a b"},
		{TokenRParen, ")"},
		{TokenOr, "or"},
		{TokenIdent, "size"},
		{TokenOperator, "ge"},
		{TokenNumber, "-1.5e3"},
		{TokenEOF, ""},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Value != w.value {
			t.Errorf("token %d = %s %q, want %s %q", i, tokens[i].Type, tokens[i].Value, w.typ, w.value)
		}
	}
	if tokens[3].Pos != 9 {
		t.Errorf("string literal position = %d, want 9", tokens[3].Pos)
	}
}

func TestApply(t *testing.T) {
	rows := []map[string]any{
		{"name": "Sales", "count": 3},
		{"name": "Finance", "count": 10},
		{"name": "Support", "count": 7},
	}
	got, err := Apply(rows, MustCompile("name sw 'S' and count gt 5", "row"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0]["name"] != "Support" {
		t.Errorf("Apply = %v, want only Support", got)
	}

	_, err = Apply(rows, MustCompile("missing eq 1", "row"))
	if !IsEvalErr(err) {
		t.Errorf("expected EvalError, got %v", err)
	}

	empty, err := Apply([]map[string]any{}, MustCompile("a eq 1", "row"))
	if err != nil || len(empty) != 0 {
		t.Errorf("Apply on empty input = %v, %v", empty, err)
	}
}
