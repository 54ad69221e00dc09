// Package filter compiles the repository filter syntax (name eq 'x' and count gt 2)
// into predicates evaluated against plain records on the client side.
//
// Supported operators are eq, ne, gt, ge, lt and le for comparisons and sw, ew and so
// (starts with, ends with, contains) for strings. Conditions combine with and/or,
// and binds tighter than or, and parentheses group. Literals are single quoted
// strings ('' escapes a quote), numbers, true, false and null. Values are never
// coerced: a number never equals a string.
//
// A field whose name is a keyword (so, eq, and, ...) can be referenced when it is
// directly followed by an operator: "so eq 'x'" compares the field so.
package filter

// Predicate reports whether a record matches a compiled filter.
type Predicate func(record map[string]any) (bool, error)

// Compile parses filter and returns the predicate that evaluates it. base is the name
// the record is known by in the expression (for instance "row"); fields may be written
// with or without that qualifier. Malformed filters fail here with a *SyntaxError,
// evaluation problems are reported per record with an *EvalError.
func Compile(filter, base string) (Predicate, error) {
	node, err := Parse(filter, base)
	if err != nil {
		return nil, err
	}
	return node.Eval, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(filter, base string) Predicate {
	pred, err := Compile(filter, base)
	if err != nil {
		panic(err)
	}
	return pred
}

// Apply returns the records matching pred in input order. It stops at the first evaluation error.
func Apply[R ~map[string]any](records []R, pred Predicate) ([]R, error) {
	out := make([]R, 0, len(records))
	for _, record := range records {
		ok, err := pred(record)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, record)
		}
	}
	return out, nil
}
