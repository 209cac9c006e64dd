package domain

import (
	"strings"
	"unicode"
)

// wordOperator reports whether op is spelled with letters and therefore needs
// a separator before the value ("in" must not match inside "invoice").
func wordOperator(op string) bool {
	return op[0] >= 'a' && op[0] <= 'z'
}

// ParseTerm parses a condition of the form "field operator value". The field
// is the first whitespace-delimited token, the operator is the longest
// matching token from Operators and the remainder is the value. The value is
// evaluated as a literal; if that fails it is kept as the raw string.
func ParseTerm(s string) (Term, error) {
	trimmed := strings.TrimSpace(s)
	sep := strings.IndexFunc(trimmed, unicode.IsSpace)
	if sep < 0 {
		return Term{}, &SyntaxError{Term: s, Reason: "missing operator"}
	}
	field := trimmed[:sep]
	rest := strings.TrimSpace(trimmed[sep:])

	var op string
	for _, candidate := range Operators {
		if !strings.HasPrefix(rest, candidate) {
			continue
		}
		tail := rest[len(candidate):]
		if wordOperator(candidate) && tail != "" && !unicode.IsSpace(rune(tail[0])) {
			continue
		}
		op = candidate
		break
	}
	if op == "" {
		return Term{}, &SyntaxError{Term: s, Reason: "unknown operator"}
	}

	raw := strings.TrimSpace(rest[len(op):])
	value, err := Literal(raw)
	if err != nil {
		// Interpret the value as a string
		value = raw
	}
	return Term{Field: field, Operator: op, Value: value}, nil
}
