// Package domain normalizes search domains into the canonical form accepted
// by the server: a list of (field, operator, value) terms interleaved with
// the boolean connector tokens "&", "|" and "!".
package domain

import (
	"fmt"
	"strings"
)

// Boolean connector tokens. They pass through normalization unchanged.
const (
	OpAnd = "&"
	OpOr  = "|"
	OpNot = "!"
)

// Operators is the closed set of supported term operators, longest first so
// that prefix matching always picks the longest token (">=" never parses as
// ">" with a mangled value).
//
// Not supported: the redundant "<>", "=like", "=ilike" and the "=?" operator.
var Operators = []string{
	"not ilike", "not like", "child_of", "not in",
	"ilike", "like", "in",
	"!=", ">=", "<=", "=", ">", "<",
}

// Term is a single domain condition.
type Term struct {
	Field    string
	Operator string
	Value    any
}

// String renders the term in the "field operator value" form accepted by
// ParseTerm.
func (t Term) String() string {
	return fmt.Sprintf("%s %s %v", t.Field, t.Operator, t.Value)
}

// Domain is an ordered sequence of Terms and connector tokens. The empty
// domain matches everything.
type Domain []any

// IsConnector reports whether s is one of the boolean connector tokens.
func IsConnector(s string) bool {
	return s == OpAnd || s == OpOr || s == OpNot
}

// validOperator reports whether op is in the supported operator set.
func validOperator(op string) bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// SyntaxError reports a term that cannot be parsed into the canonical form.
type SyntaxError struct {
	Term   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("cannot parse term %q: %s", e.Term, e.Reason)
}

// IsSearchDomain reports whether arg looks like a search domain rather than
// an id or a list of ids. A leading integer (or digit-only string) marks an
// id list.
func IsSearchDomain(arg any) bool {
	switch v := arg.(type) {
	case Term:
		return true
	case string:
		return !leadingDigit(v)
	case Domain:
		return len(v) == 0 || !idLike(v[0])
	case []any:
		return len(v) == 0 || !idLike(v[0])
	case []string:
		return len(v) == 0 || !allDigits(v[0])
	case []Term:
		return true
	default:
		return false
	}
}

func leadingDigit(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func idLike(v any) bool {
	switch e := v.(type) {
	case int, int32, int64:
		return true
	case string:
		return allDigits(e)
	default:
		return false
	}
}
