package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Literal evaluates a value expression containing only literals: numbers,
// quoted strings, booleans, none/null, and lists, tuples or maps built from
// those. Anything else is an error; no expression is ever executed.
func Literal(s string) (any, error) {
	p := &literalParser{input: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}
	return v, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch {
	case c == '\'' || c == '"':
		return p.stringLit(c)
	case c == '[':
		return p.seq('[', ']')
	case c == '(':
		return p.seq('(', ')')
	case c == '{':
		return p.mapping()
	case c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.':
		return p.number()
	default:
		return p.word()
	}
}

func (p *literalParser) stringLit(quote byte) (any, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return nil, fmt.Errorf("unterminated escape")
			}
			switch e := p.input[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				return nil, fmt.Errorf("unknown escape %q", e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("unterminated string")
}

func (p *literalParser) seq(open, closing byte) (any, error) {
	p.pos++ // open
	items := []any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated %q", open)
		}
		if c == closing {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated %q", open)
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c != closing {
			return nil, fmt.Errorf("expected ',' or %q at offset %d", closing, p.pos)
		}
	}
}

func (p *literalParser) mapping() (any, error) {
	p.pos++ // '{'
	m := map[string]any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated map")
		}
		if c == '}' {
			p.pos++
			return m, nil
		}
		key, err := p.value()
		if err != nil {
			return nil, err
		}
		ks, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("map key must be a string, got %T", key)
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		m[ks] = val
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated map")
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c != '}' {
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c, _ := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	float := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			float = true
			p.pos++
			if c != '.' && p.pos < len(p.input) && (p.input[p.pos] == '-' || p.input[p.pos] == '+') {
				p.pos++
			}
			continue
		}
		break
	}
	text := p.input[start:p.pos]
	if !float {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", text)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q", text)
	}
	return f, nil
}

func (p *literalParser) word() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	switch p.input[start:p.pos] {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "none", "None", "null":
		return nil, nil
	case "":
		return nil, fmt.Errorf("unexpected character %q at offset %d", p.input[p.pos], p.pos)
	default:
		return nil, fmt.Errorf("not a literal: %q", p.input[start:p.pos])
	}
}
