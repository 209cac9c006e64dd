package domain

import (
	"github.com/oerplib/oerp/pkg/logger"
)

// Options carries the optional keyword-style arguments of a remote call.
// Keys consumed during normalization are removed from the map; whatever is
// left belongs to the caller.
type Options map[string]any

// Pop removes and returns the value for key.
func (o Options) Pop(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o[key]
	if ok {
		delete(o, key)
	}
	return v, ok
}

// PopDefault removes and returns the value for key, or def when absent.
func (o Options) PopDefault(key string, def any) any {
	if v, ok := o.Pop(key); ok {
		return v
	}
	return def
}

// Translator normalizes loosely-shaped search parameters into the canonical
// positional-argument form expected by the server.
type Translator struct {
	log *logger.Logger
}

// NewTranslator returns a Translator reporting diagnostics to log, which may
// be nil.
func NewTranslator(log *logger.Logger) *Translator {
	return &Translator{log: log}
}

func (t *Translator) warn(format string, args ...any) {
	if t.log != nil {
		t.log.Warn(format, args...)
	}
}

// Normalize parses the string terms of a domain into canonical Terms.
// Connector tokens pass through unchanged, as does any element that is
// already structured.
func (t *Translator) Normalize(items []any) (Domain, error) {
	out := make(Domain, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || IsConnector(s) {
			out[i] = item
			continue
		}
		term, err := ParseTerm(s)
		if err != nil {
			return nil, err
		}
		out[i] = term
	}
	return out, nil
}

// SearchArgs computes the canonical positional arguments for the search
// family of methods. The first parameter may be a Domain, a plain list, a
// list of term strings, a single term string or a single Term; the last two
// are accepted as a deprecated shorthand. When opts or context accompany a
// single positional domain they are folded into the fixed
// (domain, offset, limit, order, context) tuple; offset, limit and order are
// removed from opts in that case.
func (t *Translator) SearchArgs(params []any, opts Options, context map[string]any) ([]any, error) {
	if len(params) == 0 {
		return []any{Domain{}}, nil
	}

	var items []any
	switch first := params[0].(type) {
	case string:
		t.warn("domain should be a list: [%q]", first)
		items = []any{first}
	case Term:
		t.warn("domain should be a list: [%v]", first)
		items = []any{first}
	case Domain:
		items = first
	case []any:
		items = first
	case []string:
		items = make([]any, len(first))
		for i, s := range first {
			items[i] = s
		}
	case []Term:
		items = make([]any, len(first))
		for i, term := range first {
			items[i] = term
		}
	default:
		// Not a domain at all; leave the parameters to the caller.
		return params, nil
	}

	dom, err := t.Normalize(items)
	if err != nil {
		return nil, err
	}

	if (len(opts) > 0 || context != nil) && len(params) == 1 {
		var ctx any
		if context != nil {
			ctx = context
		}
		return []any{
			dom,
			opts.PopDefault("offset", int64(0)),
			opts.PopDefault("limit", nil),
			opts.PopDefault("order", nil),
			ctx,
		}, nil
	}
	out := make([]any, 0, len(params))
	out = append(out, dom)
	out = append(out, params[1:]...)
	return out, nil
}
