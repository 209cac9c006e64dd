package client

import (
	"errors"
	"fmt"

	"github.com/oerplib/oerp/pkg/domain"
)

// Record is a lazily-populated local view of one remote record, identified
// by its model and id. Field values are fetched on first access and cached;
// any Write or Unlink invalidates the whole cache, so no read after a
// mutation can return stale data. Relational fields materialize as nested
// Record and RecordList handles.
type Record struct {
	model   *Model
	id      int64
	context map[string]any

	cache map[string]any
}

func newRecord(m *Model, id int64, context map[string]any) *Record {
	return &Record{model: m, id: id, context: context, cache: make(map[string]any)}
}

// ID returns the record id.
func (r *Record) ID() int64 { return r.id }

// Model returns the model handle this record belongs to.
func (r *Record) Model() *Model { return r.model }

func (r *Record) String() string {
	return fmt.Sprintf("<Record %s,%d>", r.model.name, r.id)
}

// Name returns "[id] display-name", degrading to "[id] -" when the server
// cannot provide one.
func (r *Record) Name() string {
	res, err := r.execute("name_get", []any{[]int64{r.id}})
	if err == nil {
		if pairs, ok := res.([]any); ok && len(pairs) == 1 {
			if pair, ok := pairs[0].([]any); ok && len(pair) == 2 {
				return fmt.Sprintf("[%d] %v", r.id, pair[1])
			}
		}
	}
	return fmt.Sprintf("[%d] -", r.id)
}

// Get returns the value of a field, reading it from the server on first
// access. Unknown field names fail locally with *UnknownAttributeError.
func (r *Record) Get(field string) (any, error) {
	if v, ok := r.cache[field]; ok {
		return v, nil
	}
	if field == "id" {
		return r.id, nil
	}
	known, err := r.model.hasField(field)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, &UnknownAttributeError{Model: r.model.name, Name: field}
	}
	res, err := r.execute("read", []any{[]int64{r.id}, []string{field}})
	if err != nil {
		return nil, err
	}
	rows, err := toMapSlice(res)
	if err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("read %s[%d]: no result", r.model.name, r.id)
	}
	value, err := r.materialize(field, rows[0][field])
	if err != nil {
		return nil, err
	}
	r.cache[field] = value
	return value, nil
}

// Read fetches the given fields at once, primes the cache and returns the
// materialized values. With nil fields every field is read.
func (r *Record) Read(fields []string) (map[string]any, error) {
	params := []any{[]int64{r.id}}
	if fields != nil {
		params = append(params, fields)
	}
	res, err := r.execute("read", params)
	if err != nil {
		return nil, err
	}
	rows, err := toMapSlice(res)
	if err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("read %s[%d]: no result", r.model.name, r.id)
	}
	out := make(map[string]any, len(rows[0]))
	for field, raw := range rows[0] {
		value, err := r.materialize(field, raw)
		if err != nil {
			return nil, err
		}
		r.cache[field] = value
		out[field] = value
	}
	return out, nil
}

// materialize resolves relational values into nested handles. Empty values
// (the server sends false) are kept as-is.
func (r *Record) materialize(field string, value any) (any, error) {
	if value == nil || value == false {
		return value, nil
	}
	info, err := r.model.Field(field)
	if err != nil {
		// The server always returns "id" and may return columns that
		// fields_get does not describe; keep those as plain values.
		var attrErr *UnknownAttributeError
		if errors.As(err, &attrErr) {
			return value, nil
		}
		return nil, err
	}
	switch info.Type {
	case "many2one":
		// The wire value is (id, display name)
		pair, ok := value.([]any)
		if !ok || len(pair) == 0 {
			return value, nil
		}
		id, ok := toInt64(pair[0])
		if !ok {
			return value, nil
		}
		related := r.model.client.model(info.Relation)
		return newRecord(related, id, r.context), nil
	case "one2many", "many2many":
		ids, err := toInt64Slice(value)
		if err != nil {
			return value, nil
		}
		related := r.model.client.model(info.Relation)
		return newRecordList(related, ids, r.context), nil
	default:
		return value, nil
	}
}

// Set writes one field and invalidates the cache.
func (r *Record) Set(field string, value any) error {
	known, err := r.model.hasField(field)
	if err != nil {
		return err
	}
	if !known {
		return &UnknownAttributeError{Model: r.model.name, Name: field}
	}
	if field == "id" {
		return fmt.Errorf("the id of a record cannot be changed")
	}
	return r.Write(map[string]any{field: value})
}

// Write updates fields on the server. The whole cache is dropped: a write
// may trigger remote business logic touching any other field.
func (r *Record) Write(values map[string]any) error {
	_, err := r.execute("write", []any{[]int64{r.id}, values})
	if err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Unlink deletes the record on the server. The handle must not be used
// afterwards.
func (r *Record) Unlink() error {
	_, err := r.execute("unlink", []any{[]int64{r.id}})
	if err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Copy duplicates the record, optionally overriding some values, and
// returns the new record.
func (r *Record) Copy(defaults map[string]any) (*Record, error) {
	params := []any{r.id}
	if defaults != nil {
		params = append(params, defaults)
	}
	res, err := r.execute("copy", params)
	if err != nil {
		return nil, err
	}
	id, ok := toInt64(res)
	if !ok {
		return nil, fmt.Errorf("copy: unexpected result %T", res)
	}
	return newRecord(r.model, id, r.context), nil
}

// Call invokes an arbitrary model method bound to this record's id.
func (r *Record) Call(method string, params ...any) (any, error) {
	return r.execute(method, append([]any{r.id}, params...))
}

func (r *Record) execute(method string, params []any) (any, error) {
	var opts domain.Options
	if r.context != nil {
		opts = domain.Options{"context": r.context}
	}
	return r.model.client.ExecuteOpts(r.model.name, method, params, opts)
}

func (r *Record) invalidate() {
	r.cache = make(map[string]any)
}
