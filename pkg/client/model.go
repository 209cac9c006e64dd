package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oerplib/oerp/pkg/domain"
)

// FieldInfo describes one field of a model.
type FieldInfo struct {
	Type     string
	Relation string
	Required bool
	ReadOnly bool
	Label    string
}

// Model is the handle for one remote entity class. Instances are memoized
// per client: asking twice for the same name returns the same pointer. The
// field metadata is fetched on first use and kept for the life of the client
// (or until a schema-changing operation clears the registry).
type Model struct {
	client *Client
	name   string

	keys   []string
	fields map[string]FieldInfo
}

// model returns the memoized handle without checking that the model exists
// remotely.
func (c *Client) model(name string) *Model {
	if m, ok := c.models[name]; ok {
		return m
	}
	m := &Model{client: c, name: name}
	c.models[name] = m
	return m
}

// ModelNames lists the model names matching the pattern.
func (c *Client) ModelNames(pattern string) ([]string, error) {
	dom := domain.Domain{domain.Term{Field: "model", Operator: "like", Value: pattern}}
	res, err := c.Execute("ir.model", "read", dom, []string{"model"})
	if err != nil {
		return nil, err
	}
	rows, err := toMapSlice(res)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["model"].(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Models returns a Model handle for every model matching the pattern, keyed
// by name.
func (c *Client) Models(pattern string) (map[string]*Model, error) {
	names, err := c.ModelNames(pattern)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Model, len(names))
	for _, name := range names {
		out[name] = c.model(name)
	}
	return out, nil
}

// Model returns the handle for the named model, verifying it exists
// remotely. The lookup result is memoized.
func (c *Client) Model(name string) (*Model, error) {
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	models, err := c.Models(name)
	if err != nil {
		return nil, err
	}
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	if len(models) > 0 {
		names := make([]string, 0, len(models))
		for n := range models {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("model not found: %s; these models exist: %s",
			name, strings.Join(names, ", "))
	}
	return nil, fmt.Errorf("model not found: %s", name)
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Client returns the owning client.
func (m *Model) Client() *Client { return m.client }

func (m *Model) String() string {
	return fmt.Sprintf("<Model %q>", m.name)
}

// Keys returns the sorted field names of the model.
func (m *Model) Keys() ([]string, error) {
	if m.keys != nil {
		return m.keys, nil
	}
	res, err := m.client.Execute(m.name, "fields_get_keys")
	if err != nil {
		return nil, err
	}
	keys, err := toStringSlice(res)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	m.keys = keys
	return keys, nil
}

// HasKey reports whether name is a field of the model.
func (m *Model) HasKey(name string) bool {
	ok, err := m.hasField(name)
	return err == nil && ok
}

// hasField is HasKey with the metadata fetch error kept apart, so callers can
// tell an unknown field from a failed fields_get_keys call.
func (m *Model) hasField(name string) (bool, error) {
	keys, err := m.Keys()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == name {
			return true, nil
		}
	}
	return false, nil
}

// Fields returns the field descriptors of the model, optionally restricted
// to the given names.
func (m *Model) Fields(names ...string) (map[string]FieldInfo, error) {
	if m.fields == nil {
		res, err := m.client.Execute(m.name, "fields_get")
		if err != nil {
			return nil, err
		}
		raw, ok := res.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fields_get: unexpected result %T", res)
		}
		fields := make(map[string]FieldInfo, len(raw))
		for name, desc := range raw {
			attrs, ok := desc.(map[string]any)
			if !ok {
				continue
			}
			info := FieldInfo{}
			info.Type, _ = attrs["type"].(string)
			info.Relation, _ = attrs["relation"].(string)
			info.Label, _ = attrs["string"].(string)
			info.Required, _ = attrs["required"].(bool)
			info.ReadOnly, _ = attrs["readonly"].(bool)
			fields[name] = info
		}
		m.fields = fields
	}
	if len(names) == 0 {
		return m.fields, nil
	}
	out := make(map[string]FieldInfo, len(names))
	for _, name := range names {
		if info, ok := m.fields[name]; ok {
			out[name] = info
		}
	}
	return out, nil
}

// Field returns the descriptor of one field.
func (m *Model) Field(name string) (FieldInfo, error) {
	fields, err := m.Fields()
	if err != nil {
		return FieldInfo{}, err
	}
	info, ok := fields[name]
	if !ok {
		return FieldInfo{}, &UnknownAttributeError{Model: m.name, Name: name}
	}
	return info, nil
}

// Access reports whether the active user has the given access mode on this
// model. It never returns an error: a permission fault means false.
func (m *Model) Access(mode string) bool {
	return m.client.Access(m.name, mode)
}

// Search returns the ids matching the domain.
func (m *Model) Search(params ...any) ([]int64, error) {
	return m.client.Search(m.name, params...)
}

// SearchOpts is Search with offset, limit, order and context options.
func (m *Model) SearchOpts(params []any, opts domain.Options) ([]int64, error) {
	return m.client.SearchOpts(m.name, params, opts)
}

// Count returns the number of records matching the domain.
func (m *Model) Count(dom any) (int64, error) {
	return m.client.Count(m.name, dom)
}

// Read reads fields of records; see Client.Read.
func (m *Model) Read(idsOrDomain any, fields any) (any, error) {
	return m.client.Read(m.name, idsOrDomain, fields)
}

// Create inserts a record and returns its handle.
func (m *Model) Create(values map[string]any) (*Record, error) {
	id, err := m.client.Create(m.name, values)
	if err != nil {
		return nil, err
	}
	return newRecord(m, id, nil), nil
}

// Browse returns the record handle for one id. No data is fetched.
func (m *Model) Browse(id int64) *Record {
	return newRecord(m, id, nil)
}

// BrowseIDs returns a collection over the given ids. No data is fetched.
func (m *Model) BrowseIDs(ids []int64) *RecordList {
	return newRecordList(m, ids, nil)
}

// Records searches the domain and returns the matching collection.
func (m *Model) Records(params ...any) (*RecordList, error) {
	ids, err := m.Search(params...)
	if err != nil {
		return nil, err
	}
	return newRecordList(m, ids, nil), nil
}

// Call invokes an arbitrary model method.
func (m *Model) Call(method string, params ...any) (any, error) {
	return m.client.Execute(m.name, method, params...)
}
