package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelIsMemoized(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("ir.model.search", []any{int64(1)})
	fc.reply("ir.model.read", []any{
		map[string]any{"id": int64(1), "model": "res.partner"},
	})

	m1, err := c.Model("res.partner")
	require.NoError(t, err)
	m2, err := c.Model("res.partner")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, 1, fc.count("ir.model.read"))
}

func TestModelNotFoundListsMatches(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("ir.model.search", []any{int64(1), int64(2)})
	fc.reply("ir.model.read", []any{
		map[string]any{"id": int64(1), "model": "res.partner.bank"},
		map[string]any{"id": int64(2), "model": "res.partner.category"},
	})

	_, err := c.Model("res.partner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found: res.partner")
	assert.Contains(t, err.Error(), "res.partner.bank, res.partner.category")
}

func TestModelKeysFetchedOnce(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.fields_get_keys", []any{"name", "email", "id"})

	m := c.model("res.partner")
	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "id", "name"}, keys)

	_, err = m.Keys()
	require.NoError(t, err)
	assert.Equal(t, 1, fc.count("res.partner.fields_get_keys"))
	assert.True(t, m.HasKey("email"))
	assert.False(t, m.HasKey("credit"))
}

func TestModelFields(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.fields_get", map[string]any{
		"name": map[string]any{"type": "char", "string": "Name", "required": true},
		"company_id": map[string]any{
			"type": "many2one", "relation": "res.company", "string": "Company",
		},
	})

	m := c.model("res.partner")
	info, err := m.Field("company_id")
	require.NoError(t, err)
	assert.Equal(t, "many2one", info.Type)
	assert.Equal(t, "res.company", info.Relation)
	assert.Equal(t, "Company", info.Label)

	name, err := m.Field("name")
	require.NoError(t, err)
	assert.True(t, name.Required)

	_, err = m.Field("bogus")
	var attrErr *UnknownAttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "res.partner", attrErr.Model)
	assert.Equal(t, 1, fc.count("res.partner.fields_get"))

	subset, err := m.Fields("name")
	require.NoError(t, err)
	assert.Len(t, subset, 1)
}

func TestModelCreateReturnsRecord(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.create", int64(12))

	rec, err := c.model("res.partner").Create(map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.ID())
	assert.Equal(t, "res.partner", rec.Model().Name())
}
