package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPartnerFields(fc *fakeCaller) {
	fc.reply("res.partner.fields_get_keys", []any{"id", "name", "company_id", "child_ids"})
	fc.reply("res.partner.fields_get", map[string]any{
		"name": map[string]any{"type": "char", "string": "Name"},
		"company_id": map[string]any{
			"type": "many2one", "relation": "res.company", "string": "Company",
		},
		"child_ids": map[string]any{
			"type": "one2many", "relation": "res.partner", "string": "Contacts",
		},
	})
}

func TestBrowseIsLazy(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	stubPartnerFields(fc)
	fc.reply("res.partner.read", []any{
		map[string]any{"id": int64(7), "name": "Ada"},
	})

	baseline := len(fc.calls)
	rec := c.model("res.partner").Browse(7)
	assert.Equal(t, baseline, len(fc.calls), "Browse must not call the server")

	name, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
	assert.Equal(t, 1, fc.count("res.partner.read"))

	// Second access is served from the cache.
	name, err = rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
	assert.Equal(t, 1, fc.count("res.partner.read"))
}

func TestRecordGetID(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	rec := c.model("res.partner").Browse(7)
	id, err := rec.Get("id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestRecordGetUnknownField(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	stubPartnerFields(fc)

	rec := c.model("res.partner").Browse(7)
	_, err := rec.Get("credit")
	var attrErr *UnknownAttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "credit", attrErr.Name)
	assert.Equal(t, 0, fc.count("res.partner.read"))
}

func TestRecordGetPropagatesMetadataFault(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.fail("res.partner.fields_get_keys", fmt.Errorf("AccessDenied"))

	// A failed metadata fetch is not the same as an unknown field.
	rec := c.model("res.partner").Browse(7)
	_, err := rec.Get("name")
	require.Error(t, err)
	var attrErr *UnknownAttributeError
	assert.False(t, errors.As(err, &attrErr))
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.Equal(t, 0, fc.count("res.partner.read"))
}

func TestRecordRelationalFields(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	stubPartnerFields(fc)
	fc.reply("res.partner.read", []any{
		map[string]any{
			"id":         int64(7),
			"company_id": []any{int64(3), "ACME"},
			"child_ids":  []any{int64(8), int64(9)},
		},
	})

	rec := c.model("res.partner").Browse(7)

	company, err := rec.Get("company_id")
	require.NoError(t, err)
	companyRec, ok := company.(*Record)
	require.True(t, ok)
	assert.Equal(t, int64(3), companyRec.ID())
	assert.Equal(t, "res.company", companyRec.Model().Name())

	children, err := rec.Get("child_ids")
	require.NoError(t, err)
	childList, ok := children.(*RecordList)
	require.True(t, ok)
	assert.Equal(t, []int64{8, 9}, childList.IDs())
}

func TestRecordReadPrimesCache(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	stubPartnerFields(fc)
	fc.reply("res.partner.read", []any{
		map[string]any{"id": int64(7), "name": "Ada", "company_id": false},
	})

	rec := c.model("res.partner").Browse(7)
	values, err := rec.Read([]string{"name", "company_id"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", values["name"])
	assert.Equal(t, false, values["company_id"])

	name, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
	assert.Equal(t, 1, fc.count("res.partner.read"))
}

func TestRecordWriteInvalidatesCache(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	stubPartnerFields(fc)
	fc.reply("res.partner.read", []any{
		map[string]any{"id": int64(7), "name": "Ada"},
	})
	fc.reply("res.partner.write", true)

	rec := c.model("res.partner").Browse(7)
	_, err := rec.Get("name")
	require.NoError(t, err)

	require.NoError(t, rec.Write(map[string]any{"name": "Grace"}))

	// The write may have triggered server-side logic: everything refetches.
	_, err = rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, 2, fc.count("res.partner.read"))
}

func TestRecordSetRejectsID(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	stubPartnerFields(fc)

	rec := c.model("res.partner").Browse(7)
	err := rec.Set("id", int64(8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be changed")
}

func TestRecordName(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.name_get", []any{
		[]any{int64(7), "Ada Lovelace"},
	})

	rec := c.model("res.partner").Browse(7)
	assert.Equal(t, "[7] Ada Lovelace", rec.Name())

	fc.fail("res.partner.name_get", fmt.Errorf("boom"))
	assert.Equal(t, "[7] -", rec.Name())
}

func TestRecordCopy(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.copy", int64(20))

	rec := c.model("res.partner").Browse(7)
	dup, err := rec.Copy(map[string]any{"name": "Copy"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), dup.ID())
	assert.Equal(t, "res.partner", dup.Model().Name())
}

func TestRecordListSliceNoRemoteCalls(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	rl := c.model("res.partner").BrowseIDs([]int64{1, 2, 3, 4, 5})
	baseline := len(fc.calls)

	sub := rl.Slice(2, 4)
	assert.Equal(t, []int64{3, 4}, sub.IDs())
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, int64(3), sub.At(0).ID())
	assert.Equal(t, baseline, len(fc.calls))
}

func TestRecordListBulkWrite(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.write", true)

	rl := c.model("res.partner").BrowseIDs([]int64{1, 2, 3})
	require.NoError(t, rl.Write(map[string]any{"active": false}))

	args := fc.last("res.partner.write")
	require.Len(t, args, 7)
	assert.Equal(t, []int64{1, 2, 3}, args[5])
	assert.Equal(t, 1, fc.count("res.partner.write"))
}

func TestRecordListRead(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.read", []any{
		map[string]any{"id": int64(1), "name": "A"},
		map[string]any{"id": int64(2), "name": "B"},
	})

	rl := c.model("res.partner").BrowseIDs([]int64{1, 2})
	rows, err := rl.Read([]string{"name"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1]["name"])
}

func TestRecordsSearchesAndWraps(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.search", []any{int64(4), int64(6)})

	rl, err := c.model("res.partner").Records("name like A%")
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6}, rl.IDs())
}
