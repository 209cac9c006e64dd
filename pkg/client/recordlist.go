package client

import (
	"fmt"

	"github.com/oerplib/oerp/pkg/domain"
)

// RecordList is an ordered collection of record ids bound to a model. It
// holds no field data itself: reads and writes always go through bulk
// remote calls, and indexing or slicing never touches the server.
type RecordList struct {
	model   *Model
	ids     []int64
	context map[string]any
}

func newRecordList(m *Model, ids []int64, context map[string]any) *RecordList {
	return &RecordList{model: m, ids: ids, context: context}
}

// Model returns the model handle this collection belongs to.
func (rl *RecordList) Model() *Model { return rl.model }

// Len returns the number of records.
func (rl *RecordList) Len() int { return len(rl.ids) }

// IDs returns a copy of the id sequence.
func (rl *RecordList) IDs() []int64 {
	out := make([]int64, len(rl.ids))
	copy(out, rl.ids)
	return out
}

func (rl *RecordList) String() string {
	if len(rl.ids) > 16 {
		return fmt.Sprintf("<RecordList %s, length=%d>", rl.model.name, len(rl.ids))
	}
	return fmt.Sprintf("<RecordList %s,%v>", rl.model.name, rl.ids)
}

// At returns the record at position i.
func (rl *RecordList) At(i int) *Record {
	return newRecord(rl.model, rl.ids[i], rl.context)
}

// Slice returns a new collection over ids[i:j].
func (rl *RecordList) Slice(i, j int) *RecordList {
	return newRecordList(rl.model, rl.ids[i:j], rl.context)
}

// Read bulk-reads the given fields for every record. With nil fields every
// field is read.
func (rl *RecordList) Read(fields []string) ([]map[string]any, error) {
	params := []any{rl.ids}
	if fields != nil {
		params = append(params, fields)
	}
	res, err := rl.execute("read", params)
	if err != nil {
		return nil, err
	}
	return toMapSlice(res)
}

// Write updates fields on every record of the collection.
func (rl *RecordList) Write(values map[string]any) error {
	_, err := rl.execute("write", []any{rl.ids, values})
	return err
}

// Unlink deletes every record of the collection.
func (rl *RecordList) Unlink() error {
	_, err := rl.execute("unlink", []any{rl.ids})
	return err
}

// Call invokes an arbitrary model method bound to the whole id list.
func (rl *RecordList) Call(method string, params ...any) (any, error) {
	return rl.execute(method, append([]any{rl.ids}, params...))
}

func (rl *RecordList) execute(method string, params []any) (any, error) {
	var opts domain.Options
	if rl.context != nil {
		opts = domain.Options{"context": rl.context}
	}
	return rl.model.client.ExecuteOpts(rl.model.name, method, params, opts)
}
