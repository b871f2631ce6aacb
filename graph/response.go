package graph

import (
	"bytes"
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Response is the result of executing a Request. Data is nil when the
// request failed before any field was resolved.
//
// Data is a map, but a Response returned by Exec encodes its JSON objects
// with the keys in selection order. msgpack output and a Response built by
// hand use the encoder's map order.
type Response struct {
	Data   map[string]any `json:"data" msgpack:"data"`
	Errors gqlerror.List  `json:"errors,omitempty" msgpack:"errors,omitempty"`

	selection ast.SelectionSet
	vars      map[string]any
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"data":`)
	if err := writeOrdered(&buf, r.Data, r.selection, r.vars); err != nil {
		return nil, err
	}
	if len(r.Errors) > 0 {
		errs, err := json.Marshal(r.Errors)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"errors":`)
		buf.Write(errs)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeOrdered encodes v, writing the keys of selected objects in the order
// collectFields yields them.
func writeOrdered(buf *bytes.Buffer, v any, set ast.SelectionSet, vars map[string]any) error {
	if len(set) > 0 {
		switch v := v.(type) {
		case map[string]any:
			if v == nil {
				break
			}
			buf.WriteByte('{')
			n := 0
			for _, f := range collectFields(set, vars) {
				child, ok := v[f.alias]
				if !ok {
					continue
				}
				if n > 0 {
					buf.WriteByte(',')
				}
				n++
				key, err := json.Marshal(f.alias)
				if err != nil {
					return err
				}
				buf.Write(key)
				buf.WriteByte(':')
				if err := writeOrdered(buf, child, f.selection, vars); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
			return nil
		case []any:
			if v == nil {
				break
			}
			buf.WriteByte('[')
			for i, item := range v {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeOrdered(buf, item, set, vars); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
			return nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
