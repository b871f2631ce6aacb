package graphql

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// SchemaSource provides the schema to print. *graph.Builder implements it.
type SchemaSource interface {
	Schema() (*ast.Schema, error)
}

// WriteSchema writes s to w in SDL form. Built-in types are omitted.
func WriteSchema(w io.Writer, s *ast.Schema) error {
	if s == nil {
		return errors.New("graphql: nil schema")
	}
	ew := &errWriter{w: w}
	formatter.NewFormatter(ew).FormatSchema(s)
	return ew.err
}

// SchemaHandler serves the SDL of src as plain text.
func SchemaHandler(src SchemaSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := src.Schema()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		var buf bytes.Buffer
		if err := WriteSchema(&buf, s); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = buf.WriteTo(w)
	})
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}
