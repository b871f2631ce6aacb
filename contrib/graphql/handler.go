package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/graph"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vmihailenco/msgpack/v5"
)

// Content types understood by the Handler.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// DefaultMaxBodySize is the request body limit used when none is configured.
const DefaultMaxBodySize int64 = 1 << 20

// Executor executes GraphQL requests. *graph.Builder implements it.
type Executor interface {
	Exec(context.Context, graph.Request) *graph.Response
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used to report transport failures.
func WithLogger(l graphop.Logger) Option {
	return func(h *Handler) {
		h.log = l
	}
}

// WithMaxBodySize limits the size of POST bodies.
func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		h.maxBody = n
	}
}

// Handler serves GraphQL over HTTP. POST bodies are JSON or msgpack; GET
// requests carry the query in the URL and may only run queries. Responses
// are JSON unless the client accepts msgpack.
type Handler struct {
	exec    Executor
	log     graphop.Logger
	maxBody int64
}

// NewHandler returns a Handler dispatching to exec.
func NewHandler(exec Executor, opts ...Option) *Handler {
	h := &Handler{exec: exec, maxBody: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		req graph.Request
		err error
	)
	switch r.Method {
	case http.MethodPost:
		req, err = h.decodeBody(w, r)
	case http.MethodGet:
		req, err = decodeQuery(r)
		if err == nil {
			if kind := operationKind(req); kind != "" && kind != ast.Query {
				h.fail(w, r, http.StatusMethodNotAllowed, fmt.Errorf("%s operations are not allowed over GET", kind))
				return
			}
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		h.fail(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.fail(w, r, http.StatusBadRequest, errors.New("query is required"))
		return
	}
	h.write(w, r, http.StatusOK, h.exec.Exec(r.Context(), req))
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (graph.Request, error) {
	var req graph.Request
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case ContentTypeMsgpack:
		dec := msgpack.NewDecoder(body)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("decode msgpack body: %w", err)
		}
	case ContentTypeJSON, "":
		dec := json.NewDecoder(body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("decode json body: %w", err)
		}
	default:
		return req, fmt.Errorf("unsupported content type %q", mediaType)
	}
	return req, nil
}

func decodeQuery(r *http.Request) (graph.Request, error) {
	q := r.URL.Query()
	req := graph.Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if v := q.Get("variables"); v != "" {
		dec := json.NewDecoder(strings.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&req.Variables); err != nil {
			return req, fmt.Errorf("decode variables: %w", err)
		}
	}
	return req, nil
}

// operationKind returns the kind of the operation req selects, or an empty
// string when it cannot be determined. The executor reports those cases.
func operationKind(req graph.Request) ast.Operation {
	doc, err := parser.ParseQuery(&ast.Source{Input: req.Query})
	if err != nil {
		return ""
	}
	for _, op := range doc.Operations {
		if (req.OperationName == "" && len(doc.Operations) == 1) || op.Name == req.OperationName {
			return op.Operation
		}
	}
	return ""
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if h.log != nil {
		h.log.Debug("graphql request rejected", "status", status, "error", err.Error())
	}
	h.write(w, r, status, &graph.Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err)}})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, resp *graph.Response) {
	var err error
	if accepts(r, ContentTypeMsgpack) {
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		err = enc.Encode(resp)
	} else {
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.WriteHeader(status)
		err = json.NewEncoder(w).Encode(resp)
	}
	if err != nil && h.log != nil {
		h.log.Error("write graphql response", "error", err.Error())
	}
}

func accepts(r *http.Request, mediaType string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if t, _, err := mime.ParseMediaType(strings.TrimSpace(part)); err == nil && t == mediaType {
			return true
		}
	}
	return false
}

// Playground returns the GraphiQL playground page for endpoint.
func Playground(title, endpoint string) http.Handler {
	return playground.Handler(title, endpoint)
}
