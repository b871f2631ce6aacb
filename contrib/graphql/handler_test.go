package graphql_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/syssam/graphop/contrib/graphql"
	"github.com/syssam/graphop/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// recorder is an Executor remembering the last request.
type recorder struct {
	last  graph.Request
	calls int
}

func (r *recorder) Exec(_ context.Context, req graph.Request) *graph.Response {
	r.last = req
	r.calls++
	return &graph.Response{Data: map[string]any{"echo": req.Query}}
}

type body struct {
	Data   map[string]any `json:"data" msgpack:"data"`
	Errors []struct {
		Message string `json:"message" msgpack:"message"`
		Path    []any  `json:"path" msgpack:"path"`
	} `json:"errors" msgpack:"errors"`
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	assert.Equal(t, graphql.ContentTypeJSON, rec.Header().Get("Content-Type"))
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestHandlerPostJSON(t *testing.T) {
	exec := &recorder{}
	h := graphql.NewHandler(exec)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"{ a }","operationName":"Op","variables":{"n":1}}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	b := decodeJSON(t, rec)
	assert.Equal(t, "{ a }", b.Data["echo"])
	assert.Equal(t, "Op", exec.last.OperationName)
	assert.Equal(t, json.Number("1"), exec.last.Variables["n"])
}

func TestHandlerPostMsgpack(t *testing.T) {
	exec := &recorder{}
	h := graphql.NewHandler(exec)

	payload, err := msgpack.Marshal(&graph.Request{Query: "{ b }", Variables: map[string]any{"k": "v"}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", graphql.ContentTypeMsgpack)
	req.Header.Set("Accept", "text/html, application/msgpack;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, graphql.ContentTypeMsgpack, rec.Header().Get("Content-Type"))
	var b body
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "{ b }", b.Data["echo"])
	assert.Equal(t, "v", exec.last.Variables["k"])
}

func TestHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "malformed_json", method: http.MethodPost, target: "/query", contentType: graphql.ContentTypeJSON, body: `{"query":`, wantStatus: http.StatusBadRequest},
		{name: "empty_query", method: http.MethodPost, target: "/query", contentType: graphql.ContentTypeJSON, body: `{"query":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "unsupported_type", method: http.MethodPost, target: "/query", contentType: "text/plain", body: `{ a }`, wantStatus: http.StatusBadRequest},
		{name: "bad_variables", method: http.MethodGet, target: "/query?query=" + url.QueryEscape("{ a }") + "&variables=" + url.QueryEscape("{nope"), wantStatus: http.StatusBadRequest},
		{name: "get_mutation", method: http.MethodGet, target: "/query?query=" + url.QueryEscape("mutation { a }"), wantStatus: http.StatusMethodNotAllowed},
		{name: "put", method: http.MethodPut, target: "/query", wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recorder{}
			h := graphql.NewHandler(exec)
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			b := decodeJSON(t, rec)
			assert.Nil(t, b.Data)
			assert.Len(t, b.Errors, 1)
			assert.Zero(t, exec.calls)
		})
	}
}

func TestHandlerBodyLimit(t *testing.T) {
	exec := &recorder{}
	h := graphql.NewHandler(exec, graphql.WithMaxBodySize(8))
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"{ aaaaaaaaaaaaaaaa }"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, exec.calls)
}

func nameEcho(_ context.Context, _ any, args map[string]any) (any, error) {
	return "hi " + args["name"].(string), nil
}

func newBuilder(t *testing.T) *graph.Builder {
	t.Helper()
	b := graph.NewBuilder()
	require.NoError(t, b.AddEntrypoint("hi", graph.Query, `extend type Query { hi(name: String!): String! }`, nameEcho, nil))
	require.NoError(t, b.AddEntrypoint("set", graph.Mutation, `extend type Mutation { set(name: String!): String! }`, nameEcho, nil))
	return b
}

func TestHandlerWithBuilder(t *testing.T) {
	srv := httptest.NewServer(graphql.NewHandler(newBuilder(t)))
	defer srv.Close()

	t.Run("get_query", func(t *testing.T) {
		q := url.Values{}
		q.Set("query", `query Hi($n: String!) { hi(name: $n) }`)
		q.Set("variables", `{"n":"gopher"}`)
		resp, err := http.Get(srv.URL + "?" + q.Encode())
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var b body
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
		assert.Equal(t, "hi gopher", b.Data["hi"])
	})

	t.Run("post_mutation", func(t *testing.T) {
		resp, err := http.Post(srv.URL, graphql.ContentTypeJSON, strings.NewReader(`{"query":"mutation { set(name: \"x\") }"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var b body
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
		assert.Equal(t, "hi x", b.Data["set"])
	})

	t.Run("validation_error_is_200", func(t *testing.T) {
		resp, err := http.Post(srv.URL, graphql.ContentTypeJSON, strings.NewReader(`{"query":"{ missing }"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var b body
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
		assert.Nil(t, b.Data)
		assert.NotEmpty(t, b.Errors)
	})
}

func TestPlayground(t *testing.T) {
	rec := httptest.NewRecorder()
	graphql.Playground("graphop", "/query").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graphop")
	assert.Contains(t, rec.Body.String(), "/query")
}
