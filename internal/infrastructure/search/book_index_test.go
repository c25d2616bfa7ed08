package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

// fakeES answers just enough of the Elasticsearch API for BookIndex.
type fakeES struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	search   string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	status, search := f.status, f.search
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if strings.HasSuffix(r.URL.Path, "/_search") {
		_, _ = io.WriteString(w, search)
		return
	}
	_, _ = io.WriteString(w, `{"result":"ok"}`)
}

func (f *fakeES) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newIndex(t *testing.T, f *fakeES) *BookIndex {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}, MaxRetries: 0, DisableRetry: true})
	require.NoError(t, err)
	return NewBookIndex(es, "books", nil)
}

func TestIndexBook(t *testing.T) {
	f := &fakeES{}
	x := newIndex(t, f)

	b := &entity.Book{ID: "b1", Title: "Kindred", AuthorID: "a1", AuthorName: "Octavia E. Butler", PublicationYear: 1979, UpdatedAt: time.Unix(0, 0)}
	require.NoError(t, x.IndexBook(context.Background(), b))

	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/books/_doc/b1", req.Path)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Kindred", doc["title"])
	assert.Equal(t, "Octavia E. Butler", doc["author_name"])
	assert.EqualValues(t, 1979, doc["publication_year"])
}

func TestRemoveBookIgnoresMissing(t *testing.T) {
	f := &fakeES{status: http.StatusNotFound}
	x := newIndex(t, f)
	require.NoError(t, x.RemoveBook(context.Background(), "gone"))
	assert.Equal(t, http.MethodDelete, f.last().Method)

	f.status = http.StatusInternalServerError
	assert.Error(t, x.RemoveBook(context.Background(), "gone"))
}

func TestSearchBooksReturnsIDsInOrder(t *testing.T) {
	f := &fakeES{search: `{"hits":{"hits":[{"_id":"b2"},{"_id":"b1"}]}}`}
	x := newIndex(t, f)

	ids, err := x.SearchBooks(context.Background(), "kindred", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, ids)

	req := f.last()
	assert.Equal(t, "/books/_search", req.Path)
	assert.Contains(t, req.Body, `"multi_match"`)
	assert.Contains(t, req.Body, `"size":5`)
}

func TestSearchBooksError(t *testing.T) {
	f := &fakeES{status: http.StatusServiceUnavailable, search: `{}`}
	x := newIndex(t, f)
	_, err := x.SearchBooks(context.Background(), "kindred", 5)
	assert.ErrorContains(t, err, "es search books")
}
