package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glove/internal/domain"
)

type recorded struct {
	method string
	path   string
	apiKey string
	body   map[string]any
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.RequestURI(), apiKey: r.Header.Get("api-key")}
		if r.ContentLength > 0 {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec.body))
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestInitAndUpsertBatches(t *testing.T) {
	srv, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":true}`))
	})
	s := NewStorage(Config{URL: srv.URL, APIKey: "secret", Collection: "glove", BatchSize: 2})

	require.NoError(t, s.Init(2))
	entries := []domain.Entry{{ID: 1, Word: "a"}, {ID: 2, Word: "b"}, {ID: 3, Word: "c"}}
	require.NoError(t, s.Upsert(entries, [][]float64{{1, 0}, {0, 1}, {1, 1}}))

	require.Len(t, *reqs, 3)
	first := (*reqs)[0]
	assert.Equal(t, http.MethodPut, first.method)
	assert.Equal(t, "/collections/glove", first.path)
	assert.Equal(t, "secret", first.apiKey)
	vectors := first.body["vectors"].(map[string]any)
	assert.Equal(t, float64(2), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	assert.Equal(t, "/collections/glove/points?wait=true", (*reqs)[1].path)
	assert.Len(t, (*reqs)[1].body["points"], 2)
	last := (*reqs)[2].body["points"].([]any)
	require.Len(t, last, 1)
	point := last[0].(map[string]any)
	assert.Equal(t, float64(3), point["id"])
	assert.Equal(t, "c", point["payload"].(map[string]any)["word"])
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	s := NewStorage(Config{URL: srv.URL, Collection: "glove"})
	require.NoError(t, s.Init(3))
	err := s.Upsert([]domain.Entry{{ID: 1, Word: "a"}}, [][]float64{{1}})
	assert.Error(t, err)
}

func TestSearchParsesNeighbors(t *testing.T) {
	srv, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[{"id":7,"score":0.9,"payload":{"word":"king"}},{"id":9,"score":0.5,"payload":{}}]}`))
	})
	s := NewStorage(Config{URL: srv.URL, Collection: "glove"})

	res, err := s.Search([]float64{0.1, 0.2}, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, domain.Entry{ID: 7, Word: "king"}, res[0].Entry)
	assert.InDelta(t, 0.9, res[0].Score, 1e-12)
	assert.Equal(t, 9, res[1].Entry.ID)
	assert.Equal(t, float64(10), (*reqs)[0].body["limit"])
	assert.Equal(t, "/collections/glove/points/search", (*reqs)[0].path)
}

func TestClearToleratesMissingCollection(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	s := NewStorage(Config{URL: srv.URL, Collection: "glove"})
	assert.NoError(t, s.Clear())
	_, err := s.Search([]float64{1}, 1)
	assert.Error(t, err)
}
