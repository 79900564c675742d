package catalogtest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tclemos/catalog-bench/catalog"
)

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestServer_Status(t *testing.T) {
	s := NewServer(NewMemoryStore())

	w := doJSON(t, s, http.MethodGet, "/api/v1/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, s.ID().String(), body["id"])
}

func TestServer_NotificationStartsAtZero(t *testing.T) {
	s := NewServer(NewMemoryStore())

	w := doJSON(t, s, http.MethodGet, "/api/v1/notification", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]int64](t, w)
	assert.Equal(t, int64(0), body["id"])
}

func TestServer_UnknownDatabaseIs404(t *testing.T) {
	s := NewServer(NewMemoryStore())

	w := doJSON(t, s, http.MethodGet, "/api/v1/databases/ghost", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Contains(t, body["error"], "ghost")
}

func TestServer_CreateDatabaseRequiresName(t *testing.T) {
	s := NewServer(NewMemoryStore())

	w := doJSON(t, s, http.MethodPost, "/api/v1/databases", &catalog.Database{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CreateTableValidation(t *testing.T) {
	s := NewServer(NewMemoryStore())
	require.Equal(t, http.StatusCreated,
		doJSON(t, s, http.MethodPost, "/api/v1/databases", &catalog.Database{Name: "db"}).Code)

	w := doJSON(t, s, http.MethodPost, "/api/v1/databases/db/tables", &catalog.Table{Name: "events"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a table without columns is rejected")

	w = doJSON(t, s, http.MethodPost, "/api/v1/databases/db/tables", &catalog.Table{
		Columns: []catalog.FieldSchema{{Name: "id", Type: catalog.TypeInt}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a table without a name is rejected")
}

func TestServer_DropNonEmptyDatabaseNeedsCascade(t *testing.T) {
	s := NewServer(NewMemoryStore())
	require.Equal(t, http.StatusCreated,
		doJSON(t, s, http.MethodPost, "/api/v1/databases", &catalog.Database{Name: "db"}).Code)
	require.Equal(t, http.StatusCreated,
		doJSON(t, s, http.MethodPost, "/api/v1/databases/db/tables", storeTable("db", "events", false)).Code)

	w := doJSON(t, s, http.MethodDelete, "/api/v1/databases/db", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Contains(t, body["error"], "not empty")

	w = doJSON(t, s, http.MethodDelete, "/api/v1/databases/db?cascade=true", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/databases/db", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_AddPartitionArityMismatch(t *testing.T) {
	s := NewServer(NewMemoryStore())
	require.Equal(t, http.StatusCreated,
		doJSON(t, s, http.MethodPost, "/api/v1/databases", &catalog.Database{Name: "db"}).Code)
	require.Equal(t, http.StatusCreated,
		doJSON(t, s, http.MethodPost, "/api/v1/databases/db/tables", storeTable("db", "events", true)).Code)

	w := doJSON(t, s, http.MethodPost, "/api/v1/databases/db/tables/events/partitions",
		&catalog.Partition{Values: []string{"d0", "extra"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Contains(t, body["error"], "partition keys")
}

func TestServer_BadListPattern(t *testing.T) {
	s := NewServer(NewMemoryStore())
	require.Equal(t, http.StatusCreated,
		doJSON(t, s, http.MethodPost, "/api/v1/databases", &catalog.Database{Name: "db"}).Code)

	w := doJSON(t, s, http.MethodGet, "/api/v1/databases?pattern=%5B", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
