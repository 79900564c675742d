package catalogtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tclemos/catalog-bench/catalog"
)

// Server is an in-process catalog service over a Store. It implements
// http.Handler, so it mounts on httptest.Server in tests and serves
// standalone through the stub command. Every successful mutation advances
// the notification counter.
type Server struct {
	id    uuid.UUID
	store Store
	mux   *http.ServeMux
	nid   atomic.Int64
}

// NewServer wires the full route table over store.
func NewServer(store Store) *Server {
	s := &Server{
		id:    uuid.New(),
		store: store,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

// ID identifies this server instance in logs and the status endpoint.
func (s *Server) ID() uuid.UUID { return s.id }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Catalog request")
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/notification", s.handleNotification)

	s.mux.HandleFunc("GET /api/v1/databases", s.handleListDatabases)
	s.mux.HandleFunc("POST /api/v1/databases", s.handleCreateDatabase)
	s.mux.HandleFunc("GET /api/v1/databases/{db}", s.handleGetDatabase)
	s.mux.HandleFunc("DELETE /api/v1/databases/{db}", s.handleDropDatabase)

	s.mux.HandleFunc("GET /api/v1/databases/{db}/tables", s.handleListTables)
	s.mux.HandleFunc("POST /api/v1/databases/{db}/tables", s.handleCreateTable)
	s.mux.HandleFunc("GET /api/v1/databases/{db}/tables/{table}", s.handleGetTable)
	s.mux.HandleFunc("PUT /api/v1/databases/{db}/tables/{table}", s.handleAlterTable)
	s.mux.HandleFunc("DELETE /api/v1/databases/{db}/tables/{table}", s.handleDropTable)

	s.mux.HandleFunc("GET /api/v1/databases/{db}/tables/{table}/partitions", s.handleListPartitions)
	s.mux.HandleFunc("GET /api/v1/databases/{db}/tables/{table}/partitions/names", s.handlePartitionNames)
	s.mux.HandleFunc("POST /api/v1/databases/{db}/tables/{table}/partitions", s.handleAddPartition)
	s.mux.HandleFunc("POST /api/v1/databases/{db}/tables/{table}/partitions/batch", s.handleAddPartitions)
	s.mux.HandleFunc("POST /api/v1/databases/{db}/tables/{table}/partitions/lookup", s.handlePartitionsByNames)
	s.mux.HandleFunc("POST /api/v1/databases/{db}/tables/{table}/partitions/drop", s.handleDropPartitions)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"id":     s.id.String(),
	})
}

func (s *Server) handleNotification(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"id": s.nid.Load()})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListDatabases()
	if err != nil {
		s.storeError(w, err)
		return
	}
	if pattern := r.URL.Query().Get("pattern"); pattern != "" {
		filtered := make([]string, 0, len(names))
		for _, name := range names {
			ok, err := path.Match(pattern, name)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad pattern: "+pattern)
				return
			}
			if ok {
				filtered = append(filtered, name)
			}
		}
		names = filtered
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	var db catalog.Database
	if err := json.NewDecoder(r.Body).Decode(&db); err != nil {
		writeError(w, http.StatusBadRequest, "bad database body: "+err.Error())
		return
	}
	if db.Name == "" {
		writeError(w, http.StatusBadRequest, "database name is required")
		return
	}
	if err := s.store.CreateDatabase(&db); err != nil {
		s.storeError(w, err)
		return
	}
	s.bump()
	writeJSON(w, http.StatusCreated, &db)
}

func (s *Server) handleGetDatabase(w http.ResponseWriter, r *http.Request) {
	db, err := s.store.GetDatabase(r.PathValue("db"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, db)
}

func (s *Server) handleDropDatabase(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("db")
	if _, err := s.store.GetDatabase(name); err != nil {
		s.storeError(w, err)
		return
	}
	tables, err := s.store.ListTables(name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if len(tables) > 0 && r.URL.Query().Get("cascade") != "true" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("database %s is not empty", name))
		return
	}
	for _, table := range tables {
		if err := s.store.DeleteTable(name, table); err != nil {
			s.storeError(w, err)
			return
		}
	}
	if err := s.store.DeleteDatabase(name); err != nil {
		s.storeError(w, err)
		return
	}
	s.bump()
	noContent(w)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	if _, err := s.store.GetDatabase(db); err != nil {
		s.storeError(w, err)
		return
	}
	names, err := s.store.ListTables(db)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	if _, err := s.store.GetDatabase(db); err != nil {
		s.storeError(w, err)
		return
	}
	var t catalog.Table
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "bad table body: "+err.Error())
		return
	}
	t.Database = db
	if t.Name == "" {
		writeError(w, http.StatusBadRequest, "table name is required")
		return
	}
	if len(t.Columns) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("table %s.%s has no columns", db, t.Name))
		return
	}
	if err := s.store.CreateTable(&t); err != nil {
		s.storeError(w, err)
		return
	}
	s.bump()
	writeJSON(w, http.StatusCreated, &t)
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTable(r.PathValue("db"), r.PathValue("table"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleAlterTable replaces a table in place; when the body carries a new
// name the table and all its partitions are re-homed under it.
func (s *Server) handleAlterTable(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	name := r.PathValue("table")
	if _, err := s.store.GetTable(db, name); err != nil {
		s.storeError(w, err)
		return
	}
	var t catalog.Table
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "bad table body: "+err.Error())
		return
	}
	if t.Database == "" {
		t.Database = db
	}
	if t.Name == "" {
		t.Name = name
	}
	if t.Database != db {
		writeError(w, http.StatusBadRequest, "cannot move a table across databases")
		return
	}

	if t.Name == name {
		if err := s.store.UpdateTable(db, name, &t); err != nil {
			s.storeError(w, err)
			return
		}
		s.bump()
		writeJSON(w, http.StatusOK, &t)
		return
	}

	parts, err := s.store.ListPartitions(db, name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if err := s.store.CreateTable(&t); err != nil {
		s.storeError(w, err)
		return
	}
	for i := range parts {
		p := parts[i]
		p.Table = t.Name
		pname := catalog.PartitionName(t.PartitionKeys, p.Values)
		if err := s.store.CreatePartition(db, t.Name, pname, &p); err != nil {
			s.storeError(w, err)
			return
		}
	}
	// Dropping the old record takes its partition entries with it.
	if err := s.store.DeleteTable(db, name); err != nil {
		s.storeError(w, err)
		return
	}
	s.bump()
	writeJSON(w, http.StatusOK, &t)
}

func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTable(r.PathValue("db"), r.PathValue("table")); err != nil {
		s.storeError(w, err)
		return
	}
	s.bump()
	noContent(w)
}

func (s *Server) handleListPartitions(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	table := r.PathValue("table")
	if _, err := s.store.GetTable(db, table); err != nil {
		s.storeError(w, err)
		return
	}
	parts, err := s.store.ListPartitions(db, table)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

func (s *Server) handlePartitionNames(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	table := r.PathValue("table")
	if _, err := s.store.GetTable(db, table); err != nil {
		s.storeError(w, err)
		return
	}
	names, err := s.store.PartitionNames(db, table)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleAddPartition(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTable(r.PathValue("db"), r.PathValue("table"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	var p catalog.Partition
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad partition body: "+err.Error())
		return
	}
	if err := s.addPartition(t, &p); err != nil {
		s.storeError(w, err)
		return
	}
	s.bump()
	writeJSON(w, http.StatusCreated, &p)
}

func (s *Server) handleAddPartitions(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTable(r.PathValue("db"), r.PathValue("table"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	var parts []catalog.Partition
	if err := json.NewDecoder(r.Body).Decode(&parts); err != nil {
		writeError(w, http.StatusBadRequest, "bad partition batch body: "+err.Error())
		return
	}
	for i := range parts {
		if err := s.addPartition(t, &parts[i]); err != nil {
			s.storeError(w, err)
			return
		}
	}
	s.bump()
	writeJSON(w, http.StatusCreated, parts)
}

func (s *Server) handlePartitionsByNames(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	table := r.PathValue("table")
	if _, err := s.store.GetTable(db, table); err != nil {
		s.storeError(w, err)
		return
	}
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad lookup body: "+err.Error())
		return
	}
	// Unknown names are skipped rather than failing the whole lookup.
	parts := make([]catalog.Partition, 0, len(req.Names))
	for _, name := range req.Names {
		p, err := s.store.GetPartition(db, table, name)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			s.storeError(w, err)
			return
		}
		parts = append(parts, *p)
	}
	writeJSON(w, http.StatusOK, parts)
}

func (s *Server) handleDropPartitions(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	table := r.PathValue("table")
	if _, err := s.store.GetTable(db, table); err != nil {
		s.storeError(w, err)
		return
	}
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad drop body: "+err.Error())
		return
	}
	for _, name := range req.Names {
		if err := s.store.DeletePartition(db, table, name); err != nil {
			s.storeError(w, err)
			return
		}
	}
	s.bump()
	noContent(w)
}

// addPartition validates the value arity against the table's partition keys
// and stores the partition under its canonical name.
func (s *Server) addPartition(t *catalog.Table, p *catalog.Partition) error {
	if len(p.Values) != len(t.PartitionKeys) {
		return fmt.Errorf("%w: table %s.%s has %d partition keys, got %d values",
			catalog.ErrInvalidObject, t.Database, t.Name, len(t.PartitionKeys), len(p.Values))
	}
	p.Database = t.Database
	p.Table = t.Name
	name := catalog.PartitionName(t.PartitionKeys, p.Values)
	return s.store.CreatePartition(t.Database, t.Name, name, p)
}

func (s *Server) bump() {
	s.nid.Add(1)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInvalidObject):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Store operation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
