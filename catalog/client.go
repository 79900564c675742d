// Package catalog is the HTTP client and object model for the metadata
// catalog service the benchmarks run against: databases, tables and
// partitions addressed by name under /api/v1.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Default service address, matching the stub server's listen default.
const (
	DefaultHost = "localhost"
	DefaultPort = 9083
)

// Common service errors, recovered from response status codes.
var (
	ErrNotFound      = errors.New("object not found")
	ErrAlreadyExists = errors.New("object already exists")
	ErrInvalidObject = errors.New("invalid catalog object")
)

// IsNotFound reports whether err is the service's not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is the service's conflict condition.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// ServerURL builds the service base URL, applying the default host and port
// to empty values.
func ServerURL(host string, port int) string {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Client talks JSON over HTTP to one catalog service. It is safe for
// concurrent use; benchmark workers share a single instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, for tests or callers
// needing a custom transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a client for the service at baseURL. The default
// transport carries no timeout: an iteration is only over when the service
// answers, so a hung call blocks exactly its own worker.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// CurrentNotificationID returns the service's change counter. It advances on
// every mutation, so the call doubles as the cheapest possible round-trip.
func (c *Client) CurrentNotificationID(ctx context.Context) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notification", nil, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// ListDatabases returns database names matching the glob pattern, sorted.
// An empty pattern matches everything.
func (c *Client) ListDatabases(ctx context.Context, pattern string) ([]string, error) {
	path := "/api/v1/databases"
	if pattern != "" {
		path += "?pattern=" + url.QueryEscape(pattern)
	}
	var names []string
	if err := c.do(ctx, http.MethodGet, path, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// GetDatabase fetches one database by name.
func (c *Client) GetDatabase(ctx context.Context, name string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, databasePath(name), nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// CreateDatabase registers a new database.
func (c *Client) CreateDatabase(ctx context.Context, db *Database) error {
	return c.do(ctx, http.MethodPost, "/api/v1/databases", db, nil)
}

// DropDatabase removes a database. Without cascade the service refuses to
// drop a database that still holds tables.
func (c *Client) DropDatabase(ctx context.Context, name string, cascade bool) error {
	path := databasePath(name)
	if cascade {
		path += "?cascade=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// DatabaseExists probes for a database without fetching it.
func (c *Client) DatabaseExists(ctx context.Context, name string) (bool, error) {
	_, err := c.GetDatabase(ctx, name)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListTables returns the table names of a database, sorted.
func (c *Client) ListTables(ctx context.Context, db string) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, databasePath(db)+"/tables", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// GetTable fetches one table by name.
func (c *Client) GetTable(ctx context.Context, db, name string) (*Table, error) {
	var t Table
	if err := c.do(ctx, http.MethodGet, tablePath(db, name), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTable registers a new table in its database.
func (c *Client) CreateTable(ctx context.Context, t *Table) error {
	return c.do(ctx, http.MethodPost, databasePath(t.Database)+"/tables", t, nil)
}

// AlterTable replaces the table stored under db.name with t. Renames go
// through here: the service re-homes the table and its partitions under
// t.Name.
func (c *Client) AlterTable(ctx context.Context, db, name string, t *Table) error {
	return c.do(ctx, http.MethodPut, tablePath(db, name), t, nil)
}

// DropTable removes a table and any partitions it still holds.
func (c *Client) DropTable(ctx context.Context, db, name string) error {
	return c.do(ctx, http.MethodDelete, tablePath(db, name), nil, nil)
}

// TableExists probes for a table without fetching it.
func (c *Client) TableExists(ctx context.Context, db, name string) (bool, error) {
	_, err := c.GetTable(ctx, db, name)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddPartition registers one partition with its table.
func (c *Client) AddPartition(ctx context.Context, p *Partition) error {
	return c.do(ctx, http.MethodPost, tablePath(p.Database, p.Table)+"/partitions", p, nil)
}

// AddPartitions registers a batch of partitions with one table in a single
// round-trip.
func (c *Client) AddPartitions(ctx context.Context, db, table string, parts []*Partition) error {
	return c.do(ctx, http.MethodPost, tablePath(db, table)+"/partitions/batch", parts, nil)
}

// ListPartitions returns all partitions of a table.
func (c *Client) ListPartitions(ctx context.Context, db, table string) ([]Partition, error) {
	var parts []Partition
	if err := c.do(ctx, http.MethodGet, tablePath(db, table)+"/partitions", nil, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// PartitionNames returns the canonical k=v/k=v names of a table's
// partitions, sorted.
func (c *Client) PartitionNames(ctx context.Context, db, table string) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, tablePath(db, table)+"/partitions/names", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// PartitionsByNames fetches the partitions stored under the given canonical
// names. Unknown names are skipped, not errors.
func (c *Client) PartitionsByNames(ctx context.Context, db, table string, names []string) ([]Partition, error) {
	var parts []Partition
	err := c.do(ctx, http.MethodPost, tablePath(db, table)+"/partitions/lookup", namesRequest{Names: names}, &parts)
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// DropPartitions removes the partitions stored under the given canonical
// names.
func (c *Client) DropPartitions(ctx context.Context, db, table string, names []string) error {
	return c.do(ctx, http.MethodPost, tablePath(db, table)+"/partitions/drop", namesRequest{Names: names}, nil)
}

// DropPartition removes a single partition by canonical name.
func (c *Client) DropPartition(ctx context.Context, db, table, name string) error {
	return c.DropPartitions(ctx, db, table, []string{name})
}

type namesRequest struct {
	Names []string `json:"names"`
}

func databasePath(db string) string {
	return "/api/v1/databases/" + url.PathEscape(db)
}

func tablePath(db, table string) string {
	return databasePath(db) + "/tables/" + url.PathEscape(table)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	// Drain so the connection goes back to the pool.
	io.Copy(io.Discard, resp.Body)
	return nil
}

func apiError(resp *http.Response) error {
	msg := resp.Status
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, msg)
	}
	return fmt.Errorf("catalog service: %s", msg)
}
