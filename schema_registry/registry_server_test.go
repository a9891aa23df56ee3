package schema_registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeRegistry is an in-memory schema registry served over HTTP.
type fakeRegistry struct {
	mu       sync.Mutex
	schemas  map[int]string
	subjects map[string][]int
	requests map[string]int
	nextID   int

	username string
	password string
}

func newFakeRegistry(t *testing.T) (*fakeRegistry, *httptest.Server) {
	t.Helper()
	f := &fakeRegistry{
		schemas:  map[int]string{},
		subjects: map[string][]int{},
		requests: map[string]int{},
		nextID:   1,
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

// seed registers schema under subject directly and returns its id.
func (f *fakeRegistry) seed(subject, schema string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.register(subject, schema)
}

func (f *fakeRegistry) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

func (f *fakeRegistry) register(subject, schema string) int {
	for id, s := range f.schemas {
		if s == schema {
			for _, known := range f.subjects[subject] {
				if known == id {
					return id
				}
			}
			f.subjects[subject] = append(f.subjects[subject], id)
			return id
		}
	}
	id := f.nextID
	f.nextID++
	f.schemas[id] = schema
	f.subjects[subject] = append(f.subjects[subject], id)
	return id
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests[r.Method+" "+r.URL.Path]++
	w.Header().Set("Content-Type", contentType)

	if f.username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != f.username || pass != f.password {
			writeRegistryError(w, http.StatusUnauthorized, 40101, "unauthorized")
			return
		}
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "schemas" && parts[1] == "ids":
		id, _ := strconv.Atoi(parts[2])
		schema, ok := f.schemas[id]
		if !ok {
			writeRegistryError(w, http.StatusNotFound, CodeSchemaNotFound, "Schema not found")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"schema": schema})

	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "subjects" && parts[2] == "versions":
		ids, ok := f.subjects[parts[1]]
		if !ok {
			writeRegistryError(w, http.StatusNotFound, CodeSubjectNotFound, "Subject not found")
			return
		}
		version := len(ids)
		if parts[3] != "latest" {
			version, _ = strconv.Atoi(parts[3])
		}
		if version < 1 || version > len(ids) {
			writeRegistryError(w, http.StatusNotFound, CodeVersionNotFound, "Version not found")
			return
		}
		id := ids[version-1]
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"subject": parts[1], "id": id, "version": version, "schema": f.schemas[id],
		})

	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "subjects" && parts[2] == "versions":
		var body struct {
			Schema string `json:"schema"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": f.register(parts[1], body.Schema)})

	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "subjects":
		var body struct {
			Schema string `json:"schema"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ids, ok := f.subjects[parts[1]]
		if !ok {
			writeRegistryError(w, http.StatusNotFound, CodeSubjectNotFound, "Subject not found")
			return
		}
		for i, id := range ids {
			if f.schemas[id] == body.Schema {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"subject": parts[1], "id": id, "version": i + 1, "schema": body.Schema,
				})
				return
			}
		}
		writeRegistryError(w, http.StatusNotFound, CodeSchemaNotFound, "Schema not found")

	case r.Method == http.MethodPost && len(parts) == 5 && parts[0] == "compatibility":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"is_compatible": true})

	default:
		writeRegistryError(w, http.StatusNotFound, 404, "not found")
	}
}

func writeRegistryError(w http.ResponseWriter, status, code int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error_code": code, "message": msg})
}

// ── shared fakes ──────────────────────────────────────────────────────────────

type captureLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (c *captureLogger) InfoWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = append(c.infos, msg)
}

func (c *captureLogger) WarnWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, msg)
}

func (c *captureLogger) ErrorWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}
