package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depchrono/pkg/observability"
	"github.com/matzehuels/depchrono/pkg/registry"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
	"github.com/matzehuels/depchrono/pkg/temporal"
)

func record(name, id string) snapshot.PackageRecord {
	return snapshot.PackageRecord{
		Metadata: registry.Metadata{Name: name, UUID: id},
		Format:   registry.FormatLate,
	}
}

// fixture stores one snapshot document and writes its adjacency slice.
func fixture(t *testing.T) (store.Store, *temporal.Analyzer) {
	t.Helper()
	snap := snapshot.New("abc123", snapshot.SourceGeneral,
		map[string]snapshot.PackageRecord{
			"App":  record("App", "u-app"),
			"Lib":  record("Lib", "u-lib"),
			"Core": record("Core", "u-core"),
		},
		map[string]registry.DependencySet{
			"App": {"Lib": "u-lib"},
			"Lib": {"Core": "u-core"},
		},
	)

	st := store.NewMemoryStore()
	if err := store.PutJSON(context.Background(), st, "dependencies_2020-01.json", snap); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	ix := temporal.NewPackageIndex()
	ix.AddSnapshot("2020-01", snap)
	if err := temporal.WriteSMATFile(filepath.Join(dir, temporal.MatrixFile("2020-01")), temporal.Adjacency(ix, snap)); err != nil {
		t.Fatal(err)
	}
	return st, temporal.NewAnalyzer(dir, ix, log.New(io.Discard))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestServer_Status(t *testing.T) {
	st, an := fixture(t)
	srv := New(st, an, log.New(io.Discard))

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/healthz", http.StatusOK, ""},
		{"/snapshots", http.StatusOK, ""},
		{"/snapshots/dependencies_2020-01.json", http.StatusOK, ""},
		{"/snapshots/dependencies_1999-01.json", http.StatusNotFound, "NOT_FOUND"},
		{"/snapshots/dependencies_2020-01.json/packages/App", http.StatusOK, ""},
		{"/snapshots/dependencies_2020-01.json/packages/Nope", http.StatusNotFound, "PACKAGE_NOT_FOUND"},
		{"/temporal/App", http.StatusOK, ""},
		{"/temporal/Nope", http.StatusNotFound, "PACKAGE_NOT_FOUND"},
		{"/temporal/App?from=2020", http.StatusBadRequest, "INVALID_LABEL"},
		{"/temporal/App?self=maybe", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if tt.code != "" {
				var body errorBody
				decode(t, rec, &body)
				if body.Code != tt.code {
					t.Errorf("code = %q, want %q", body.Code, tt.code)
				}
			}
		})
	}
}

func TestServer_ListSnapshots(t *testing.T) {
	st, _ := fixture(t)
	rec := get(t, New(st, nil, log.New(io.Discard)), "/snapshots")
	var body map[string][]string
	decode(t, rec, &body)
	if want := []string{"dependencies_2020-01.json"}; !reflect.DeepEqual(body["snapshots"], want) {
		t.Errorf("snapshots = %v, want %v", body["snapshots"], want)
	}
}

func TestServer_Package(t *testing.T) {
	st, _ := fixture(t)
	rec := get(t, New(st, nil, log.New(io.Discard)), "/snapshots/dependencies_2020-01.json/packages/App")
	var body packageView
	decode(t, rec, &body)
	if body.Commit != "abc123" || body.Record.Metadata.UUID != "u-app" {
		t.Errorf("package = %+v", body)
	}
	if want := (registry.DependencySet{"Lib": "u-lib"}); !reflect.DeepEqual(body.Dependencies, want) {
		t.Errorf("dependencies = %v, want %v", body.Dependencies, want)
	}
}

func TestServer_Temporal(t *testing.T) {
	st, an := fixture(t)
	srv := New(st, an, log.New(io.Discard))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"App", "Core", "Lib"}},
		{"?self=false", []string{"Core", "Lib"}},
		{"?exclude=Core", []string{"App", "Lib"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, srv, "/temporal/App"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var res temporal.Result
			decode(t, rec, &res)
			if !reflect.DeepEqual(res.Slices[0].Dependencies, tt.want) {
				t.Errorf("dependencies = %v, want %v", res.Slices[0].Dependencies, tt.want)
			}
		})
	}
}

func TestServer_TemporalDisabled(t *testing.T) {
	st, _ := fixture(t)
	rec := get(t, New(st, nil, log.New(io.Discard)), "/temporal/App")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotImplemented)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	routes []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, route)
}

func TestServer_Hooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	st, _ := fixture(t)
	get(t, New(st, nil, log.New(io.Discard)), "/snapshots/dependencies_2020-01.json")
	if want := []string{"/snapshots/{name}"}; !reflect.DeepEqual(hooks.routes, want) {
		t.Errorf("routes = %v, want %v", hooks.routes, want)
	}
}
