package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/qrs-tools/go-qrs-client/core"
)

const (
	appID       = "a1b2c3d4-0000-4000-8000-000000000001"
	streamID    = "a1b2c3d4-0000-4000-8000-000000000002"
	taskID      = "a1b2c3d4-0000-4000-8000-000000000003"
	executionID = "a1b2c3d4-0000-4000-8000-000000000004"
	tagID       = "a1b2c3d4-0000-4000-8000-000000000005"
	userID      = "a1b2c3d4-0000-4000-8000-000000000006"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func init() {
	nowFunc = func() time.Time { return fixedNow }
}

type testRest struct {
	ctx         context.Context
	session     core.RESTSession
	resourceMap map[string]core.QRSResourceAPIWithContext
}

func (r *testRest) GetSession() core.RESTSession { return r.session }
func (r *testRest) GetResourceMap() map[string]core.QRSResourceAPIWithContext { return r.resourceMap }
func (r *testRest) GetCtx() context.Context { return r.ctx }
func (r *testRest) SetCtx(ctx context.Context) { r.ctx = ctx }

// testClient carries every resource wired to one httptest server.
type testClient struct {
	tags     *Tags
	cps      *CustomProperties
	users    *Users
	streams  *Streams
	apps     *Apps
	tasks    *ReloadTasks
	results  *ExecutionResults
	table    *Table
	about    *About
	resolver *CommonPropertiesResolver
}

func newTestClient(t *testing.T, mux *http.ServeMux) *testClient {
	t.Helper()
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)

	serverURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.ParseUint(serverURL.Port(), 10, 64)
	if err != nil {
		t.Fatal(err)
	}
	timeout := 5 * time.Second
	config := &core.QRSConfig{
		Host:    serverURL.Hostname(),
		Port:    port,
		Token:   "test-token",
		Timeout: &timeout,
	}
	if err = config.Validate(core.WithHost, core.WithAuth, core.WithPort, core.WithUserAgent,
		core.WithMaxConnections(4), core.WithPageSize(2)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	session, err := core.NewQRSSession(config)
	if err != nil {
		t.Fatalf("NewQRSSession() error = %v", err)
	}

	rest := &testRest{ctx: context.Background(), session: session, resourceMap: map[string]core.QRSResourceAPIWithContext{}}
	all := core.NewResourceOps(core.C, core.L, core.R, core.U, core.D)
	base := func(path string) *core.QRSResource {
		resource := core.NewQRSResource(path, path, rest, all, nil)
		rest.resourceMap[path] = resource
		return resource
	}

	c := &testClient{
		tags:    &Tags{base("tag")},
		cps:     &CustomProperties{base("custompropertydefinition")},
		users:   &Users{QRSResource: base("user")},
		streams: &Streams{QRSResource: base("stream")},
		apps:    &Apps{QRSResource: base("app")},
		tasks:   &ReloadTasks{QRSResource: base("reloadtask")},
		results: &ExecutionResults{base("executionresult")},
		table:   &Table{base("table")},
		about:   &About{base("about")},
	}
	c.resolver = NewCommonPropertiesResolver(c.tags, c.cps, c.users, c.streams)
	c.users.Resolver = c.resolver
	c.streams.Resolver = c.resolver
	c.apps.Resolver = c.resolver
	c.tasks.Resolver = c.resolver
	c.tasks.ExecutionResults = c.results
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return body
}

// filterIs fails the test unless the request carries the expected server filter.
func filterIs(t *testing.T, r *http.Request, want string) {
	t.Helper()
	if got := r.URL.Query().Get(core.QueryFilter); got != want {
		t.Errorf("%s %s filter = %q, want %q", r.Method, r.URL.Path, got, want)
	}
}
