package core

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

const (
	tagID1 = "6a3c6e7a-6f0c-4c43-8c7f-37a3f4b0a001"
	tagID2 = "6a3c6e7a-6f0c-4c43-8c7f-37a3f4b0a002"
)

func tagServer(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/qrs/tag/full":
			switch r.URL.Query().Get(QueryFilter) {
			case "name eq 'Finance'":
				writeJSON(w, http.StatusOK, []map[string]any{{"id": tagID1, "name": "Finance"}})
			case "name eq 'Missing'":
				writeJSON(w, http.StatusOK, []map[string]any{})
			default:
				writeJSON(w, http.StatusOK, []map[string]any{
					{"id": tagID1, "name": "Finance"},
					{"id": tagID2, "name": "Sales"},
				})
			}
		case r.Method == http.MethodGet && r.URL.Path == "/qrs/tag/"+tagID1:
			writeJSON(w, http.StatusOK, map[string]any{"id": tagID1, "name": "Finance"})
		case r.Method == http.MethodGet && r.URL.Path == "/qrs/tag/"+tagID2:
			writeJSON(w, http.StatusNotFound, map[string]any{})
		case r.Method == http.MethodGet && r.URL.Path == "/qrs/tag/count":
			writeJSON(w, http.StatusOK, map[string]any{"value": 2})
		case r.Method == http.MethodPost && r.URL.Path == "/qrs/tag":
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"name":"New"`) {
				t.Errorf("unexpected body %s", body)
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": tagID2, "name": "New"})
		case r.Method == http.MethodPut && r.URL.Path == "/qrs/tag/"+tagID1:
			writeJSON(w, http.StatusOK, map[string]any{"id": tagID1, "name": "Renamed"})
		case r.Method == http.MethodDelete && r.URL.Path == "/qrs/tag/"+tagID1:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotImplemented)
		}
	}
}

func TestQRSResource_CRUD(t *testing.T) {
	session, _ := newTestSession(t, tagServer(t))
	tags := newTestResource(session, "/tag/", "Tag", nil)
	ctx := context.Background()

	if tags.GetResourcePath() != "tag" {
		t.Errorf("GetResourcePath() = %q", tags.GetResourcePath())
	}

	all, err := tags.List(nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %v, %v", all, err)
	}

	one, err := tags.GetWithContext(ctx, Params{QueryFilter: "name eq 'Finance'"})
	if err != nil || one.RecordID() != tagID1 {
		t.Fatalf("Get() = %v, %v", one, err)
	}

	if _, err = tags.Get(Params{QueryFilter: "name eq 'Missing'"}); !IsNotFoundErr(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if _, err = tags.Get(nil); !IsTooManyRecordsErr(err) {
		t.Errorf("expected TooManyRecordsError, got %v", err)
	}

	filtered, err := tags.GetFilter("name eq 'Finance'")
	if err != nil || len(filtered) != 1 {
		t.Fatalf("GetFilter() = %v, %v", filtered, err)
	}

	byID, err := tags.GetById(tagID1)
	if err != nil || byID.RecordName() != "Finance" {
		t.Fatalf("GetById() = %v, %v", byID, err)
	}
	if _, err = tags.GetById(tagID2); !IsNotFoundErr(err) {
		t.Errorf("expected NotFoundError for 404, got %v", err)
	}

	created, err := tags.Create(Params{"name": "New"})
	if err != nil || created.RecordID() != tagID2 {
		t.Fatalf("Create() = %v, %v", created, err)
	}

	updated, err := tags.Update(tagID1, Params{"name": "Renamed"})
	if err != nil || updated.RecordName() != "Renamed" {
		t.Fatalf("Update() = %v, %v", updated, err)
	}

	if _, err = tags.DeleteById(tagID1); err != nil {
		t.Fatalf("DeleteById() error = %v", err)
	}

	count, err := tags.Count("")
	if err != nil || count != 2 {
		t.Fatalf("Count() = %d, %v", count, err)
	}
}

func TestQRSResource_InvalidID(t *testing.T) {
	var calls int32
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	tags := newTestResource(session, "tag", "Tag", nil)
	for _, id := range []string{"", "not-a-guid", "123"} {
		if _, err := tags.GetById(id); !IsValidationErr(err) {
			t.Errorf("GetById(%q) expected ValidationError, got %v", id, err)
		}
		if _, err := tags.Update(id, Params{}); !IsValidationErr(err) {
			t.Errorf("Update(%q) expected ValidationError, got %v", id, err)
		}
		if _, err := tags.DeleteById(id); !IsValidationErr(err) {
			t.Errorf("DeleteById(%q) expected ValidationError, got %v", id, err)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("no request should be sent for invalid ids, got %d", calls)
	}
}

func TestQRSResource_UnsupportedOperation(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	rest := &testRest{ctx: context.Background(), session: session, resourceMap: map[string]QRSResourceAPIWithContext{}}
	results := NewQRSResource("executionresult", "ExecutionResult", rest, NewResourceOps(L, R), nil)
	_, err := results.Create(Params{})
	if !IsValidationErr(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "executionresult.create") {
		t.Errorf("error should name the operation: %v", err)
	}
	if results.Ops().String() != "LR" {
		t.Errorf("Ops() = %s", results.Ops())
	}
}

type countingInterceptor struct {
	before int32
	after  int32
}

func (c *countingInterceptor) BeforeRequest(_ context.Context, r *http.Request, _, url string, _ io.Reader) error {
	atomic.AddInt32(&c.before, 1)
	if strings.Contains(url, QueryXrfKey) {
		return &ValidationError{Message: "xrfkey leaked to interceptor"}
	}
	r.Header.Set("X-Test", "intercepted")
	return nil
}

func (c *countingInterceptor) AfterRequest(_ context.Context, response Renderable) (Renderable, error) {
	atomic.AddInt32(&c.after, 1)
	if rs, ok := response.(RecordSet); ok {
		for _, r := range rs {
			r["intercepted"] = true
		}
	}
	return response, nil
}

func TestQRSResource_Interceptors(t *testing.T) {
	var userHook int32
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "intercepted" {
			t.Errorf("interceptor header missing")
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": tagID1}})
	}, func(c *QRSConfig) {
		c.AfterRequestFn = func(_ context.Context, response Renderable) (Renderable, error) {
			atomic.AddInt32(&userHook, 1)
			return response, nil
		}
	})
	interceptor := &countingInterceptor{}
	tags := newTestResource(session, "tag", "Tag", interceptor)
	records, err := tags.List(nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if records[0]["intercepted"] != true {
		t.Error("AfterRequest mutation not applied")
	}
	if interceptor.before != 1 || interceptor.after != 1 || userHook != 1 {
		t.Errorf("hooks called before=%d after=%d user=%d", interceptor.before, interceptor.after, userHook)
	}
}
