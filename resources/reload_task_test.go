package resources

import (
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qrs-tools/go-qrs-client/core"
)

func TestReloadTasks_Create(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /qrs/tag/full", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{map[string]any{"id": tagID, "name": "nightly"}})
	})
	mux.HandleFunc("POST /qrs/reloadtask/create", func(w http.ResponseWriter, r *http.Request) {
		body := readJSON(t, r)
		task, _ := body["task"].(map[string]any)
		app, _ := task["app"].(map[string]any)
		if app["id"] != appID {
			t.Errorf("task app = %v", task["app"])
		}
		if task["taskSessionTimeout"] != float64(1440) || task["enabled"] != true {
			t.Errorf("task defaults = %v", task)
		}
		if _, ok := body["compositeEvents"].([]any); !ok {
			t.Errorf("compositeEvents missing: %v", body)
		}
		task["id"] = taskID
		writeJSON(t, w, task)
	})
	c := newTestClient(t, mux)

	task, err := c.tasks.Create(ReloadTaskCreate{AppID: appID, Name: "Reload Sales", Tags: []string{"nightly"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID != taskID || task.TaskType != core.TaskTypeReload || len(task.Tags) != 1 {
		t.Errorf("Create() = %+v", task)
	}

	if _, err = c.tasks.Create(ReloadTaskCreate{AppID: "nope", Name: "x"}); !core.IsValidationErr(err) {
		t.Errorf("invalid app id error = %v", err)
	}
}

func executionResultHandler(t *testing.T, statuses ...any) (http.HandlerFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		filterIs(t, r, "ExecutionID eq "+executionID)
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		if statuses[n] == nil {
			writeJSON(t, w, []any{})
			return
		}
		writeJSON(t, w, []any{map[string]any{
			"id":          "a1b2c3d4-0000-4000-8000-0000000000e1",
			"executionID": executionID,
			"taskID":      taskID,
			"status":      statuses[n],
			"details":     []any{map[string]any{"detailsType": 1, "message": "Reload step"}, map[string]any{"detailsType": 2, "message": "last words"}},
		}})
	}, &calls
}

func startHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != taskID {
			t.Errorf("start id = %s", r.PathValue("id"))
		}
		writeJSON(t, w, map[string]any{"value": executionID})
	}
}

func TestReloadTasks_StartSynchronousWait(t *testing.T) {
	handler, calls := executionResultHandler(t, nil, int(core.StatusStarted), int(core.StatusFinishedSuccess))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /qrs/task/{id}/start/synchronous", startHandler(t))
	mux.HandleFunc("GET /qrs/executionresult/full", handler)
	c := newTestClient(t, mux)

	handle, err := c.tasks.StartSynchronous(taskID)
	if err != nil {
		t.Fatalf("StartSynchronous() error = %v", err)
	}
	if handle.ExecutionID != executionID {
		t.Errorf("ExecutionID = %s", handle.ExecutionID)
	}
	handle.WaitConfig = &core.WaitAPIConditionConfig{Interval: 10 * time.Millisecond}

	var awaitable core.Awaitable = handle
	record, err := awaitable.Wait(5 * time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if record["executionID"] != executionID {
		t.Errorf("Wait() = %v", record)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("polled %d times, want 3", n)
	}
}

func TestReloadTasks_WaitFailure(t *testing.T) {
	handler, _ := executionResultHandler(t, "FinishedFail")
	mux := http.NewServeMux()
	mux.HandleFunc("POST /qrs/task/{id}/start/synchronous", startHandler(t))
	mux.HandleFunc("GET /qrs/executionresult/full", handler)
	c := newTestClient(t, mux)

	handle, err := c.tasks.StartSynchronous(taskID)
	if err != nil {
		t.Fatalf("StartSynchronous() error = %v", err)
	}
	result, err := handle.ResultWithContext(c.tasks.Rest.GetCtx())
	var failed *ExecutionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected ExecutionFailedError, got %v", err)
	}
	if failed.Status != core.StatusFinishedFail || failed.Message != "last words" {
		t.Errorf("unexpected failure %+v", failed)
	}
	if result == nil || result.Status != core.StatusFinishedFail {
		t.Errorf("result should still be returned, got %+v", result)
	}
}

func TestReloadTasks_Start(t *testing.T) {
	var started atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /qrs/task/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		started.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)

	if err := c.tasks.Start(taskID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !started.Load() {
		t.Error("start endpoint was not called")
	}
	if err := c.tasks.Start(""); !core.IsValidationErr(err) {
		t.Errorf("empty id error = %v", err)
	}
}

func TestExecutionResults_GetByExecutionID(t *testing.T) {
	handler, _ := executionResultHandler(t, int(core.StatusFinishedSuccess))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /qrs/executionresult/full", handler)
	c := newTestClient(t, mux)

	result, err := c.results.GetByExecutionID(executionID)
	if err != nil {
		t.Fatalf("GetByExecutionID() error = %v", err)
	}
	if !result.Status.Succeeded() || result.LastMessage() != "last words" {
		t.Errorf("GetByExecutionID() = %+v", result)
	}
}
