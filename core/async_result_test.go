package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitAPIConditionConfig_NextInterval(t *testing.T) {
	cfg := &WaitAPIConditionConfig{Interval: 100 * time.Millisecond, MaxInterval: 150 * time.Millisecond, BackoffFactor: 0.5}
	if got := cfg.NextInterval(); got != 100*time.Millisecond {
		t.Errorf("first interval = %v", got)
	}
	if got := cfg.NextInterval(); got != 150*time.Millisecond {
		t.Errorf("second interval = %v", got)
	}
	if got := cfg.NextInterval(); got != 150*time.Millisecond {
		t.Errorf("capped interval = %v", got)
	}

	empty := &WaitAPIConditionConfig{}
	empty.normalize()
	if empty.Timeout != 10*time.Minute || empty.Interval != 500*time.Millisecond {
		t.Errorf("normalize() = %+v", empty)
	}
}

func TestWaitAPICondition(t *testing.T) {
	var calls int32
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch {
		case n == 1:
			// execution result not created yet
			writeJSON(w, http.StatusOK, []map[string]any{})
		case n < 3:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": tagID1, "status": 2}})
		default:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": tagID1, "status": 7}})
		}
	})
	results := newTestResource(session, "executionresult", "ExecutionResult", nil)
	cfg := &WaitAPIConditionConfig{Interval: time.Millisecond, Timeout: 5 * time.Second}

	record, err := WaitAPICondition(context.Background(), results, Params{QueryFilter: "executionID eq x"}, cfg,
		func(r Record) (bool, error) {
			status, err := ParseTaskExecutionStatus(r["status"])
			if err != nil {
				return false, err
			}
			return status.Terminal(), nil
		})
	if err != nil {
		t.Fatalf("WaitAPICondition() error = %v", err)
	}
	if record["status"] != float64(7) || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("record=%v calls=%d", record, calls)
	}
}

func TestWaitAPICondition_VerifyErrorAndTimeout(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": tagID1, "status": 2}})
	})
	results := newTestResource(session, "executionresult", "ExecutionResult", nil)

	boom := errors.New("failed")
	_, err := WaitAPICondition(context.Background(), results, Params{}, &WaitAPIConditionConfig{Interval: time.Millisecond},
		func(Record) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected verify error, got %v", err)
	}

	_, err = WaitAPICondition(context.Background(), results, Params{}, &WaitAPIConditionConfig{
		Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond,
	}, func(Record) (bool, error) { return false, nil })
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WaitAPICondition(ctx, results, Params{}, &WaitAPIConditionConfig{Interval: time.Millisecond},
		func(Record) (bool, error) { return false, nil })
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
