package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func fakePages(total int, calls *[]string) PageFetcher {
	return func(_ context.Context, skip, take int) (RecordSet, error) {
		*calls = append(*calls, fmt.Sprintf("%d/%d", skip, take))
		var rs RecordSet
		for i := skip; i < total && i < skip+take; i++ {
			rs = append(rs, Record{"n": i})
		}
		return rs, nil
	}
}

func TestPageIterator_All(t *testing.T) {
	var calls []string
	it := NewPageIterator(context.Background(), fakePages(5, &calls), 2)
	all, err := it.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("All() returned %d records", len(all))
	}
	want := []string{"0/2", "2/2", "4/2"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if it.HasNext() {
		t.Error("HasNext() should be false after a short page")
	}
	if rs, _ := it.Next(); len(rs) != 0 {
		t.Error("Next() after the end should return an empty page")
	}
}

func TestPageIterator_ExactMultipleAndReset(t *testing.T) {
	var calls []string
	it := NewPageIterator(nil, fakePages(4, &calls), 2)
	all, _ := it.All()
	if len(all) != 4 || len(calls) != 3 {
		t.Fatalf("records=%d calls=%v", len(all), calls)
	}
	first, err := it.Reset()
	if err != nil || len(first) != 2 || first[0]["n"] != 0 {
		t.Fatalf("Reset() = %v, %v", first, err)
	}
	if it.PageSize() != 2 {
		t.Errorf("PageSize() = %d", it.PageSize())
	}
}

func TestPageIterator_ErrorIsSticky(t *testing.T) {
	boom := errors.New("boom")
	it := NewPageIterator(context.Background(), func(context.Context, int, int) (RecordSet, error) {
		return nil, boom
	}, 0)
	if it.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want default", it.PageSize())
	}
	if _, err := it.All(); !errors.Is(err, boom) {
		t.Fatalf("All() error = %v", err)
	}
	if it.HasNext() {
		t.Error("HasNext() should be false after an error")
	}
	if _, err := it.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v", err)
	}
}
