package core

import (
	"context"
	"fmt"
)

// ######################################################
//              ITERATOR INTERFACES
// ######################################################

// Iterator walks results exposed with skip/take paging.
type Iterator interface {
	// Next fetches the next page. Returns an empty RecordSet when there are no more pages.
	Next() (RecordSet, error)

	// HasNext returns true until a short page has been received.
	HasNext() bool

	// PageSize returns the number of records requested per page.
	PageSize() int

	// Reset rewinds to the first page and returns it.
	Reset() (RecordSet, error)

	// All fetches all remaining pages and returns them as a single RecordSet.
	All() (RecordSet, error)
}

// PageFetcher returns up to take records starting at offset skip.
type PageFetcher func(ctx context.Context, skip, take int) (RecordSet, error)

// ######################################################
//              PAGE ITERATOR IMPLEMENTATION
// ######################################################

// PageIterator implements Iterator over a PageFetcher.
type PageIterator struct {
	ctx      context.Context
	fetch    PageFetcher
	pageSize int

	skip     int
	page     int
	finished bool
	err      error
}

// NewPageIterator creates an iterator. A non-positive pageSize falls back to DefaultPageSize.
func NewPageIterator(ctx context.Context, fetch PageFetcher, pageSize int) *PageIterator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &PageIterator{ctx: ctx, fetch: fetch, pageSize: pageSize}
}

func (it *PageIterator) Next() (RecordSet, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.finished {
		return RecordSet{}, nil
	}
	records, err := it.fetch(it.ctx, it.skip, it.pageSize)
	if err != nil {
		it.err = err
		return nil, err
	}
	it.page++
	it.skip += len(records)
	if len(records) < it.pageSize {
		it.finished = true
	}
	return records, nil
}

func (it *PageIterator) HasNext() bool {
	return it.err == nil && !it.finished
}

func (it *PageIterator) PageSize() int {
	return it.pageSize
}

func (it *PageIterator) Reset() (RecordSet, error) {
	it.skip, it.page, it.finished, it.err = 0, 0, false, nil
	return it.Next()
}

func (it *PageIterator) All() (RecordSet, error) {
	var all RecordSet
	for it.HasNext() {
		records, err := it.Next()
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (it *PageIterator) String() string {
	return fmt.Sprintf("PageIterator(page=%d, skip=%d, pageSize=%d, finished=%v)", it.page, it.skip, it.pageSize, it.finished)
}
