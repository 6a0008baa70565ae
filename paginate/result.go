package paginate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// PageCount is the number of pages in page mode
// It is +Inf when the limit is zero
type PageCount float64

// Pages computes ceil(total/limit), or +Inf for a zero limit
func Pages(total int64, limit int) PageCount {
	if limit <= 0 {
		return PageCount(math.Inf(1))
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return PageCount(pages)
}

// IsInfinite reports whether the count is +Inf
func (c PageCount) IsInfinite() bool {
	return math.IsInf(float64(c), 1)
}

// Int returns the count as an integer, math.MaxInt64 when infinite
func (c PageCount) Int() int64 {
	if c.IsInfinite() {
		return math.MaxInt64
	}
	return int64(c)
}

func (c PageCount) String() string {
	if c.IsInfinite() {
		return "Infinity"
	}
	return strconv.FormatInt(int64(c), 10)
}

// MarshalJSON encodes +Inf as the string "Infinity" since JSON has no infinity
func (c PageCount) MarshalJSON() ([]byte, error) {
	if c.IsInfinite() {
		return []byte(`"Infinity"`), nil
	}
	return []byte(strconv.FormatInt(int64(c), 10)), nil
}

// UnmarshalJSON accepts an integer or the string "Infinity"
func (c *PageCount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "Infinity" {
			return fmt.Errorf("invalid page count %q", s)
		}
		*c = PageCount(math.Inf(1))
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid page count: %w", err)
	}
	*c = PageCount(n)
	return nil
}

// Result represents the metadata of a computed page
// Note: Documents are stored in the destination passed to Paginate, or in Page.Docs
type Result struct {
	// Total is the number of records matching the filter, irrespective of paging
	Total int64 `json:"total"`

	// Limit is the page size that was applied
	Limit int `json:"limit"`

	// Page is the 1-based page number (page mode only)
	Page *int `json:"page,omitempty"`

	// Pages is the number of pages (page mode only)
	Pages *PageCount `json:"pages,omitempty"`

	// Offset is the number of skipped records (offset mode only)
	Offset *int `json:"offset,omitempty"`

	// ItemsReturned is the number of documents in this page
	ItemsReturned int `json:"items_returned"`

	// NextCursor continues with the following page (empty if there is none)
	NextCursor string `json:"next_cursor,omitempty"`

	// PrevCursor returns to the preceding page (empty if there is none)
	PrevCursor string `json:"prev_cursor,omitempty"`
}

// IsPageMode returns true if the result was addressed by page number
func (r *Result) IsPageMode() bool {
	return r.Page != nil
}

// HasNextPage returns true if there is a next page available
func (r *Result) HasNextPage() bool {
	return r.NextCursor != ""
}

// HasPrevPage returns true if there is a previous page available
func (r *Result) HasPrevPage() bool {
	return r.PrevCursor != ""
}

// IsEmpty returns true if the page contains no documents
func (r *Result) IsEmpty() bool {
	return r.ItemsReturned == 0
}

// Page is a Result together with its documents
type Page[T any] struct {
	Result
	Docs []T `json:"docs"`
}
