package paginate

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/hadi77ir/go-paginate/internal/cursor"
	"github.com/hadi77ir/go-paginate/store"
)

// Library-wide fallbacks used when neither the call nor the paginator defaults set a value
const (
	DefaultLimit      = 10
	DefaultPage       = 1
	DefaultLean       = false
	DefaultLeanWithID = true
)

var validate = validator.New()

// Options controls a single Paginate call
// Unset pointer fields fall back to the paginator defaults, then to the library fallbacks
type Options struct {
	// Select is the field projection forwarded to the store
	Select store.Projection `json:"select,omitempty"`

	// Sort is forwarded to the store
	Sort store.Sort `json:"sort,omitempty"`

	// Populate lists the references to expand
	Populate []store.Populate `json:"populate,omitempty"`

	// Lean returns plain maps instead of typed documents; dest must be a slice of maps
	Lean *bool `json:"lean,omitempty"`

	// LeanWithID adds an "id" string field mirroring "_id" to every lean document
	LeanWithID *bool `json:"leanWithId,omitempty"`

	// Offset selects offset mode and skips that many records
	Offset *int `json:"offset,omitempty" validate:"omitempty,gte=0"`

	// Page selects page mode (the default mode); pages are 1-based
	Page *int `json:"page,omitempty" validate:"omitempty,gte=1"`

	// Limit is the page size; 0 is valid and returns no documents
	Limit *int `json:"limit,omitempty" validate:"omitempty,gte=0"`

	// Cursor is a continuation token from a previous Result; it selects offset mode
	// and carries both the offset and the limit
	Cursor string `json:"cursor,omitempty"`
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}

// DefaultOptions returns the library-wide defaults: page 1, limit 10, lean off, leanWithId on
func DefaultOptions() Options {
	return Options{
		Lean:       Bool(DefaultLean),
		LeanWithID: Bool(DefaultLeanWithID),
		Page:       Int(DefaultPage),
		Limit:      Int(DefaultLimit),
	}
}

// Validate checks the option values and the select/populate specifications
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := o.Select.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	for _, p := range o.Populate {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
	}
	return nil
}

// addressesPage reports whether the options pick a position (page, offset or cursor)
func (o *Options) addressesPage() bool {
	return o.Page != nil || o.Offset != nil || o.Cursor != ""
}

// merge returns base overridden by every field set in override
// Page, Offset and Cursor are taken together so a call never mixes modes with its defaults
func merge(base Options, override *Options) Options {
	if override == nil {
		return base
	}
	out := base
	if override.Select != nil {
		out.Select = override.Select
	}
	if override.Sort != nil {
		out.Sort = override.Sort
	}
	if override.Populate != nil {
		out.Populate = override.Populate
	}
	if override.Lean != nil {
		out.Lean = override.Lean
	}
	if override.LeanWithID != nil {
		out.LeanWithID = override.LeanWithID
	}
	if override.Limit != nil {
		out.Limit = override.Limit
	}
	if override.addressesPage() {
		out.Page = override.Page
		out.Offset = override.Offset
		out.Cursor = override.Cursor
	}
	return out
}

// plan is the resolved form of merged options
type plan struct {
	limit      int
	skip       int64
	offsetMode bool
	page       int
	offset     int
	lean       bool
	leanWithID bool
}

// resolvePlan computes skip and limit from the page-vs-offset semantics
func resolvePlan(o Options, maxLimit int) (plan, error) {
	p := plan{
		limit:      DefaultLimit,
		lean:       DefaultLean,
		leanWithID: DefaultLeanWithID,
	}
	if o.Limit != nil {
		p.limit = *o.Limit
	}
	if o.Lean != nil {
		p.lean = *o.Lean
	}
	if o.LeanWithID != nil {
		p.leanWithID = *o.LeanWithID
	}

	switch {
	case o.Cursor != "":
		data, err := cursor.Decode(o.Cursor)
		if err != nil {
			return plan{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		p.offsetMode = true
		p.offset = int(data.Offset)
		p.limit = data.Limit
	case o.Offset != nil:
		p.offsetMode = true
		p.offset = *o.Offset
	default:
		p.page = DefaultPage
		if o.Page != nil {
			p.page = *o.Page
		}
	}

	if maxLimit > 0 && p.limit > maxLimit {
		p.limit = maxLimit
	}

	if p.offsetMode {
		p.skip = int64(p.offset)
	} else {
		p.skip = pageSkip(p.page, p.limit)
	}
	return p, nil
}

// pageSkip returns (page-1)*limit, saturating at math.MaxInt64 so a page far
// past the end reads as empty instead of wrapping negative
func pageSkip(page, limit int) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}
