package paginate

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/hadi77ir/go-paginate/internal/cursor"
	"github.com/hadi77ir/go-paginate/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config configures a Paginator once; it is reused for every call
type Config struct {
	// Defaults are merged under the options of every call
	Defaults Options

	// MaxLimit caps the resolved limit; 0 means no cap
	MaxLimit int `validate:"gte=0"`

	// Consistent reads the total and the page in one store operation when the
	// store implements store.SnapshotFinder
	Consistent bool

	// Logger receives a debug event per call; nil disables logging
	Logger *zerolog.Logger `validate:"-"`
}

// Paginator computes pages of a store
type Paginator struct {
	store      store.Store
	defaults   Options
	maxLimit   int
	consistent bool
	logger     zerolog.Logger
}

// NewPaginator creates a new paginator over s
// A nil cfg uses the library defaults (page 1, limit 10, lean off, leanWithId on)
func NewPaginator(s store.Store, cfg *Config) (*Paginator, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("store", s.Name()).Logger()
	}

	return &Paginator{
		store:      s,
		defaults:   merge(DefaultOptions(), &cfg.Defaults),
		maxLimit:   cfg.MaxLimit,
		consistent: cfg.Consistent,
		logger:     logger,
	}, nil
}

// Defaults returns the options every call is merged over
func (p *Paginator) Defaults() Options {
	return p.defaults
}

// Paginate computes one page of the records matching filter and stores its documents in dest
// dest must be a pointer to a slice; in lean mode a slice of string-keyed maps
// (e.g., &[]bson.M{}). filter is passed to the store unmodified.
func (p *Paginator) Paginate(ctx context.Context, filter interface{}, opts *Options, dest interface{}) (*Result, error) {
	start := time.Now()

	slice, err := store.SliceOf(dest)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	merged := merge(p.defaults, opts)
	pl, err := resolvePlan(merged, p.maxLimit)
	if err != nil {
		return nil, err
	}
	if pl.lean && !store.IsMapSlice(dest) {
		return nil, fmt.Errorf("%w: lean mode needs a slice of maps", ErrInvalidDestination)
	}

	findOpts := &store.FindOptions{
		Select:   merged.Select,
		Sort:     merged.Sort,
		Populate: merged.Populate,
		Skip:     pl.skip,
		Limit:    int64(pl.limit),
	}

	// Fetch into a scratch slice so a failed call never leaves a partial page in dest
	scratch := reflect.New(slice.Type())
	total, err := p.fetch(ctx, filter, findOpts, pl.limit, scratch.Interface())
	if err != nil {
		p.logger.Debug().
			Err(err).
			Int64("skip", pl.skip).
			Int("limit", pl.limit).
			Dur("took", time.Since(start)).
			Msg("paginate failed")
		return nil, err
	}

	docs := scratch.Elem()
	if docs.IsNil() {
		docs = reflect.MakeSlice(slice.Type(), 0, 0)
	}
	if pl.lean && pl.leanWithID {
		injectIDs(docs)
	}
	slice.Set(docs)

	result, err := assemble(pl, total, docs.Len())
	if err != nil {
		return nil, err
	}

	mode := "page"
	if pl.offsetMode {
		mode = "offset"
	}
	p.logger.Debug().
		Str("mode", mode).
		Int64("skip", pl.skip).
		Int("limit", pl.limit).
		Int64("total", total).
		Int("returned", result.ItemsReturned).
		Bool("lean", pl.lean).
		Dur("took", time.Since(start)).
		Msg("paginate")

	return result, nil
}

// fetch counts and finds; a zero limit only counts
func (p *Paginator) fetch(ctx context.Context, filter interface{}, findOpts *store.FindOptions, limit int, dest interface{}) (int64, error) {
	if limit == 0 {
		return p.store.Count(ctx, filter)
	}

	if p.consistent {
		if finder, ok := p.store.(store.SnapshotFinder); ok {
			return finder.FindPage(ctx, filter, findOpts, dest)
		}
	}

	// Count and find are independent reads; the first failure cancels the other
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := p.store.Count(gctx, filter)
		if err != nil {
			return err
		}
		total = n
		return nil
	})
	g.Go(func() error {
		return p.store.Find(gctx, filter, findOpts, dest)
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// assemble builds the result metadata for the resolved plan
func assemble(pl plan, total int64, returned int) (*Result, error) {
	result := &Result{
		Total:         total,
		Limit:         pl.limit,
		ItemsReturned: returned,
	}

	if pl.offsetMode {
		result.Offset = Int(pl.offset)
	} else {
		pages := Pages(total, pl.limit)
		result.Page = Int(pl.page)
		result.Pages = &pages
	}

	if pl.limit == 0 {
		return result, nil
	}

	var err error
	if pl.skip < total-int64(returned) {
		next := pl.skip + int64(pl.limit)
		if next < pl.skip {
			next = math.MaxInt64
		}
		result.NextCursor, err = cursor.Encode(&cursor.CursorData{
			Offset:    next,
			Limit:     pl.limit,
			Direction: cursor.DirectionNext,
		})
		if err != nil {
			return nil, err
		}
	}
	if pl.skip > 0 {
		prev := pl.skip - int64(pl.limit)
		if prev < 0 {
			prev = 0
		}
		result.PrevCursor, err = cursor.Encode(&cursor.CursorData{
			Offset:    prev,
			Limit:     pl.limit,
			Direction: cursor.DirectionPrev,
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Fetch is the generic form of Paginate returning the documents with the result
func Fetch[T any](ctx context.Context, p *Paginator, filter interface{}, opts *Options) (*Page[T], error) {
	docs := []T{}
	result, err := p.Paginate(ctx, filter, opts, &docs)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Result: *result, Docs: docs}, nil
}
