package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/hadi77ir/go-paginate/store"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrInvalidDataSource is returned when a data source does not yield a slice
var ErrInvalidDataSource = errors.New("data source is not a slice")

// DataSourceFunc is a function that returns the records to query
// This allows the records to be dynamically fetched/updated between queries
type DataSourceFunc func() interface{}

// Options contains memory-specific options
type Options struct {
	// Collections maps collection names used by populate to their records
	// Each value must be a slice, like the main data source
	Collections map[string]interface{}
}

// Store serves queries from in-memory slices of structs or maps
type Store struct {
	dataSource DataSourceFunc
	options    *Options
}

var _ store.Store = (*Store)(nil)
var _ store.SnapshotFinder = (*Store)(nil)

// NewStore creates a new memory store with static data
// data must be a slice (e.g., []MyStruct{} or []bson.M{})
func NewStore(data interface{}, opts *Options) *Store {
	return NewStoreWithDataSource(func() interface{} { return data }, opts)
}

// NewStoreWithDataSource creates a new memory store with a dynamic data source
// The dataSource function is called once per operation, allowing for live data updates
func NewStoreWithDataSource(dataSource DataSourceFunc, opts *Options) *Store {
	if opts == nil {
		opts = &Options{}
	}
	return &Store{
		dataSource: dataSource,
		options:    opts,
	}
}

// Name returns the store name
func (s *Store) Name() string {
	return "memory"
}

// Close does nothing for memory store
func (s *Store) Close() error {
	return nil
}

// Count returns the number of records matching filter
func (s *Store) Count(ctx context.Context, filter interface{}) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	matched, err := s.match(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Find stores the page of records selected by filter and opts in dest
func (s *Store) Find(ctx context.Context, filter interface{}, opts *store.FindOptions, dest interface{}) error {
	if _, err := store.SliceOf(dest); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	matched, err := s.match(filter)
	if err != nil {
		return err
	}
	return s.page(ctx, matched, opts, dest)
}

// FindPage counts and fetches from a single read of the data source
func (s *Store) FindPage(ctx context.Context, filter interface{}, opts *store.FindOptions, dest interface{}) (int64, error) {
	if _, err := store.SliceOf(dest); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	matched, err := s.match(filter)
	if err != nil {
		return 0, err
	}
	if err := s.page(ctx, matched, opts, dest); err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// match loads the data source and keeps the documents matching filter
func (s *Store) match(filter interface{}) ([]bson.M, error) {
	f, err := toFilter(filter)
	if err != nil {
		return nil, err
	}

	docs, err := load(s.dataSource())
	if err != nil {
		return nil, err
	}

	filtered := []bson.M{}
	for _, doc := range docs {
		ok, err := matchDoc(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, doc)
		}
	}
	return filtered, nil
}

// page sorts, slices, projects and populates the matched documents into dest
func (s *Store) page(ctx context.Context, docs []bson.M, opts *store.FindOptions, dest interface{}) error {
	if opts == nil {
		opts = &store.FindOptions{}
	}
	if err := opts.Select.Validate(); err != nil {
		return err
	}
	if opts.Skip < 0 || opts.Limit < 0 {
		return fmt.Errorf("%w: skip=%d limit=%d", store.ErrInvalidRange, opts.Skip, opts.Limit)
	}

	if len(opts.Sort) > 0 {
		sortDocs(docs, opts.Sort)
	}

	// bounds are compared before adding so huge skips and limits cannot overflow
	n := int64(len(docs))
	start := opts.Skip
	if start > n {
		start = n
	}
	end := n
	if opts.Limit > 0 && opts.Limit < end-start {
		end = start + opts.Limit
	}

	pageDocs := make([]bson.M, 0, end-start)
	for _, doc := range docs[start:end] {
		pageDocs = append(pageDocs, opts.Select.Apply(doc))
	}

	if len(opts.Populate) > 0 {
		if err := store.PopulateDocs(ctx, pageDocs, opts.Populate, s.resolve); err != nil {
			return err
		}
	}

	return store.DecodeInto(pageDocs, dest)
}

// resolve fetches populate targets from the configured collections
func (s *Store) resolve(ctx context.Context, collection string, ids []interface{}, sel store.Projection) ([]bson.M, error) {
	records, ok := s.options.Collections[collection]
	if !ok {
		return nil, store.NewFieldError(collection, store.ErrUnknownCollection)
	}
	docs, err := load(records)
	if err != nil {
		return nil, err
	}

	var refs []bson.M
	for _, doc := range docs {
		if matchIn(doc[store.IDField], true, ids) {
			refs = append(refs, sel.Apply(doc))
		}
	}
	return refs, nil
}

// load normalizes every record of a slice into a bson.M
func load(data interface{}) ([]bson.M, error) {
	dataVal := reflect.ValueOf(data)
	if dataVal.Kind() == reflect.Ptr {
		dataVal = dataVal.Elem()
	}
	if dataVal.Kind() != reflect.Slice {
		return nil, ErrInvalidDataSource
	}

	docs := make([]bson.M, 0, dataVal.Len())
	for i := 0; i < dataVal.Len(); i++ {
		doc, err := store.ToDocument(dataVal.Index(i).Interface())
		if err != nil {
			return nil, store.NewOperationError("load record", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// sortDocs sorts documents in place; the sort is stable so ties keep insertion order
func sortDocs(docs []bson.M, spec store.Sort) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range spec {
			a, _ := store.LookupPath(docs[i], f.Field)
			b, _ := store.LookupPath(docs[j], f.Field)
			cmp, _ := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if f.Order == store.SortOrderDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
