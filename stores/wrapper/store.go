package wrapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/hadi77ir/go-paginate/store"
	"go.mongodb.org/mongo-driver/bson"
)

// Store wraps another store and restricts which fields a query may reference
// Filters, sorts, projections and populate paths are all checked before the inner store runs
type Store struct {
	inner         store.Store
	allowedFields []string
}

var _ store.Store = (*Store)(nil)
var _ store.SnapshotFinder = (*Store)(nil)

// NewStore creates a new wrapper store
//
// Parameters:
//   - inner: The store to wrap
//   - allowedFields: List of fields allowed by this wrapper (empty slice means no restriction)
func NewStore(inner store.Store, allowedFields []string) *Store {
	return &Store{
		inner:         inner,
		allowedFields: allowedFields,
	}
}

// Name returns the name of this store
func (s *Store) Name() string {
	return "wrapper(" + s.inner.Name() + ")"
}

// Close cleans up resources (also closes inner store)
func (s *Store) Close() error {
	if s.inner != nil {
		return s.inner.Close()
	}
	return nil
}

// Count validates the filter fields before delegating to the inner store
func (s *Store) Count(ctx context.Context, filter interface{}) (int64, error) {
	if err := s.validateFilter(filter); err != nil {
		return 0, err
	}
	return s.inner.Count(ctx, filter)
}

// Find validates the filter and options fields before delegating to the inner store
func (s *Store) Find(ctx context.Context, filter interface{}, opts *store.FindOptions, dest interface{}) error {
	if err := s.validate(filter, opts); err != nil {
		return err
	}
	return s.inner.Find(ctx, filter, opts, dest)
}

// FindPage delegates to the inner store's single-read path, or emulates it with Count and Find
func (s *Store) FindPage(ctx context.Context, filter interface{}, opts *store.FindOptions, dest interface{}) (int64, error) {
	if err := s.validate(filter, opts); err != nil {
		return 0, err
	}
	if finder, ok := s.inner.(store.SnapshotFinder); ok {
		return finder.FindPage(ctx, filter, opts, dest)
	}
	total, err := s.inner.Count(ctx, filter)
	if err != nil {
		return 0, err
	}
	return total, s.inner.Find(ctx, filter, opts, dest)
}

func (s *Store) validate(filter interface{}, opts *store.FindOptions) error {
	if err := s.validateFilter(filter); err != nil {
		return err
	}
	if opts == nil {
		return nil
	}
	for _, field := range opts.Sort.Fields() {
		if !s.isFieldAllowed(field) {
			return store.FieldNotAllowedError(field)
		}
	}
	for _, field := range opts.Select.Fields() {
		if !s.isFieldAllowed(field) {
			return store.FieldNotAllowedError(field)
		}
	}
	for _, p := range opts.Populate {
		if !s.isFieldAllowed(p.Path) {
			return store.FieldNotAllowedError(p.Path)
		}
	}
	return nil
}

// validateFilter walks the filter document and validates every field it references
func (s *Store) validateFilter(filter interface{}) error {
	if filter == nil || len(s.allowedFields) == 0 {
		return nil
	}
	doc, err := asDoc(filter)
	if err != nil {
		return err
	}
	return s.validateFilterFields(doc)
}

// validateFilterFields recursively validates all fields in a filter document
func (s *Store) validateFilterFields(doc bson.M) error {
	for key, value := range doc {
		switch key {
		case "$and", "$or", "$nor":
			clauses, ok := value.(bson.A)
			if !ok {
				if list, isList := value.([]interface{}); isList {
					clauses = list
				} else {
					return fmt.Errorf("%w: %s needs an array", store.ErrInvalidFilter, key)
				}
			}
			for _, clause := range clauses {
				sub, err := asDoc(clause)
				if err != nil {
					return err
				}
				if err := s.validateFilterFields(sub); err != nil {
					return err
				}
			}
		default:
			// Operators below a field ($gt, $in, ...) are values, not fields
			if strings.HasPrefix(key, "$") {
				continue
			}
			if !s.isFieldAllowed(key) {
				return store.FieldNotAllowedError(key)
			}
		}
	}
	return nil
}

// isFieldAllowed checks if a field is in the wrapper's allowed fields list
// Returns true if allowedFields is empty (no restriction) or field is in the list
func (s *Store) isFieldAllowed(field string) bool {
	if len(s.allowedFields) == 0 {
		return true
	}

	for _, allowed := range s.allowedFields {
		if allowed == field {
			return true
		}
	}
	return false
}

func asDoc(v interface{}) (bson.M, error) {
	switch d := v.(type) {
	case bson.M:
		return d, nil
	case map[string]interface{}:
		return d, nil
	case bson.D:
		return d.Map(), nil
	default:
		doc, err := store.ToDocument(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidFilter, err)
		}
		return doc, nil
	}
}
