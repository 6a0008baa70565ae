package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/hadi77ir/go-paginate/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Options contains MongoDB-specific options
type Options struct {
	// MaxTime bounds the server-side execution time of each operation
	// Zero means no limit
	MaxTime time.Duration

	// Hint is an optional index hint applied to count and find
	Hint interface{}
}

// Store is the MongoDB implementation of the store interface
type Store struct {
	collection *mongo.Collection
	options    *Options
}

var _ store.Store = (*Store)(nil)
var _ store.SnapshotFinder = (*Store)(nil)

// NewStore creates a new MongoDB store over collection
func NewStore(collection *mongo.Collection, opts *Options) *Store {
	if opts == nil {
		opts = &Options{}
	}
	return &Store{
		collection: collection,
		options:    opts,
	}
}

// Name returns the name of this store
func (s *Store) Name() string {
	return "MongoDB"
}

// Close cleans up resources (MongoDB connections are managed separately)
func (s *Store) Close() error {
	return nil
}

// Count returns the number of documents matching filter
func (s *Store) Count(ctx context.Context, filter interface{}) (int64, error) {
	countOpts := options.Count()
	if s.options.MaxTime > 0 {
		countOpts.SetMaxTime(s.options.MaxTime)
	}
	if s.options.Hint != nil {
		countOpts.SetHint(s.options.Hint)
	}

	total, err := s.collection.CountDocuments(ctx, normalizeFilter(filter), countOpts)
	if err != nil {
		return 0, store.NewOperationError("count documents", err)
	}
	return total, nil
}

// Find runs the filter and stores the results in dest
// dest must be a pointer to a slice (e.g., &[]MyStruct{} or &[]bson.M{})
func (s *Store) Find(ctx context.Context, filter interface{}, opts *store.FindOptions, dest interface{}) error {
	if _, err := store.SliceOf(dest); err != nil {
		return err
	}
	if opts == nil {
		opts = &store.FindOptions{}
	}

	findOpts, err := s.buildFindOptions(opts)
	if err != nil {
		return err
	}

	mongoCursor, err := s.collection.Find(ctx, normalizeFilter(filter), findOpts)
	if err != nil {
		return store.NewOperationError("execute query", err)
	}
	defer mongoCursor.Close(ctx)

	// Without populate the driver decodes straight into dest
	if len(opts.Populate) == 0 {
		if err := mongoCursor.All(ctx, dest); err != nil {
			return store.NewOperationError("fetch results", err)
		}
		return nil
	}

	var docs []bson.M
	if err := mongoCursor.All(ctx, &docs); err != nil {
		return store.NewOperationError("fetch results", err)
	}
	if err := store.PopulateDocs(ctx, docs, opts.Populate, s.resolve); err != nil {
		return err
	}
	return store.DecodeInto(docs, dest)
}

// FindPage counts and fetches the page with a single $facet aggregation
func (s *Store) FindPage(ctx context.Context, filter interface{}, opts *store.FindOptions, dest interface{}) (int64, error) {
	if _, err := store.SliceOf(dest); err != nil {
		return 0, err
	}
	if opts == nil {
		opts = &store.FindOptions{}
	}

	pipeline, err := buildPagePipeline(normalizeFilter(filter), opts)
	if err != nil {
		return 0, err
	}

	aggOpts := options.Aggregate()
	if s.options.MaxTime > 0 {
		aggOpts.SetMaxTime(s.options.MaxTime)
	}
	if s.options.Hint != nil {
		aggOpts.SetHint(s.options.Hint)
	}

	mongoCursor, err := s.collection.Aggregate(ctx, pipeline, aggOpts)
	if err != nil {
		return 0, store.NewOperationError("aggregate page", err)
	}
	defer mongoCursor.Close(ctx)

	var facets []pageFacet
	if err := mongoCursor.All(ctx, &facets); err != nil {
		return 0, store.NewOperationError("fetch page", err)
	}

	var total int64
	var docs []bson.M
	if len(facets) > 0 {
		if len(facets[0].Total) > 0 {
			total = facets[0].Total[0].Count
		}
		docs = facets[0].Docs
	}

	if len(opts.Populate) > 0 {
		if err := store.PopulateDocs(ctx, docs, opts.Populate, s.resolve); err != nil {
			return 0, err
		}
	}
	if err := store.DecodeInto(docs, dest); err != nil {
		return 0, err
	}
	return total, nil
}

// pageFacet is the single document produced by the page pipeline
type pageFacet struct {
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
	Docs []bson.M `bson:"docs"`
}

// buildFindOptions converts store options into driver find options
func (s *Store) buildFindOptions(opts *store.FindOptions) (*options.FindOptions, error) {
	if err := validateRange(opts); err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort.BSON())
	}
	if len(opts.Select) > 0 {
		findOpts.SetProjection(opts.Select.BSON())
	}
	if s.options.MaxTime > 0 {
		findOpts.SetMaxTime(s.options.MaxTime)
	}
	if s.options.Hint != nil {
		findOpts.SetHint(s.options.Hint)
	}
	return findOpts, nil
}

// buildPagePipeline builds $match + $facet{total, docs}
// The server rejects an empty $sort or $project and a $limit of 0, so those stages are left out
func buildPagePipeline(filter interface{}, opts *store.FindOptions) (mongo.Pipeline, error) {
	if err := validateRange(opts); err != nil {
		return nil, err
	}

	docsStages := bson.A{}
	if len(opts.Sort) > 0 {
		docsStages = append(docsStages, bson.D{{Key: "$sort", Value: opts.Sort.BSON()}})
	}
	if opts.Skip > 0 {
		docsStages = append(docsStages, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Limit > 0 {
		docsStages = append(docsStages, bson.D{{Key: "$limit", Value: opts.Limit}})
	}
	if len(opts.Select) > 0 {
		docsStages = append(docsStages, bson.D{{Key: "$project", Value: opts.Select.BSON()}})
	}

	// $facet rejects empty sub-pipelines
	if len(docsStages) == 0 {
		docsStages = append(docsStages, bson.D{{Key: "$match", Value: bson.D{}}})
	}

	facet := bson.D{
		{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
		{Key: "docs", Value: docsStages},
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$facet", Value: facet}},
	}, nil
}

// resolve fetches populate targets from a sibling collection of the same database
func (s *Store) resolve(ctx context.Context, collection string, ids []interface{}, sel store.Projection) ([]bson.M, error) {
	findOpts := options.Find()
	if len(sel) > 0 {
		findOpts.SetProjection(sel.BSON())
	}
	if s.options.MaxTime > 0 {
		findOpts.SetMaxTime(s.options.MaxTime)
	}

	coll := s.collection.Database().Collection(collection)
	mongoCursor, err := coll.Find(ctx, bson.M{store.IDField: bson.M{"$in": ids}}, findOpts)
	if err != nil {
		return nil, err
	}
	defer mongoCursor.Close(ctx)

	var refs []bson.M
	if err := mongoCursor.All(ctx, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// validateRange checks the projection and rejects the negative skip or limit the server would refuse
func validateRange(opts *store.FindOptions) error {
	if err := opts.Select.Validate(); err != nil {
		return err
	}
	if opts.Skip < 0 || opts.Limit < 0 {
		return fmt.Errorf("%w: skip=%d limit=%d", store.ErrInvalidRange, opts.Skip, opts.Limit)
	}
	return nil
}

// normalizeFilter maps a nil filter to the empty document the driver requires
func normalizeFilter(filter interface{}) interface{} {
	if filter == nil {
		return bson.M{}
	}
	return filter
}
