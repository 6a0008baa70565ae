package mongodb

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/hadi77ir/go-paginate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_BuildFindOptions(t *testing.T) {
	s := NewStore(nil, &Options{MaxTime: 2 * time.Second, Hint: "name_1"})

	t.Run("full options", func(t *testing.T) {
		findOpts, err := s.buildFindOptions(&store.FindOptions{
			Select: store.Include("name"),
			Sort:   store.Desc("birthdate"),
			Skip:   20,
			Limit:  10,
		})
		require.NoError(t, err)

		require.NotNil(t, findOpts.Skip)
		assert.Equal(t, int64(20), *findOpts.Skip)
		require.NotNil(t, findOpts.Limit)
		assert.Equal(t, int64(10), *findOpts.Limit)
		assert.Equal(t, bson.D{{Key: "birthdate", Value: -1}}, findOpts.Sort)
		assert.Equal(t, bson.D{{Key: "name", Value: 1}}, findOpts.Projection)
		require.NotNil(t, findOpts.MaxTime)
		assert.Equal(t, 2*time.Second, *findOpts.MaxTime)
		assert.Equal(t, "name_1", findOpts.Hint)
	})

	t.Run("empty options leave the driver defaults", func(t *testing.T) {
		findOpts, err := NewStore(nil, nil).buildFindOptions(&store.FindOptions{})
		require.NoError(t, err)
		assert.Nil(t, findOpts.Skip)
		assert.Nil(t, findOpts.Limit)
		assert.Nil(t, findOpts.Sort)
		assert.Nil(t, findOpts.Projection)
		assert.Nil(t, findOpts.MaxTime)
	})

	t.Run("negative skip or limit", func(t *testing.T) {
		_, err := s.buildFindOptions(&store.FindOptions{Skip: -1})
		assert.ErrorIs(t, err, store.ErrInvalidRange)

		_, err = s.buildFindOptions(&store.FindOptions{Limit: -1})
		assert.ErrorIs(t, err, store.ErrInvalidRange)
	})

	t.Run("invalid projection", func(t *testing.T) {
		_, err := s.buildFindOptions(&store.FindOptions{
			Select: store.Projection{{Field: "a", Include: true}, {Field: "b"}},
		})
		assert.ErrorIs(t, err, store.ErrInvalidProjection)
	})
}

func TestBuildPagePipeline(t *testing.T) {
	filter := bson.M{"category": "electronics"}

	t.Run("all stages", func(t *testing.T) {
		pipeline, err := buildPagePipeline(filter, &store.FindOptions{
			Select: store.Exclude("description"),
			Sort:   store.Asc("price"),
			Skip:   5,
			Limit:  5,
		})
		require.NoError(t, err)

		expected := mongo.Pipeline{
			{{Key: "$match", Value: filter}},
			{{Key: "$facet", Value: bson.D{
				{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
				{Key: "docs", Value: bson.A{
					bson.D{{Key: "$sort", Value: bson.D{{Key: "price", Value: 1}}}},
					bson.D{{Key: "$skip", Value: int64(5)}},
					bson.D{{Key: "$limit", Value: int64(5)}},
					bson.D{{Key: "$project", Value: bson.D{{Key: "description", Value: 0}}}},
				}},
			}}},
		}
		assert.Equal(t, expected, pipeline)
	})

	t.Run("no paging stages", func(t *testing.T) {
		pipeline, err := buildPagePipeline(bson.M{}, &store.FindOptions{})
		require.NoError(t, err)

		facet := pipeline[1][0].Value.(bson.D)
		assert.Equal(t, bson.A{bson.D{{Key: "$match", Value: bson.D{}}}}, facet[1].Value)
	})

	t.Run("saturated skip is kept positive", func(t *testing.T) {
		pipeline, err := buildPagePipeline(filter, &store.FindOptions{Skip: math.MaxInt64, Limit: 3})
		require.NoError(t, err)
		docs := pipeline[1][0].Value.(bson.D)[1].Value.(bson.A)
		assert.Equal(t, bson.D{{Key: "$skip", Value: int64(math.MaxInt64)}}, docs[0])

		_, err = buildPagePipeline(filter, &store.FindOptions{Skip: -5})
		assert.ErrorIs(t, err, store.ErrInvalidRange)
	})

	t.Run("invalid projection", func(t *testing.T) {
		_, err := buildPagePipeline(filter, &store.FindOptions{
			Select: store.Projection{{Field: "a", Include: true}, {Field: "b"}},
		})
		assert.ErrorIs(t, err, store.ErrInvalidProjection)
	})
}

func TestNormalizeFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, normalizeFilter(nil))
	f := bson.D{{Key: "a", Value: 1}}
	assert.Equal(t, f, normalizeFilter(f))
}

func TestStore_InvalidDestination(t *testing.T) {
	s := NewStore(nil, nil)

	var docs []bson.M
	err := s.Find(context.Background(), nil, nil, docs)
	assert.ErrorIs(t, err, store.ErrInvalidDestination)

	_, err = s.FindPage(context.Background(), nil, nil, docs)
	assert.ErrorIs(t, err, store.ErrInvalidDestination)
}

func TestStore_Name(t *testing.T) {
	s := NewStore(nil, nil)
	assert.Equal(t, "MongoDB", s.Name())
	assert.NoError(t, s.Close())
}
