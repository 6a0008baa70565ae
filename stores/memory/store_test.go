package memory

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/hadi77ir/go-paginate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type Product struct {
	ID       int      `bson:"_id"`
	Name     string   `bson:"name"`
	Category string   `bson:"category"`
	Price    float64  `bson:"price"`
	Stock    int      `bson:"stock"`
	Tags     []string `bson:"tags"`
	Vendor   int      `bson:"vendor"`
}

type Vendor struct {
	ID      int    `bson:"_id"`
	Name    string `bson:"name"`
	Country string `bson:"country"`
}

func getTestProducts() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Category: "electronics", Price: 1299.5, Stock: 4, Tags: []string{"computer", "portable"}, Vendor: 1},
		{ID: 2, Name: "Mouse", Category: "electronics", Price: 19.9, Stock: 120, Tags: []string{"computer"}, Vendor: 1},
		{ID: 3, Name: "Desk", Category: "furniture", Price: 250, Stock: 0, Vendor: 2},
		{ID: 4, Name: "Chair", Category: "furniture", Price: 89, Stock: 12, Vendor: 2},
		{ID: 5, Name: "Notebook", Category: "stationery", Price: 2.5, Stock: 500, Tags: []string{"paper"}, Vendor: 3},
		{ID: 6, Name: "Pen", Category: "stationery", Price: 1.2, Stock: 800, Vendor: 9},
	}
}

func getTestVendors() []Vendor {
	return []Vendor{
		{ID: 1, Name: "Acme", Country: "DE"},
		{ID: 2, Name: "Woodworks", Country: "SE"},
		{ID: 3, Name: "Paperia", Country: "IT"},
	}
}

func newTestStore() *Store {
	return NewStore(getTestProducts(), &Options{
		Collections: map[string]interface{}{"vendors": getTestVendors()},
	})
}

func TestMemoryStore_Count(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	tests := []struct {
		name     string
		filter   interface{}
		expected int64
	}{
		{"nil filter", nil, 6},
		{"empty filter", bson.M{}, 6},
		{"equality", bson.M{"category": "furniture"}, 2},
		{"range", bson.M{"price": bson.M{"$gte": 10, "$lt": 300}}, 3},
		{"bson.D filter", bson.D{{Key: "stock", Value: 0}}, 1},
		{"plain map filter", map[string]interface{}{"vendor": 1}, 2},
		{"no matches", bson.M{"category": "toys"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := s.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, count)
		})
	}
}

func TestMemoryStore_Find(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	t.Run("insertion order without sort", func(t *testing.T) {
		var products []Product
		err := s.Find(ctx, nil, &store.FindOptions{Skip: 1, Limit: 2}, &products)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Mouse", products[0].Name)
		assert.Equal(t, "Desk", products[1].Name)
	})

	t.Run("nil options return everything", func(t *testing.T) {
		var products []Product
		require.NoError(t, s.Find(ctx, nil, nil, &products))
		assert.Len(t, products, 6)
	})

	t.Run("sort descending", func(t *testing.T) {
		var products []Product
		err := s.Find(ctx, nil, &store.FindOptions{Sort: store.Desc("price"), Limit: 3}, &products)
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, []string{"Laptop", "Desk", "Chair"}, []string{products[0].Name, products[1].Name, products[2].Name})
	})

	t.Run("multi-key sort is stable", func(t *testing.T) {
		sort, err := store.ParseSort("category -stock")
		require.NoError(t, err)

		var products []Product
		require.NoError(t, s.Find(ctx, nil, &store.FindOptions{Sort: sort}, &products))
		names := make([]string, 0, len(products))
		for _, p := range products {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Mouse", "Laptop", "Chair", "Desk", "Pen", "Notebook"}, names)
	})

	t.Run("skip past the end", func(t *testing.T) {
		var products []Product
		require.NoError(t, s.Find(ctx, nil, &store.FindOptions{Skip: 100, Limit: 10}, &products))
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})

	t.Run("huge skip and limit", func(t *testing.T) {
		var products []Product
		require.NoError(t, s.Find(ctx, nil, &store.FindOptions{Skip: math.MaxInt64, Limit: 3}, &products))
		assert.Empty(t, products)

		require.NoError(t, s.Find(ctx, nil, &store.FindOptions{Skip: 5, Limit: math.MaxInt64}, &products))
		require.Len(t, products, 1)
		assert.Equal(t, "Pen", products[0].Name)
	})

	t.Run("negative skip or limit", func(t *testing.T) {
		var products []Product
		err := s.Find(ctx, nil, &store.FindOptions{Skip: -1}, &products)
		assert.ErrorIs(t, err, store.ErrInvalidRange)

		_, err = s.FindPage(ctx, nil, &store.FindOptions{Limit: -3}, &products)
		assert.ErrorIs(t, err, store.ErrInvalidRange)
	})

	t.Run("populated references are not shared", func(t *testing.T) {
		var docs []bson.M
		err := s.Find(ctx, bson.M{"vendor": 1}, &store.FindOptions{
			Populate: []store.Populate{{Path: "vendor", Collection: "vendors"}},
		}, &docs)
		require.NoError(t, err)
		require.Len(t, docs, 2)

		docs[0]["vendor"].(bson.M)["name"] = "changed"
		assert.Equal(t, "Acme", docs[1]["vendor"].(bson.M)["name"])
	})

	t.Run("select into maps", func(t *testing.T) {
		var docs []bson.M
		err := s.Find(ctx, bson.M{"_id": 3}, &store.FindOptions{Select: store.Include("name")}, &docs)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, bson.M{"_id": int32(3), "name": "Desk"}, docs[0])
	})

	t.Run("populate", func(t *testing.T) {
		var docs []bson.M
		err := s.Find(ctx, bson.M{"category": "stationery"}, &store.FindOptions{
			Sort:     store.Asc("_id"),
			Populate: []store.Populate{{Path: "vendor", Collection: "vendors", Select: store.Include("name")}},
		}, &docs)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, bson.M{"_id": int32(3), "name": "Paperia"}, docs[0]["vendor"])
		assert.Nil(t, docs[1]["vendor"], "dangling reference")
	})

	t.Run("populate unknown collection", func(t *testing.T) {
		var docs []bson.M
		err := s.Find(ctx, nil, &store.FindOptions{
			Populate: []store.Populate{{Path: "vendor", Collection: "suppliers"}},
		}, &docs)
		assert.ErrorIs(t, err, store.ErrUnknownCollection)
	})

	t.Run("invalid destination", func(t *testing.T) {
		var products []Product
		err := s.Find(ctx, nil, nil, products)
		assert.ErrorIs(t, err, store.ErrInvalidDestination)
	})

	t.Run("invalid filter", func(t *testing.T) {
		var products []Product
		err := s.Find(ctx, bson.M{"$where": "true"}, nil, &products)
		assert.ErrorIs(t, err, store.ErrInvalidFilter)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		var products []Product
		assert.ErrorIs(t, s.Find(cctx, nil, nil, &products), context.Canceled)
		_, err := s.Count(cctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStore_FindPage(t *testing.T) {
	s := newTestStore()

	var products []Product
	total, err := s.FindPage(context.Background(), bson.M{"stock": bson.M{"$gt": 10}}, &store.FindOptions{
		Sort:  store.Asc("stock"),
		Limit: 2,
	}, &products)
	require.NoError(t, err)

	assert.Equal(t, int64(4), total)
	require.Len(t, products, 2)
	assert.Equal(t, "Chair", products[0].Name)
	assert.Equal(t, "Mouse", products[1].Name)
}

func TestMemoryStore_DataSource(t *testing.T) {
	var mu sync.Mutex
	data := []bson.M{{"_id": 1, "name": "first"}}

	s := NewStoreWithDataSource(func() interface{} {
		mu.Lock()
		defer mu.Unlock()
		return append([]bson.M(nil), data...)
	}, nil)

	count, err := s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	mu.Lock()
	data = append(data, bson.M{"_id": 2, "name": "second"})
	mu.Unlock()

	count, err = s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	t.Run("pointer to slice", func(t *testing.T) {
		products := getTestProducts()
		count, err := NewStore(&products, nil).Count(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)
	})

	t.Run("not a slice", func(t *testing.T) {
		_, err := NewStore(Product{}, nil).Count(context.Background(), nil)
		assert.ErrorIs(t, err, ErrInvalidDataSource)
	})

	t.Run("source is not modified", func(t *testing.T) {
		docs := []bson.M{{"_id": 1, "name": "x", "secret": "s"}}
		var out []bson.M
		err := NewStore(docs, nil).Find(context.Background(), nil, &store.FindOptions{Select: store.Exclude("secret")}, &out)
		require.NoError(t, err)
		assert.NotContains(t, out[0], "secret")
		assert.Contains(t, docs[0], "secret")
	})
}

func TestMemoryStore_Name(t *testing.T) {
	s := NewStore([]Product{}, nil)
	assert.Equal(t, "memory", s.Name())
	assert.NoError(t, s.Close())
}
