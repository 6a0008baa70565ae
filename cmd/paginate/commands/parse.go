package commands

import (
	"fmt"
	"strings"

	"github.com/hadi77ir/go-paginate/store"
	"go.mongodb.org/mongo-driver/bson"
)

// parseFilter decodes a MongoDB extended JSON filter; empty means match all
func parseFilter(s string) (bson.M, error) {
	filter := bson.M{}
	if strings.TrimSpace(s) == "" {
		return filter, nil
	}
	if err := bson.UnmarshalExtJSON([]byte(s), false, &filter); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidFilter, err)
	}
	return filter, nil
}

func parseSort(s string) (store.Sort, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return store.ParseSort(s)
}

func parseSelect(s string) (store.Projection, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return store.ParseSelect(s)
}

// parsePopulate parses path=collection pairs; an optional ":select" suffix projects
// the referenced documents, e.g. "class=classes:name"
func parsePopulate(specs []string) ([]store.Populate, error) {
	var out []store.Populate
	for _, spec := range specs {
		path, rest, ok := strings.Cut(spec, "=")
		if !ok || path == "" || rest == "" {
			return nil, fmt.Errorf("%w: expected path=collection, got %q", store.ErrInvalidPopulate, spec)
		}
		collection, sel, _ := strings.Cut(rest, ":")
		p := store.Populate{Path: path, Collection: collection}
		if sel != "" {
			projection, err := store.ParseSelect(strings.ReplaceAll(sel, ",", " "))
			if err != nil {
				return nil, err
			}
			p.Select = projection
		}
		out = append(out, p)
	}
	return out, nil
}
