package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Populate describes a reference field to expand into the referenced document
type Populate struct {
	// Path is the (dotted) field holding a single id or an array of ids
	Path string

	// Collection is the name of the collection the ids refer to
	Collection string

	// Select is an optional projection applied to the referenced documents
	Select Projection
}

// Validate checks that the populate specification is usable
func (p Populate) Validate() error {
	if p.Path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPopulate)
	}
	if p.Collection == "" {
		return fmt.Errorf("%w: no collection for path '%s'", ErrInvalidPopulate, p.Path)
	}
	return p.Select.Validate()
}

// ResolverFunc fetches the documents of collection whose _id is one of ids
type ResolverFunc func(ctx context.Context, collection string, ids []interface{}, sel Projection) ([]bson.M, error)

// PopulateDocs replaces the references named by specs with the referenced documents
// A single reference that cannot be resolved becomes nil, unresolved array entries are dropped
func PopulateDocs(ctx context.Context, docs []bson.M, specs []Populate, resolve ResolverFunc) error {
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return err
		}

		// Gather distinct ids across the page so each collection is hit once per path
		var ids []interface{}
		seen := map[string]bool{}
		for _, doc := range docs {
			v, ok := LookupPath(doc, spec.Path)
			if !ok || v == nil {
				continue
			}
			for _, id := range refIDs(v) {
				key := idKey(id)
				if !seen[key] {
					seen[key] = true
					ids = append(ids, id)
				}
			}
		}
		if len(ids) == 0 {
			continue
		}

		refs, err := resolve(ctx, spec.Collection, ids, spec.Select)
		if err != nil {
			return NewOperationError("populate "+spec.Path, err)
		}
		byID := make(map[string]bson.M, len(refs))
		for _, ref := range refs {
			byID[idKey(ref[IDField])] = ref
		}

		for _, doc := range docs {
			v, ok := LookupPath(doc, spec.Path)
			if !ok || v == nil {
				continue
			}
			if arr, isArray := asArray(v); isArray {
				expanded := make(bson.A, 0, len(arr))
				for _, id := range arr {
					if ref, found := byID[idKey(id)]; found {
						expanded = append(expanded, copyDoc(ref))
					}
				}
				SetPath(doc, spec.Path, expanded)
				continue
			}
			if ref, found := byID[idKey(v)]; found {
				SetPath(doc, spec.Path, copyDoc(ref))
			} else {
				SetPath(doc, spec.Path, nil)
			}
		}
	}
	return nil
}

func refIDs(v interface{}) []interface{} {
	if arr, ok := asArray(v); ok {
		return arr
	}
	return []interface{}{v}
}

func asArray(v interface{}) ([]interface{}, bool) {
	switch a := v.(type) {
	case bson.A:
		return a, true
	case []interface{}:
		return a, true
	case []primitive.ObjectID:
		out := make([]interface{}, len(a))
		for i, id := range a {
			out[i] = id
		}
		return out, true
	case []string:
		out := make([]interface{}, len(a))
		for i, id := range a {
			out[i] = id
		}
		return out, true
	default:
		return nil, false
	}
}

// idKey maps an identifier to a comparable key; values of different types never collide
func idKey(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return "oid:" + oid.Hex()
	}
	return fmt.Sprintf("%T:%v", id, id)
}

// IDString returns the string form of an identifier: the hex form for ObjectIDs
func IDString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
