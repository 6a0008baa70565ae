package store

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// IDField is the identifier field of every stored document
const IDField = "_id"

// ProjectedField is one field of a projection
type ProjectedField struct {
	Field   string
	Include bool
}

// Projection selects which fields of a document are returned
// A projection either includes or excludes fields; the only exception is
// excluding _id from an inclusion projection
type Projection []ProjectedField

// Include returns an inclusion projection of fields
func Include(fields ...string) Projection {
	p := make(Projection, 0, len(fields))
	for _, f := range fields {
		p = append(p, ProjectedField{Field: f, Include: true})
	}
	return p
}

// Exclude returns an exclusion projection of fields
func Exclude(fields ...string) Projection {
	p := make(Projection, 0, len(fields))
	for _, f := range fields {
		p = append(p, ProjectedField{Field: f})
	}
	return p
}

// ParseSelect parses a space separated select string such as "name -_id"
// A leading '-' excludes the field
func ParseSelect(s string) (Projection, error) {
	var p Projection
	for _, token := range strings.Fields(s) {
		include := true
		switch token[0] {
		case '-':
			include = false
			token = token[1:]
		case '+':
			token = token[1:]
		}
		if token == "" {
			return nil, fmt.Errorf("%w: empty field in %q", ErrInvalidProjection, s)
		}
		p = append(p, ProjectedField{Field: token, Include: include})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the projection does not mix inclusion and exclusion
func (p Projection) Validate() error {
	var includes, excludes int
	for _, f := range p {
		if f.Field == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidProjection)
		}
		if f.Field == IDField {
			continue
		}
		if f.Include {
			includes++
		} else {
			excludes++
		}
	}
	if includes > 0 && excludes > 0 {
		return fmt.Errorf("%w: cannot mix inclusion and exclusion", ErrInvalidProjection)
	}
	return nil
}

// IsInclusive reports whether the projection lists the fields to keep
func (p Projection) IsInclusive() bool {
	for _, f := range p {
		if f.Field != IDField {
			return f.Include
		}
	}
	// only _id listed: "_id" keeps just the id, "-_id" drops it
	return len(p) > 0 && p[0].Include
}

// Fields returns the field names referenced by the projection
func (p Projection) Fields() []string {
	fields := make([]string, 0, len(p))
	for _, f := range p {
		fields = append(fields, f.Field)
	}
	return fields
}

// BSON converts the projection into a MongoDB projection document
func (p Projection) BSON() bson.D {
	d := make(bson.D, 0, len(p))
	for _, f := range p {
		v := 0
		if f.Include {
			v = 1
		}
		d = append(d, bson.E{Key: f.Field, Value: v})
	}
	return d
}

// Apply returns a projected copy of doc
func (p Projection) Apply(doc bson.M) bson.M {
	if len(p) == 0 {
		return doc
	}

	if !p.IsInclusive() {
		out := copyDoc(doc)
		for _, f := range p {
			DeletePath(out, f.Field)
		}
		return out
	}

	out := bson.M{}
	keepID := true
	for _, f := range p {
		if f.Field == IDField && !f.Include {
			keepID = false
			continue
		}
		if v, ok := LookupPath(doc, f.Field); ok {
			SetPath(out, f.Field, v)
		}
	}
	if keepID {
		if id, ok := doc[IDField]; ok {
			out[IDField] = id
		}
	}
	return out
}

// copyDoc deep copies nested documents so path deletion never touches the source
func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if nested, ok := v.(bson.M); ok {
			out[k] = copyDoc(nested)
			continue
		}
		out[k] = v
	}
	return out
}
