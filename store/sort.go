package store

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// SortOrder represents the sort order direction
type SortOrder int

const (
	// SortOrderAsc sorts in ascending order
	SortOrderAsc SortOrder = iota
	// SortOrderDesc sorts in descending order
	SortOrderDesc
)

// String returns the string representation of SortOrder
func (so SortOrder) String() string {
	switch so {
	case SortOrderDesc:
		return "desc"
	default:
		return "asc"
	}
}

// ParseSortOrder parses a string into a SortOrder enum value
// Accepts asc/desc, ascending/descending and 1/-1; anything else is ascending
func ParseSortOrder(s string) SortOrder {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "desc", "descending", "-1":
		return SortOrderDesc
	default:
		return SortOrderAsc
	}
}

// SortField is one key of a sort specification
type SortField struct {
	Field string
	Order SortOrder
}

// Sort is an ordered sort specification; earlier fields take precedence
type Sort []SortField

// Asc returns a single ascending sort on field
func Asc(field string) Sort {
	return Sort{{Field: field, Order: SortOrderAsc}}
}

// Desc returns a single descending sort on field
func Desc(field string) Sort {
	return Sort{{Field: field, Order: SortOrderDesc}}
}

// ParseSort parses a space separated sort string such as "-birthdate name"
// A leading '-' sorts descending, a leading '+' (or nothing) ascending
func ParseSort(s string) (Sort, error) {
	var sort Sort
	for _, token := range strings.Fields(s) {
		order := SortOrderAsc
		switch token[0] {
		case '-':
			order = SortOrderDesc
			token = token[1:]
		case '+':
			token = token[1:]
		}
		if token == "" {
			return nil, fmt.Errorf("%w: empty field in %q", ErrInvalidSort, s)
		}
		sort = append(sort, SortField{Field: token, Order: order})
	}
	return sort, nil
}

// Fields returns the field names referenced by the sort
func (s Sort) Fields() []string {
	fields := make([]string, 0, len(s))
	for _, f := range s {
		fields = append(fields, f.Field)
	}
	return fields
}

// BSON converts the sort into a MongoDB sort document
func (s Sort) BSON() bson.D {
	d := make(bson.D, 0, len(s))
	for _, f := range s {
		dir := 1
		if f.Order == SortOrderDesc {
			dir = -1
		}
		d = append(d, bson.E{Key: f.Field, Value: dir})
	}
	return d
}

// String returns the sort in the same syntax ParseSort accepts
func (s Sort) String() string {
	parts := make([]string, 0, len(s))
	for _, f := range s {
		if f.Order == SortOrderDesc {
			parts = append(parts, "-"+f.Field)
		} else {
			parts = append(parts, f.Field)
		}
	}
	return strings.Join(parts, " ")
}
