package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hadi77ir/go-paginate/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toFilter converts the supported filter forms into a bson.M
func toFilter(filter interface{}) (bson.M, error) {
	switch f := filter.(type) {
	case nil:
		return bson.M{}, nil
	case bson.M:
		return f, nil
	case map[string]interface{}:
		return f, nil
	case bson.D:
		return f.Map(), nil
	default:
		doc, err := store.ToDocument(filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidFilter, err)
		}
		return doc, nil
	}
}

// matchDoc evaluates a MongoDB-style filter against a document
func matchDoc(doc bson.M, filter bson.M) (bool, error) {
	for key, cond := range filter {
		var match bool
		var err error

		switch key {
		case "$and", "$or", "$nor":
			match, err = matchLogical(doc, key, cond)
		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("%w: unsupported top-level operator '%s'", store.ErrInvalidFilter, key)
			}
			match, err = matchField(doc, key, cond)
		}

		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	return true, nil
}

func matchLogical(doc bson.M, op string, cond interface{}) (bool, error) {
	clauses, ok := asSlice(cond)
	if !ok || len(clauses) == 0 {
		return false, fmt.Errorf("%w: %s needs a non-empty array", store.ErrInvalidFilter, op)
	}

	for _, clause := range clauses {
		sub, err := toFilter(clause)
		if err != nil {
			return false, err
		}
		match, err := matchDoc(doc, sub)
		if err != nil {
			return false, err
		}
		switch {
		case op == "$and" && !match:
			return false, nil
		case op == "$or" && match:
			return true, nil
		case op == "$nor" && match:
			return false, nil
		}
	}
	return op != "$or", nil
}

func matchField(doc bson.M, field string, cond interface{}) (bool, error) {
	value, exists := store.LookupPath(doc, field)

	ops, isOps := operatorDoc(cond)
	if !isOps {
		return matchEqual(value, exists, cond), nil
	}

	for op, arg := range ops {
		var match bool
		switch op {
		case "$eq":
			match = matchEqual(value, exists, arg)
		case "$ne":
			match = !matchEqual(value, exists, arg)
		case "$gt", "$gte", "$lt", "$lte":
			match = matchRange(value, exists, op, arg)
		case "$in":
			list, ok := asSlice(arg)
			if !ok {
				return false, fmt.Errorf("%w: $in needs an array", store.ErrInvalidFilter)
			}
			match = matchIn(value, exists, list)
		case "$nin":
			list, ok := asSlice(arg)
			if !ok {
				return false, fmt.Errorf("%w: $nin needs an array", store.ErrInvalidFilter)
			}
			match = !matchIn(value, exists, list)
		case "$exists":
			want, ok := arg.(bool)
			if !ok {
				return false, fmt.Errorf("%w: $exists needs a boolean", store.ErrInvalidFilter)
			}
			match = exists == want
		case "$regex":
			re, err := compileRegex(arg, ops["$options"])
			if err != nil {
				return false, err
			}
			match = exists && matchRegex(value, re)
		case "$options":
			continue
		case "$not":
			sub, err := matchField(doc, field, arg)
			if err != nil {
				return false, err
			}
			match = !sub
		default:
			return false, fmt.Errorf("%w: unsupported operator '%s'", store.ErrInvalidFilter, op)
		}
		if !match {
			return false, nil
		}
	}
	return true, nil
}

// operatorDoc reports whether cond is an operator document like {"$gt": 5}
func operatorDoc(cond interface{}) (bson.M, bool) {
	var m bson.M
	switch c := cond.(type) {
	case bson.M:
		m = c
	case map[string]interface{}:
		m = c
	case bson.D:
		m = c.Map()
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// matchEqual matches a value or any element of an array value; nil matches a missing field
func matchEqual(value interface{}, exists bool, want interface{}) bool {
	if !exists {
		return want == nil
	}
	if valuesEqual(value, want) {
		return true
	}
	if arr, ok := asSlice(value); ok {
		for _, elem := range arr {
			if valuesEqual(elem, want) {
				return true
			}
		}
	}
	return false
}

func matchRange(value interface{}, exists bool, op string, arg interface{}) bool {
	if !exists {
		return false
	}
	candidates := []interface{}{value}
	if arr, ok := asSlice(value); ok {
		candidates = arr
	}
	for _, c := range candidates {
		cmp, ok := compareValues(c, arg)
		if !ok {
			continue
		}
		switch op {
		case "$gt":
			if cmp > 0 {
				return true
			}
		case "$gte":
			if cmp >= 0 {
				return true
			}
		case "$lt":
			if cmp < 0 {
				return true
			}
		case "$lte":
			if cmp <= 0 {
				return true
			}
		}
	}
	return false
}

func matchIn(value interface{}, exists bool, list []interface{}) bool {
	for _, want := range list {
		if re, ok := want.(primitive.Regex); ok {
			compiled, err := compileRegex(re, nil)
			if err == nil && exists && matchRegex(value, compiled) {
				return true
			}
			continue
		}
		if matchEqual(value, exists, want) {
			return true
		}
	}
	return false
}

func compileRegex(pattern interface{}, options interface{}) (*regexp.Regexp, error) {
	var expr, flags string
	switch p := pattern.(type) {
	case string:
		expr = p
	case primitive.Regex:
		expr, flags = p.Pattern, p.Options
	case *regexp.Regexp:
		return p, nil
	default:
		return nil, fmt.Errorf("%w: $regex needs a string pattern", store.ErrInvalidFilter)
	}
	if o, ok := options.(string); ok {
		flags += o
	}

	var prefix string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix += string(f)
		}
	}
	if prefix != "" {
		expr = "(?" + prefix + ")" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidFilter, err)
	}
	return re, nil
}

func matchRegex(value interface{}, re *regexp.Regexp) bool {
	if s, ok := value.(string); ok {
		return re.MatchString(s)
	}
	if arr, ok := asSlice(value); ok {
		for _, elem := range arr {
			if s, ok := elem.(string); ok && re.MatchString(s) {
				return true
			}
		}
	}
	return false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch a := v.(type) {
	case bson.A:
		return a, true
	case []interface{}:
		return a, true
	case []string:
		out := make([]interface{}, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]interface{}, len(a))
		for i, n := range a {
			out[i] = n
		}
		return out, true
	case []bson.M:
		out := make([]interface{}, len(a))
		for i, m := range a {
			out[i] = m
		}
		return out, true
	case []primitive.ObjectID:
		out := make([]interface{}, len(a))
		for i, id := range a {
			out[i] = id
		}
		return out, true
	default:
		return nil, false
	}
}
