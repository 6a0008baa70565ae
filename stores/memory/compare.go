package memory

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Type ranks follow the MongoDB comparison order for values of different types
const (
	rankNull = iota
	rankNumber
	rankString
	rankObject
	rankArray
	rankObjectID
	rankBool
	rankDate
	rankOther
)

func typeRank(v interface{}) int {
	if v == nil {
		return rankNull
	}
	switch v.(type) {
	case string:
		return rankString
	case bson.M, map[string]interface{}, bson.D:
		return rankObject
	case bson.A, []interface{}:
		return rankArray
	case primitive.ObjectID:
		return rankObjectID
	case bool:
		return rankBool
	case time.Time, primitive.DateTime:
		return rankDate
	case primitive.Null, primitive.Undefined:
		return rankNull
	}
	if _, ok := toFloat64(v); ok {
		return rankNumber
	}
	return rankOther
}

// compareValues orders a and b; ok is false when the values are not comparable
// by the range operators (different type classes)
func compareValues(a, b interface{}) (cmp int, ok bool) {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1, false
		}
		return 1, false
	}

	switch ra {
	case rankNull:
		return 0, true
	case rankNumber:
		af, _ := toFloat64(a)
		bf, _ := toFloat64(b)
		return compareFloat(af, bf), true
	case rankString:
		return strings.Compare(a.(string), b.(string)), true
	case rankObjectID:
		ao, bo := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return bytes.Compare(ao[:], bo[:]), true
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0, true
		case !ab:
			return -1, true
		default:
			return 1, true
		}
	case rankDate:
		at, bt := toTime(a), toTime(b)
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	default:
		return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)), true
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// valuesEqual compares two values the way an equality match does
func valuesEqual(a, b interface{}) bool {
	cmp, ok := compareValues(a, b)
	if ok && typeRank(a) != rankObject && typeRank(a) != rankArray && typeRank(a) != rankOther {
		return cmp == 0
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize turns nested documents into comparable shapes for deep equality
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.D:
		return normalize(t.Map())
	case map[string]interface{}:
		return normalize(bson.M(t))
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.A:
		return normalize([]interface{}(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case primitive.DateTime:
		return t.Time()
	default:
		if f, ok := toFloat64(v); ok {
			return f
		}
		return v
	}
}

func toFloat64(v interface{}) (float64, bool) {
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(val.Uint()), true
	case reflect.Float32, reflect.Float64:
		return val.Float(), true
	default:
		return 0, false
	}
}

func toTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case primitive.DateTime:
		return t.Time()
	default:
		return time.Time{}
	}
}
