package store

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

var docType = reflect.TypeOf(bson.M{})

// SliceOf validates that dest is a pointer to a slice and returns the slice value
func SliceOf(dest interface{}) (reflect.Value, error) {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() || destVal.Elem().Kind() != reflect.Slice {
		return reflect.Value{}, ErrInvalidDestination
	}
	return destVal.Elem(), nil
}

// ToDocument converts a record (struct, map or bson document) into a bson.M
// by a BSON round-trip, so field names follow the bson tags of the record
func ToDocument(record interface{}) (bson.M, error) {
	data, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return doc, nil
}

// DecodeInto replaces the contents of dest (a pointer to a slice) with docs
// Map destinations receive the documents as-is, other element types are decoded via BSON
func DecodeInto(docs []bson.M, dest interface{}) error {
	slice, err := SliceOf(dest)
	if err != nil {
		return err
	}

	elemType := slice.Type().Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, doc := range docs {
		item, err := decodeDoc(doc, elemType)
		if err != nil {
			return err
		}
		out = reflect.Append(out, item)
	}
	slice.Set(out)
	return nil
}

func decodeDoc(doc bson.M, elemType reflect.Type) (reflect.Value, error) {
	// Plain maps keep driver values (ObjectIDs, dates) untouched
	if docType.ConvertibleTo(elemType) && elemType.Kind() == reflect.Map {
		return reflect.ValueOf(doc).Convert(elemType), nil
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to marshal document: %w", err)
	}

	if elemType.Kind() == reflect.Ptr {
		item := reflect.New(elemType.Elem())
		if err := bson.Unmarshal(data, item.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to decode document: %w", err)
		}
		return item, nil
	}

	item := reflect.New(elemType)
	if err := bson.Unmarshal(data, item.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to decode document: %w", err)
	}
	return item.Elem(), nil
}

// IsMapSlice reports whether dest points to a slice of string-keyed maps
func IsMapSlice(dest interface{}) bool {
	slice, err := SliceOf(dest)
	if err != nil {
		return false
	}
	elem := slice.Type().Elem()
	return elem.Kind() == reflect.Map && elem.Key().Kind() == reflect.String
}
