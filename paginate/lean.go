package paginate

import (
	"reflect"

	"github.com/hadi77ir/go-paginate/store"
)

// LeanIDField is the field added to lean documents when LeanWithID is on
const LeanIDField = "id"

// injectIDs sets doc["id"] = string(doc["_id"]) on every map in the slice
// Documents without an _id (e.g. projected away) are left untouched
func injectIDs(slice reflect.Value) {
	elemType := slice.Type().Elem()
	idKey := reflect.ValueOf(store.IDField).Convert(elemType.Key())
	leanKey := reflect.ValueOf(LeanIDField).Convert(elemType.Key())

	for i := 0; i < slice.Len(); i++ {
		doc := slice.Index(i)
		if doc.IsNil() {
			continue
		}
		id := doc.MapIndex(idKey)
		if !id.IsValid() {
			continue
		}
		value := reflect.ValueOf(store.IDString(id.Interface()))
		if !value.Type().AssignableTo(elemType.Elem()) {
			if !value.Type().ConvertibleTo(elemType.Elem()) {
				continue
			}
			value = value.Convert(elemType.Elem())
		}
		doc.SetMapIndex(leanKey, value)
	}
}
