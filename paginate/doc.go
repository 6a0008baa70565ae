// Package paginate computes pages of documents from a store.
//
// A Paginator is configured once with default options and reused for every
// query. Each call resolves skip and limit from either page mode (1-based
// page number, the default) or offset mode (absolute skip count), counts the
// records matching the filter and fetches the requested slice of them:
//
//	p, err := paginate.NewPaginator(mongodb.NewStore(coll, nil), &paginate.Config{
//		Defaults: paginate.Options{Limit: paginate.Int(20)},
//	})
//	var students []Student
//	res, err := p.Paginate(ctx, bson.M{"class": classID}, &paginate.Options{
//		Page: paginate.Int(2),
//		Sort: store.Desc("birthdate"),
//	}, &students)
//
// In lean mode documents are returned as plain maps, each with an "id"
// string mirroring "_id" unless LeanWithID is turned off.
//
// The count and the find run concurrently and are not tied to one snapshot:
// under concurrent writes Total and the documents may disagree. Set
// Config.Consistent to read both in one operation on stores implementing
// store.SnapshotFinder.
package paginate
