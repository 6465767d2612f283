package mongo

import "go.mongodb.org/mongo-driver/v2/bson"

// objectIDs converts hex ids, silently skipping malformed ones: they cannot match any document.
func objectIDs(ids []string) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		out = append(out, oid)
	}
	return out
}
