// Package mongo provides a MongoDB session backend on the official v2 driver.
//
// Each key is one document {_id, value, expires_at, ver}. A TTL index on
// expires_at (EnsureIndexes) lets the server purge expired sessions; until
// that happens the backend treats them as absent. ConditionalWrite is a
// compare-and-swap on ver, so a write that races a tombstone for the same
// key is rejected instead of overwriting it.
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	backend := mongo.NewBackend(mongo.Collection(client, cfg))
//	if err := backend.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
package mongo
