package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
)

// document is one stored key. Version increases on every write and drives
// the compare-and-swap in ConditionalWrite.
type document struct {
	Key       string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	Version   int64      `bson:"ver"`
}

func (d document) live(now time.Time) bool {
	return d.ExpiresAt == nil || d.ExpiresAt.After(now)
}

// Backend implements kv.Backend on a MongoDB collection.
type Backend struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewBackend creates a Backend. Call EnsureIndexes once so MongoDB purges
// expired documents.
func NewBackend(coll *mongo.Collection) *Backend {
	return &Backend{coll: coll, now: time.Now}
}

// EnsureIndexes creates the TTL index on expires_at.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return errors.Join(ErrFailedToCreateIndex, wrapErr(err))
	}
	return nil
}

// SetNX inserts the document; a duplicate key still succeeds when the
// existing document has expired but was not purged yet.
func (b *Backend) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	now := b.now()
	_, err := b.coll.InsertOne(ctx, document{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt(now, ttl),
		Version:   1,
	})
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, wrapErr(err)
	}

	res, err := b.coll.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		writeUpdate(value, now, ttl),
	)
	if err != nil {
		return false, wrapErr(err)
	}
	return res.MatchedCount == 1, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := b.find(ctx, key)
	if err != nil {
		return nil, err
	}
	if doc == nil || !doc.live(b.now()) {
		return nil, kv.ErrNotFound
	}
	return doc.Value, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		writeUpdate(value, b.now(), ttl),
		options.UpdateOne().SetUpsert(true),
	)
	return wrapErr(err)
}

// Del removes keys and returns how many live documents were deleted.
func (b *Backend) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res, err := b.coll.DeleteMany(ctx, bson.M{
		"_id": bson.M{"$in": keys},
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": b.now()}},
		},
	})
	if err != nil {
		return 0, wrapErr(err)
	}
	return res.DeletedCount, nil
}

// ConditionalWrite reads the document, asks guard, then writes only if the
// version is unchanged. A concurrent write bumps the version and the call
// reports false.
func (b *Backend) ConditionalWrite(ctx context.Context, key string, guard kv.Guard, value []byte, ttl time.Duration) (bool, error) {
	now := b.now()
	doc, err := b.find(ctx, key)
	if err != nil {
		return false, err
	}

	var current []byte
	exists := doc != nil && doc.live(now)
	if exists {
		current = doc.Value
	}
	if !guard(current, exists) {
		return false, nil
	}

	if doc == nil {
		_, err := b.coll.InsertOne(ctx, document{
			Key:       key,
			Value:     value,
			ExpiresAt: expiresAt(now, ttl),
			Version:   1,
		})
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		if err != nil {
			return false, wrapErr(err)
		}
		return true, nil
	}

	res, err := b.coll.UpdateOne(ctx,
		bson.M{"_id": key, "ver": doc.Version},
		writeUpdate(value, now, ttl),
	)
	if err != nil {
		return false, wrapErr(err)
	}
	return res.MatchedCount == 1, nil
}

// find returns nil without error when the key has no document.
func (b *Backend) find(ctx context.Context, key string) (*document, error) {
	var doc document
	err := b.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return &doc, nil
}

func writeUpdate(value []byte, now time.Time, ttl time.Duration) bson.M {
	update := bson.M{"$inc": bson.M{"ver": 1}}
	if exp := expiresAt(now, ttl); exp != nil {
		update["$set"] = bson.M{"value": value, "expires_at": *exp}
	} else {
		update["$set"] = bson.M{"value": value}
		update["$unset"] = bson.M{"expires_at": ""}
	}
	return update
}

func expiresAt(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl).UTC()
	return &t
}
