package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
)

var (
	ErrEmptyConnectionURL     = errors.New("empty mongo connection url, use MONGODB_URL env var")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrFailedToCreateIndex    = errors.New("failed to create mongo index")
)

// IsUnavailableError reports network failures, timeouts and a disconnected client.
func IsUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		kv.IsConnectionError(err)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailableError(err) {
		return kv.Unavailable(err)
	}
	return err
}
