// Package redis connects to the Redis server backing the upload metadata
// index.
//
// It wraps the go-redis client with a Connect helper that retries until the
// server answers PING or the attempts run out, and a Healthcheck closure for
// readiness probes.
//
// # Usage
//
//	client, err := redis.Connect(ctx, redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  time.Second,
//	    ConnectTimeout: 10 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	idx := file.NewRedisIndex(client, "uploads:", 0)
//
// # Errors
//
// Sentinel errors (ErrRedisNotReady, ErrFailedToParseRedisConnString, ...)
// are joined with the underlying go-redis error via errors.Join.
package redis
