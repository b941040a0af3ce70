package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// Builder.Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderReused is returned when Build is called twice on one Builder.
	ErrBuilderReused = errors.New("builder already built")
	// ErrRedisRequired is returned when the Redis revocation backend is
	// selected without a client.
	ErrRedisRequired = errors.New("redis revocation backend requires a redis client")
)
