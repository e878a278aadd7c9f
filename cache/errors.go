package cache

import "errors"

var (
	// ErrShardTooSmall is returned by NewStriped when MaxSize/Shards is
	// below MinShardSize.
	ErrShardTooSmall = errors.New("cache: shard size below minimum")

	// ErrNoLoader is returned by GetOrLoad when no Loader was configured.
	ErrNoLoader = errors.New("cache: no Loader provided")

	// ErrClosed is returned by GetOrLoad after Close.
	ErrClosed = errors.New("cache: closed")
)
