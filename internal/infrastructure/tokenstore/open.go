package tokenstore

import (
	"context"
	"fmt"

	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/infrastructure/config"
	mongostore "github.com/smartretail/storefront/internal/infrastructure/db/mongo"
	redisstore "github.com/smartretail/storefront/internal/infrastructure/db/redis"
)

// Open builds the TokenStore selected by cfg.Tokens.Store. The returned close
// function releases any backend connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (ports.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Tokens.Store {
	case "memory":
		return NewMemoryStore(), noop, nil

	case "file":
		path := cfg.Tokens.File
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		store, err := NewFileStore(path, cfg.Tokens.Key)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case "redis":
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, noop, err
		}
		return redisstore.NewTokenStore(client, cfg.Redis.Prefix, cfg.Tokens.Key, cfg.Tokens.TTL), client.Close, nil

	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() error { return client.Disconnect(context.Background()) }
		return mongostore.NewTokenStore(db, cfg.Tokens.Key), closeFn, nil
	}

	return nil, noop, fmt.Errorf("unknown token store %q", cfg.Tokens.Store)
}
