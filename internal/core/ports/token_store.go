package ports

import "context"

// TokenStore persists the single bearer token across process restarts.
//
// Load returns domain.ErrNoToken when nothing is stored. Clear must succeed
// when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
