package ports

import (
	"context"

	"github.com/smartretail/storefront/internal/core/domain"
)

// AuthAPI is the slice of the auth service the session needs.
type AuthAPI interface {
	// Me fetches the identity behind token, using it as the bearer credential.
	Me(ctx context.Context, token string) (*domain.User, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) error
}

// SessionService is the scoped session object handed to views.
type SessionService interface {
	Bootstrap(ctx context.Context) domain.Session
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	Logout(ctx context.Context) error
	Revalidate(ctx context.Context) domain.Session
	Current() domain.Session
	LastError() error
}
