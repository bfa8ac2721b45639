package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/infrastructure/apiclient"
)

// AuthClient talks to the auth service. It satisfies ports.AuthAPI and adds
// the admin user-management calls.
type AuthClient struct {
	base
}

var _ ports.AuthAPI = (*AuthClient)(nil)

func NewAuthClient(api Doer, baseURL string, pub ports.RefreshPublisher) *AuthClient {
	return &AuthClient{base: newBase(api, baseURL, "auth", pub)}
}

// Me fetches the identity behind token. An empty token falls back to the
// stored credential.
func (c *AuthClient) Me(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	err := c.api.Do(ctx, apiclient.Request{
		Service: c.service,
		Method:  http.MethodGet,
		URL:     c.endpoint("/auth/me", nil),
		Token:   token,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login never sends a stored bearer; the credentials are the proof.
func (c *AuthClient) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var res domain.LoginResult
	err := c.api.Do(ctx, apiclient.Request{
		Service:  c.service,
		Method:   http.MethodPost,
		URL:      c.endpoint("/auth/login", nil),
		Body:     creds,
		SkipAuth: true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AuthClient) Register(ctx context.Context, reg domain.Registration) error {
	return c.api.Do(ctx, apiclient.Request{
		Service:  c.service,
		Method:   http.MethodPost,
		URL:      c.endpoint("/auth/register", nil),
		Body:     reg,
		SkipAuth: true,
	}, nil)
}

func (c *AuthClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/auth/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *AuthClient) UpdateRole(ctx context.Context, userID int, role domain.Role) (*domain.RoleUpdateResult, error) {
	path := fmt.Sprintf("/auth/users/%d/role", userID)
	body := domain.RoleUpdate{Role: role}
	if err := c.check(http.MethodPut, path, body); err != nil {
		return nil, err
	}

	var res domain.RoleUpdateResult
	if err := c.send(ctx, http.MethodPut, path, nil, body, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceUsers, domain.ActionUpdate, userID)
	return &res, nil
}

func (c *AuthClient) DeactivateUser(ctx context.Context, userID int) (*domain.MessageResult, error) {
	var res domain.MessageResult
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/auth/users/%d/deactivate", userID), nil, nil, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceUsers, domain.ActionUpdate, userID)
	return &res, nil
}

func (c *AuthClient) DeleteUser(ctx context.Context, userID int) (*domain.MessageResult, error) {
	var res domain.MessageResult
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/auth/users/%d", userID), nil, nil, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceUsers, domain.ActionDelete, userID)
	return &res, nil
}
