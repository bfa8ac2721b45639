package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/metrics"
)

const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
)

// SessionOption configures the session service.
type SessionOption func(*sessionService)

// WithKeepTokenOnTransportError keeps the stored token when hydration fails
// because the auth service could not be reached. The session is then marked
// Offline instead of being treated as expired.
func WithKeepTokenOnTransportError(keep bool) SessionOption {
	return func(s *sessionService) { s.keepOnTransport = keep }
}

type sessionService struct {
	auth            ports.AuthAPI
	tokens          ports.TokenStore
	log             zerolog.Logger
	keepOnTransport bool

	mu      sync.RWMutex
	session domain.Session
	lastErr error
}

// NewSessionService returns a SessionService in the loading state. Call
// Bootstrap once before handing it to callers.
func NewSessionService(auth ports.AuthAPI, tokens ports.TokenStore, log zerolog.Logger, opts ...SessionOption) ports.SessionService {
	s := &sessionService{
		auth:    auth,
		tokens:  tokens,
		log:     log,
		session: domain.Session{State: domain.StateLoading},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap hydrates the session from the stored token. Failures are never
// returned: the session simply resolves to unauthenticated.
func (s *sessionService) Bootstrap(ctx context.Context) domain.Session {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoToken) {
			s.log.Warn().Err(err).Msg("token store read failed, starting unauthenticated")
		}
		s.setUnauthenticated("no_token")
		return s.Current()
	}
	return s.hydrate(ctx, token, "bootstrap")
}

// Revalidate re-fetches the current identity with the session's token.
func (s *sessionService) Revalidate(ctx context.Context) domain.Session {
	s.mu.RLock()
	token := s.session.Token
	s.mu.RUnlock()

	if token == "" {
		return s.Current()
	}
	return s.hydrate(ctx, token, "revalidate")
}

func (s *sessionService) hydrate(ctx context.Context, token, cause string) domain.Session {
	user, err := s.auth.Me(ctx, token)
	if err == nil {
		s.setAuthenticated(user, token, cause)
		return s.Current()
	}

	if s.keepOnTransport && domain.IsKind(err, domain.KindTransport) {
		s.log.Warn().Err(err).Str("cause", cause).Msg("auth service unreachable, keeping stored token")
		s.mu.Lock()
		if s.session.State == domain.StateAuthenticated {
			s.session.Offline = true
		} else {
			s.session = domain.Session{State: domain.StateUnauthenticated, Offline: true}
		}
		state := s.session.State
		s.mu.Unlock()
		metrics.SessionTransitionsTotal.WithLabelValues(string(state), cause+"_offline").Inc()
		return s.Current()
	}

	s.log.Info().Err(err).Str("cause", cause).Msg("stored token rejected, clearing session")
	if clearErr := s.tokens.Clear(ctx); clearErr != nil {
		s.log.Warn().Err(clearErr).Msg("failed to clear stored token")
	}
	s.setUnauthenticated(cause + "_failed")
	return s.Current()
}

// Login authenticates without any stored bearer. On failure the session is
// left as it was and the error is both recorded and returned.
func (s *sessionService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	s.setLastError(nil)

	res, err := s.auth.Login(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, s.fail("login", loginFallback, err)
	}
	if res.AccessToken == "" {
		return nil, s.fail("login", loginFallback, errors.New("login response carried no access token"))
	}
	if err := s.tokens.Save(ctx, res.AccessToken); err != nil {
		return nil, s.fail("login", loginFallback, fmt.Errorf("save token: %w", err))
	}

	user := res.User
	s.setAuthenticated(&user, res.AccessToken, "login")
	return &user, nil
}

// Register creates the account and then performs exactly one Login with the
// same credentials. A registration failure makes no login attempt.
func (s *sessionService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	s.setLastError(nil)

	if err := s.auth.Register(ctx, reg); err != nil {
		return nil, s.fail("register", registerFallback, err)
	}
	s.log.Info().Str("email", reg.Email).Msg("registered, logging in")
	return s.Login(ctx, reg.Email, reg.Password)
}

// Logout clears the stored token and the in-memory user. It makes no network
// call and is idempotent.
func (s *sessionService) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	s.setUnauthenticated("logout")
	if err != nil {
		return fmt.Errorf("logout: clear token: %w", err)
	}
	return nil
}

// Current returns a copy of the session; mutating it has no effect.
func (s *sessionService) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.session
	if snap.User != nil {
		u := *snap.User
		snap.User = &u
	}
	if snap.ExpiresAt != nil {
		t := *snap.ExpiresAt
		snap.ExpiresAt = &t
	}
	return snap
}

func (s *sessionService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *sessionService) fail(op, fallback string, err error) error {
	authErr := &domain.AuthError{Op: op, Message: failureMessage(err, fallback), Err: err}
	s.setLastError(authErr)
	s.log.Warn().Err(err).Str("op", op).Msg("authentication failed")
	return authErr
}

// failureMessage prefers the server's error field and otherwise uses fallback.
func failureMessage(err error, fallback string) string {
	var re *domain.RequestError
	if errors.As(err, &re) && re.ServerError != "" {
		return re.ServerError
	}
	return fallback
}

func (s *sessionService) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *sessionService) setAuthenticated(user *domain.User, token, cause string) {
	u := *user
	s.mu.Lock()
	s.session = domain.Session{
		State:     domain.StateAuthenticated,
		User:      &u,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues(string(domain.StateAuthenticated), cause).Inc()
	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Str("cause", cause).Msg("session authenticated")
}

func (s *sessionService) setUnauthenticated(cause string) {
	s.mu.Lock()
	s.session = domain.Session{State: domain.StateUnauthenticated}
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues(string(domain.StateUnauthenticated), cause).Inc()
	s.log.Debug().Str("cause", cause).Msg("session unauthenticated")
}

// tokenExpiry reads the exp claim without verifying the signature. Tokens
// that are not JWTs have no known expiry.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
