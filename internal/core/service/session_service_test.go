package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/infrastructure/tokenstore"
)

// ---------------------------------------------------------------------------
// Stub auth API
// ---------------------------------------------------------------------------

type stubAuthAPI struct {
	meFn       func(ctx context.Context, token string) (*domain.User, error)
	loginFn    func(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	registerFn func(ctx context.Context, reg domain.Registration) error

	meCalls    []string
	loginCalls []domain.Credentials
}

func (s *stubAuthAPI) Me(ctx context.Context, token string) (*domain.User, error) {
	s.meCalls = append(s.meCalls, token)
	return s.meFn(ctx, token)
}

func (s *stubAuthAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	s.loginCalls = append(s.loginCalls, creds)
	return s.loginFn(ctx, creds)
}

func (s *stubAuthAPI) Register(ctx context.Context, reg domain.Registration) error {
	return s.registerFn(ctx, reg)
}

var alice = domain.User{ID: 7, FirstName: "Alice", Email: "alice@example.com", Role: domain.RoleCustomer}

func statusErr(status int, serverError string) error {
	msg := serverError
	if msg == "" {
		msg = "Bad Request"
	}
	return &domain.RequestError{Kind: domain.KindStatus, Status: status, Message: msg, ServerError: serverError}
}

func transportErr() error {
	return &domain.RequestError{Kind: domain.KindTransport, Err: errors.New("connection refused")}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func successfulLogin(token string) func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
	return func(_ context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
		if creds.Email != alice.Email || creds.Password != "pw" {
			return nil, statusErr(401, "Invalid email or password")
		}
		return &domain.LoginResult{Message: "Login successful", AccessToken: token, User: alice}, nil
	}
}

func storedToken(t *testing.T, store *tokenstore.MemoryStore) string {
	t.Helper()
	tok, err := store.Load(context.Background())
	if errors.Is(err, domain.ErrNoToken) {
		return ""
	}
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	return tok
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func TestBootstrap_NoStoredToken(t *testing.T) {
	api := &stubAuthAPI{}
	svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())

	if got := svc.Current().State; got != domain.StateLoading {
		t.Fatalf("expected loading before bootstrap, got %s", got)
	}
	sess := svc.Bootstrap(context.Background())
	if sess.State != domain.StateUnauthenticated || sess.User != nil {
		t.Fatalf("expected unauthenticated, got %+v", sess)
	}
	if len(api.meCalls) != 0 {
		t.Fatalf("expected no network call, got %d", len(api.meCalls))
	}
}

func TestBootstrap_ValidToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "good")
	api := &stubAuthAPI{meFn: func(_ context.Context, token string) (*domain.User, error) {
		u := alice
		return &u, nil
	}}
	svc := NewSessionService(api, store, zerolog.Nop())

	sess := svc.Bootstrap(context.Background())
	if !sess.Authenticated() || sess.User.ID != alice.ID || sess.Token != "good" {
		t.Fatalf("expected authenticated alice, got %+v", sess)
	}
	if len(api.meCalls) != 1 || api.meCalls[0] != "good" {
		t.Fatalf("expected one /auth/me with stored token, got %v", api.meCalls)
	}
}

func TestBootstrap_RejectedTokenIsCleared(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "expired")
	api := &stubAuthAPI{meFn: func(context.Context, string) (*domain.User, error) {
		return nil, statusErr(401, "Token has expired")
	}}
	svc := NewSessionService(api, store, zerolog.Nop())

	sess := svc.Bootstrap(context.Background())
	if sess.State != domain.StateUnauthenticated || sess.User != nil || sess.Token != "" {
		t.Fatalf("expected cleared session, got %+v", sess)
	}
	if storedToken(t, store) != "" {
		t.Fatalf("expected stored token to be cleared")
	}
	if svc.LastError() != nil {
		t.Fatalf("hydration failure must not surface an error, got %v", svc.LastError())
	}
}

func TestBootstrap_TransportFailureClearsByDefault(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "tok")
	api := &stubAuthAPI{meFn: func(context.Context, string) (*domain.User, error) { return nil, transportErr() }}
	svc := NewSessionService(api, store, zerolog.Nop())

	sess := svc.Bootstrap(context.Background())
	if sess.State != domain.StateUnauthenticated || sess.Offline {
		t.Fatalf("expected plain unauthenticated session, got %+v", sess)
	}
	if storedToken(t, store) != "" {
		t.Fatalf("expected stored token to be cleared")
	}
}

func TestBootstrap_TransportFailureKeepsTokenWhenConfigured(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "tok")
	api := &stubAuthAPI{meFn: func(context.Context, string) (*domain.User, error) { return nil, transportErr() }}
	svc := NewSessionService(api, store, zerolog.Nop(), WithKeepTokenOnTransportError(true))

	sess := svc.Bootstrap(context.Background())
	if sess.State != domain.StateUnauthenticated || !sess.Offline || sess.User != nil {
		t.Fatalf("expected offline unauthenticated session, got %+v", sess)
	}
	if storedToken(t, store) != "tok" {
		t.Fatalf("expected stored token to be kept")
	}

	// A status failure still clears, even with the option on.
	api.meFn = func(context.Context, string) (*domain.User, error) { return nil, statusErr(401, "") }
	svc.Bootstrap(context.Background())
	if storedToken(t, store) != "" {
		t.Fatalf("expected rejected token to be cleared")
	}
}

// ---------------------------------------------------------------------------
// Login / Register
// ---------------------------------------------------------------------------

func TestLogin_Success(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)
	api := &stubAuthAPI{loginFn: successfulLogin(token)}
	svc := NewSessionService(api, store, zerolog.Nop())
	svc.Bootstrap(context.Background())

	user, err := svc.Login(context.Background(), alice.Email, "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("unexpected user %+v", user)
	}
	sess := svc.Current()
	if !sess.Authenticated() || sess.Token != token {
		t.Fatalf("expected authenticated session, got %+v", sess)
	}
	if sess.ExpiresAt == nil || !sess.ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, sess.ExpiresAt)
	}
	if storedToken(t, store) != token {
		t.Fatalf("expected token to be persisted")
	}
	if svc.LastError() != nil {
		t.Fatalf("expected no last error, got %v", svc.LastError())
	}
}

func TestLogin_FailureRecordsServerMessage(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	api := &stubAuthAPI{loginFn: successfulLogin("tok")}
	svc := NewSessionService(api, store, zerolog.Nop())
	svc.Bootstrap(context.Background())

	_, err := svc.Login(context.Background(), alice.Email, "wrong")
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("expected server message, got %v", err)
	}
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) || authErr.Op != "login" {
		t.Fatalf("expected AuthError, got %T", err)
	}
	if !domain.IsKind(err, domain.KindStatus) {
		t.Fatalf("expected wrapped status error")
	}
	if svc.LastError() == nil || svc.LastError().Error() != "Invalid email or password" {
		t.Fatalf("unexpected last error %v", svc.LastError())
	}
	if sess := svc.Current(); sess.User != nil || sess.State != domain.StateUnauthenticated {
		t.Fatalf("expected user to remain absent, got %+v", sess)
	}
	if storedToken(t, store) != "" {
		t.Fatalf("expected nothing stored")
	}
}

func TestLogin_FailureFallbackMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"status without error field", statusErr(500, "")},
		{"transport", transportErr()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAuthAPI{loginFn: func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
				return nil, tc.err
			}}
			svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())

			_, err := svc.Login(context.Background(), "x@y.z", "pw")
			if err == nil || err.Error() != "Login failed" {
				t.Fatalf("expected fallback message, got %v", err)
			}
		})
	}
}

func TestLogin_ClearsPreviousError(t *testing.T) {
	api := &stubAuthAPI{loginFn: successfulLogin("tok")}
	svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())

	_, _ = svc.Login(context.Background(), alice.Email, "bad")
	if svc.LastError() == nil {
		t.Fatalf("expected recorded error")
	}
	if _, err := svc.Login(context.Background(), alice.Email, "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if svc.LastError() != nil {
		t.Fatalf("expected error cleared, got %v", svc.LastError())
	}
}

func TestRegister_LogsInExactlyOnce(t *testing.T) {
	var registered domain.Registration
	api := &stubAuthAPI{
		loginFn: successfulLogin("tok"),
		registerFn: func(_ context.Context, reg domain.Registration) error {
			registered = reg
			return nil
		},
	}
	store := tokenstore.NewMemoryStore()
	svc := NewSessionService(api, store, zerolog.Nop())
	svc.Bootstrap(context.Background())

	reg := domain.Registration{FirstName: "Alice", Email: alice.Email, Password: "pw"}
	user, err := svc.Register(context.Background(), reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.Email != reg.Email || registered.LastName != "" {
		t.Fatalf("unexpected registration payload %+v", registered)
	}
	if len(api.loginCalls) != 1 {
		t.Fatalf("expected exactly one login, got %d", len(api.loginCalls))
	}
	if api.loginCalls[0] != (domain.Credentials{Email: reg.Email, Password: reg.Password}) {
		t.Fatalf("login used different credentials: %+v", api.loginCalls[0])
	}

	// The resulting state matches a direct login with the same credentials.
	direct := NewSessionService(&stubAuthAPI{loginFn: successfulLogin("tok")}, tokenstore.NewMemoryStore(), zerolog.Nop())
	if _, err := direct.Login(context.Background(), reg.Email, reg.Password); err != nil {
		t.Fatalf("direct Login: %v", err)
	}
	got, want := svc.Current(), direct.Current()
	if got.State != want.State || got.Token != want.Token || *got.User != *want.User || user.ID != want.User.ID {
		t.Fatalf("register state %+v differs from login state %+v", got, want)
	}
}

func TestRegister_FailureSkipsLogin(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server error", statusErr(400, "User with email alice@example.com already exists"), "User with email alice@example.com already exists"},
		{"fallback", statusErr(500, ""), "Registration failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAuthAPI{
				loginFn:    successfulLogin("tok"),
				registerFn: func(context.Context, domain.Registration) error { return tc.err },
			}
			svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())

			_, err := svc.Register(context.Background(), domain.Registration{FirstName: "A", Email: alice.Email, Password: "pw"})
			if err == nil || err.Error() != tc.wantMsg {
				t.Fatalf("expected %q, got %v", tc.wantMsg, err)
			}
			if svc.LastError() == nil || svc.LastError().Error() != tc.wantMsg {
				t.Fatalf("unexpected last error %v", svc.LastError())
			}
			if len(api.loginCalls) != 0 {
				t.Fatalf("expected no login attempt, got %d", len(api.loginCalls))
			}
		})
	}
}

func TestRegister_LoginFailureAfterRegistration(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
			return nil, statusErr(401, "Invalid credentials")
		},
		registerFn: func(context.Context, domain.Registration) error { return nil },
	}
	store := tokenstore.NewMemoryStore()
	svc := NewSessionService(api, store, zerolog.Nop())
	svc.Bootstrap(context.Background())

	user, err := svc.Register(context.Background(), domain.Registration{FirstName: "A", Email: alice.Email, Password: "pw"})
	if user != nil || err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("expected login failure, got user=%v err=%v", user, err)
	}
	var authErr *domain.AuthError
	if !errors.As(svc.LastError(), &authErr) || authErr.Op != "login" || authErr.Message != "Invalid credentials" {
		t.Fatalf("unexpected last error %v", svc.LastError())
	}
	if len(api.loginCalls) != 1 {
		t.Fatalf("expected exactly one login, got %d", len(api.loginCalls))
	}
	if got := svc.Current(); got.State != domain.StateUnauthenticated || got.User != nil {
		t.Fatalf("expected no session, got %+v", got)
	}
	if tok := storedToken(t, store); tok != "" {
		t.Fatalf("expected no stored token, got %q", tok)
	}
}

// ---------------------------------------------------------------------------
// Logout / Revalidate
// ---------------------------------------------------------------------------

func TestLogout_Idempotent(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	api := &stubAuthAPI{loginFn: successfulLogin("tok")}
	svc := NewSessionService(api, store, zerolog.Nop())

	if _, err := svc.Login(context.Background(), alice.Email, "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.Logout(context.Background()); err != nil {
			t.Fatalf("Logout #%d: %v", i+1, err)
		}
		sess := svc.Current()
		if sess.State != domain.StateUnauthenticated || sess.User != nil || sess.Token != "" {
			t.Fatalf("Logout #%d left %+v", i+1, sess)
		}
		if storedToken(t, store) != "" {
			t.Fatalf("Logout #%d left a stored token", i+1)
		}
	}
}

func TestRevalidate_FailureDropsSession(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	api := &stubAuthAPI{
		loginFn: successfulLogin("tok"),
		meFn:    func(context.Context, string) (*domain.User, error) { return nil, statusErr(401, "Token has been revoked") },
	}
	svc := NewSessionService(api, store, zerolog.Nop())
	if _, err := svc.Login(context.Background(), alice.Email, "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	sess := svc.Revalidate(context.Background())
	if sess.State != domain.StateUnauthenticated || sess.User != nil {
		t.Fatalf("expected unauthenticated after failed revalidation, got %+v", sess)
	}
	if storedToken(t, store) != "" {
		t.Fatalf("expected token cleared")
	}
	if len(api.meCalls) != 1 || api.meCalls[0] != "tok" {
		t.Fatalf("expected revalidation with current token, got %v", api.meCalls)
	}
}

func TestRevalidate_WithoutSessionMakesNoCall(t *testing.T) {
	api := &stubAuthAPI{}
	svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())
	svc.Bootstrap(context.Background())

	if sess := svc.Revalidate(context.Background()); sess.State != domain.StateUnauthenticated {
		t.Fatalf("unexpected state %s", sess.State)
	}
	if len(api.meCalls) != 0 {
		t.Fatalf("expected no call")
	}
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	api := &stubAuthAPI{loginFn: successfulLogin("tok")}
	svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())
	if _, err := svc.Login(context.Background(), alice.Email, "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	snap := svc.Current()
	snap.User.Role = domain.RoleAdmin
	if svc.Current().User.Role != domain.RoleCustomer {
		t.Fatalf("mutating a snapshot changed the session")
	}
}

func TestLogin_NonJWTTokenHasNoExpiry(t *testing.T) {
	api := &stubAuthAPI{loginFn: successfulLogin("opaque-token")}
	svc := NewSessionService(api, tokenstore.NewMemoryStore(), zerolog.Nop())
	if _, err := svc.Login(context.Background(), alice.Email, "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if svc.Current().ExpiresAt != nil {
		t.Fatalf("expected no expiry for opaque token")
	}
}
