package sandbox

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartretail/storefront/internal/core/domain"
)

// DefaultTokenTTL matches the lifetime of tokens issued by the auth service.
const DefaultTokenTTL = time.Hour

var errInvalidLogin = &Error{Status: http.StatusUnauthorized, Message: "Invalid email or password"}

// Authenticator implements the auth service on top of a Store.
type Authenticator struct {
	store     *Store
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthenticator(store *Store, jwtSecret string, tokenTTL time.Duration) *Authenticator {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Authenticator{store: store, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register creates a customer account.
func (a *Authenticator) Register(reg domain.Registration) (*domain.MessageResult, error) {
	for _, f := range []struct{ name, value string }{
		{"first_name", reg.FirstName},
		{"email", reg.Email},
		{"password", reg.Password},
	} {
		if f.value == "" {
			return nil, errorf(http.StatusBadRequest, "%s is required", f.name)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accountByEmail(reg.Email) != nil {
		return nil, errorf(http.StatusBadRequest, "User with email %s already exists", reg.Email)
	}
	s.addAccount(domain.User{
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Role:      domain.RoleCustomer,
	}, hash)

	return &domain.MessageResult{Message: "User " + reg.FirstName + " registered successfully"}, nil
}

// SeedAdmin creates an admin account unless the email is already taken.
func (a *Authenticator) SeedAdmin(email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc := s.accountByEmail(email); acc != nil {
		u := acc.user
		return &u, nil
	}
	acc := s.addAccount(domain.User{FirstName: "Admin", Email: email, Role: domain.RoleAdmin}, hash)
	u := acc.user
	return &u, nil
}

// Login verifies the credentials and issues a bearer token.
func (a *Authenticator) Login(creds domain.Credentials) (*domain.LoginResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, errorf(http.StatusBadRequest, "Email and password are required")
	}

	s := a.store
	s.mu.Lock()
	acc := s.accountByEmail(creds.Email)
	var user domain.User
	var hash []byte
	active := false
	if acc != nil {
		user, hash, active = acc.user, acc.passwordHash, acc.active
	}
	s.mu.Unlock()

	if acc == nil {
		return nil, errInvalidLogin
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		return nil, errInvalidLogin
	}
	if !active {
		return nil, errorf(http.StatusForbidden, "Account is deactivated")
	}

	token, err := a.generateToken(user)
	if err != nil {
		return nil, err
	}

	// The login payload omits created_at.
	user.CreatedAt = nil
	return &domain.LoginResult{Message: "Login successful", AccessToken: token, User: user}, nil
}

func (a *Authenticator) generateToken(user domain.User) (string, error) {
	now := a.store.now()
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(user.ID),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(a.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(a.jwtSecret))
}

// Me returns the caller's own account.
func (a *Authenticator) Me(caller Caller) (*domain.User, error) {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[caller.UserID]
	if !ok {
		return nil, errorf(http.StatusNotFound, "User not found")
	}
	u := acc.user
	return &u, nil
}

func (a *Authenticator) ListUsers(caller Caller) ([]domain.User, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, 0, len(s.users))
	for _, acc := range s.users {
		out = append(out, acc.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateRole changes a user's role. The last admin cannot be demoted.
func (a *Authenticator) UpdateRole(caller Caller, userID int, role domain.Role) (*domain.RoleUpdateResult, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, errorf(http.StatusBadRequest, "Role must be 'admin' or 'customer'")
	}

	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[userID]
	if !ok {
		return nil, errorf(http.StatusNotFound, "User not found")
	}
	if acc.user.Role == domain.RoleAdmin && role != domain.RoleAdmin && s.adminCount(false) == 1 {
		return nil, errorf(http.StatusBadRequest, "Cannot remove the last admin")
	}
	acc.user.Role = role

	return &domain.RoleUpdateResult{Message: "User " + acc.user.Email + " role updated to " + string(role)}, nil
}

func (a *Authenticator) DeactivateUser(caller Caller, userID int) (*domain.MessageResult, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[userID]
	if !ok {
		return nil, errorf(http.StatusNotFound, "User not found")
	}
	if acc.active && acc.user.Role == domain.RoleAdmin && s.adminCount(true) == 1 {
		return nil, errorf(http.StatusBadRequest, "Cannot deactivate the last admin")
	}
	acc.active = false

	return &domain.MessageResult{Message: "User " + acc.user.Email + " deactivated successfully"}, nil
}

func (a *Authenticator) DeleteUser(caller Caller, userID int) (*domain.MessageResult, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[userID]
	if !ok {
		return nil, errorf(http.StatusNotFound, "User not found")
	}
	if acc.active && acc.user.Role == domain.RoleAdmin && s.adminCount(true) == 1 {
		return nil, errorf(http.StatusBadRequest, "Cannot delete the last admin")
	}
	delete(s.users, userID)

	return &domain.MessageResult{Message: "User " + acc.user.Email + " permanently deleted"}, nil
}

// The helpers below expect s.mu to be held.

func (s *Store) accountByEmail(email string) *account {
	for _, acc := range s.users {
		if strings.EqualFold(acc.user.Email, email) {
			return acc
		}
	}
	return nil
}

func (s *Store) addAccount(u domain.User, hash []byte) *account {
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.timestamp()
	acc := &account{user: u, passwordHash: hash, active: true}
	s.users[u.ID] = acc
	return acc
}

func (s *Store) adminCount(activeOnly bool) int {
	n := 0
	for _, acc := range s.users {
		if acc.user.Role == domain.RoleAdmin && (!activeOnly || acc.active) {
			n++
		}
	}
	return n
}
