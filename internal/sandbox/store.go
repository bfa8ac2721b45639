// Package sandbox is an in-memory stand-in for the storefront services. It
// answers with the same payloads and error messages as the deployed services
// and backs the devserver command and end-to-end tests.
package sandbox

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/smartretail/storefront/internal/core/domain"
)

// Error is a failure the sandbox answers with Status and {"error": Message}.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func errorf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

var errAdminsOnly = &Error{Status: http.StatusForbidden, Message: "Admins only"}

type account struct {
	user         domain.User
	passwordHash []byte
	active       bool
}

// Store holds every service's state behind one lock.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users    map[int]*account
	products map[int]*domain.Product
	orders   map[int]*domain.Order
	payments map[int]*domain.Payment
	forecast map[string]domain.ForecastPoint

	nextUser, nextProduct, nextOrder, nextPayment int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests that need stable dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		users:    make(map[int]*account),
		products: make(map[int]*domain.Product),
		orders:   make(map[int]*domain.Order),
		payments: make(map[int]*domain.Payment),
		forecast: make(map[string]domain.ForecastPoint),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) timestamp() *domain.Timestamp {
	return &domain.Timestamp{Time: s.now().UTC()}
}

func (s *Store) today() time.Time {
	return truncateDay(s.now().UTC())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Caller identifies the bearer of a validated token.
type Caller struct {
	UserID int
	Role   domain.Role
}

func (c Caller) admin() bool { return c.Role == domain.RoleAdmin }

func (c Caller) requireAdmin() error {
	if !c.admin() {
		return errAdminsOnly
	}
	return nil
}
