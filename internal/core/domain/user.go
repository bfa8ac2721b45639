package domain

import "time"

// Role is the authorization role attached to a user by the auth service.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the roles the auth service accepts.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// User is the read-only copy of an identity owned by the auth service.
type User struct {
	ID        int        `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// IsAdmin reports whether the user can reach admin-only endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Registration carries the fields accepted by POST /auth/register.
type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Credentials carries the fields accepted by POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the payload returned by a successful login.
type LoginResult struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// MessageResult is the generic acknowledgement most mutating endpoints return.
type MessageResult struct {
	Message string `json:"message"`
}

// RoleUpdate is the body of PUT /auth/users/:id/role.
type RoleUpdate struct {
	Role Role `json:"role" validate:"required,oneof=admin customer"`
}

// RoleUpdateResult is the acknowledgement of a role change.
type RoleUpdateResult struct {
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// Timestamp decodes the several datetime encodings the services emit
// (RFC 3339, ISO-8601 without zone, and RFC 1123 from Flask's jsonify).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	"2006-01-02",
}

// UnmarshalJSON accepts any of timestampLayouts; null leaves the zero value.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON always emits RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}
