package auth

import (
	"time"

	"github.com/agersant/polaris/internal/apperr"
)

// User is the subset of a stored user record the auth core needs.
type User struct {
	Name         string
	PasswordHash string
	Admin        bool
}

// UserStore is the persistence collaborator Service authenticates
// against. internal/store's relational store implements it; tests can
// supply an in-memory fake.
type UserStore interface {
	GetUser(name string) (User, bool, error)
}

// Service ties password verification and token issuance together into
// the authorization surface every privileged HTTP handler calls through.
type Service struct {
	store     UserStore
	tokenizer *Tokenizer
	now       func() time.Time
}

// NewService builds a Service. now is injectable so tests can assert on
// issued_at without sleeping; production callers pass nil to default to
// time.Now.
func NewService(store UserStore, tokenizer *Tokenizer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, tokenizer: tokenizer, now: now}
}

// Login verifies a username/password pair and, on success, issues a
// non-expiring Login-purpose token.
func (s *Service) Login(username, password string) (string, error) {
	user, ok, err := s.store.GetUser(username)
	if err != nil {
		return "", err
	}
	if !ok || !VerifyPassword(user.PasswordHash, password) {
		return "", apperr.New(apperr.Unauthorized, "invalid username or password")
	}
	return s.tokenizer.Issue(user.Name, PurposeLogin, s.now().Unix())
}

// IssueLastFMLinkToken issues a short-lived-in-spirit (but, per the
// no-expiration rule, technically non-expiring) token scoping a
// last.fm account-link callback to one user.
func (s *Service) IssueLastFMLinkToken(username string) (string, error) {
	return s.tokenizer.Issue(username, PurposeLastFMLink, s.now().Unix())
}

// Authorize verifies a bearer token for purpose=Login and returns the
// authenticated user. Missing/invalid credentials surface Unauthorized.
func (s *Service) Authorize(token string) (User, error) {
	claims, err := s.tokenizer.Verify(token, PurposeLogin)
	if err != nil {
		return User{}, err
	}
	user, ok, err := s.store.GetUser(claims.Subject)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, apperr.New(apperr.Unauthorized, "token subject no longer exists")
	}
	return user, nil
}

// RequireAdmin authorizes token and additionally requires the admin flag.
func (s *Service) RequireAdmin(token string) (User, error) {
	user, err := s.Authorize(token)
	if err != nil {
		return User{}, err
	}
	if !user.Admin {
		return User{}, apperr.New(apperr.Forbidden, "admin privileges required")
	}
	return user, nil
}
