// Package session holds the signed-in identity and the anti-forgery token
// for one client lifetime.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Session is what the client knows about the current user. The password is
// never part of it.
type Session struct {
	Email     string
	CSRFToken string
}

// LoggedIn reports whether a user is signed in.
func (s Session) LoggedIn() bool {
	return s.Email != ""
}

// Backend is the subset of the API client the store drives.
type Backend interface {
	CSRFToken(ctx context.Context) (string, error)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
}

// Store owns the Session. Nothing else mutates it; callers read copies.
type Store struct {
	backend Backend
	logger  *zap.Logger
	current Session
}

// NewStore returns an empty store bound to backend.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger.Named("session")}
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	return s.current
}

// CSRFToken returns the held token, or "" when none has been fetched. It
// satisfies api.TokenSource.
func (s *Store) CSRFToken() string {
	return s.current.CSRFToken
}

// Init fetches the anti-forgery token at startup. Failure is logged only;
// Login retries the fetch when it finds no token.
func (s *Store) Init(ctx context.Context) {
	if err := s.refreshToken(ctx); err != nil {
		s.logger.Warn("fetching csrf token at startup", zap.Error(err))
	}
}

// Login authenticates and records email. A fresh token is fetched afterwards
// for later mutating calls; if that fetch fails the previous token is kept.
func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	s.ensureToken(ctx, "login")
	if err := s.backend.Login(ctx, email, password); err != nil {
		return s.current, fmt.Errorf("logging in: %w", err)
	}
	s.current.Email = email

	if err := s.refreshToken(ctx); err != nil {
		s.logger.Warn("refreshing csrf token after login", zap.Error(err))
	}
	return s.current, nil
}

// Register creates an account without signing in.
func (s *Store) Register(ctx context.Context, email, password string) error {
	s.ensureToken(ctx, "register")
	if err := s.backend.Register(ctx, email, password); err != nil {
		return fmt.Errorf("registering: %w", err)
	}
	return nil
}

// Logout tells the server, ignoring any failure, then clears the session.
func (s *Store) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Info("logout call failed", zap.Error(err))
	}
	s.current = Session{}
}

// ensureToken fetches a token when none is held. A failed fetch is logged and
// the request goes out without the header; the server decides.
func (s *Store) ensureToken(ctx context.Context, op string) {
	if s.current.CSRFToken != "" {
		return
	}
	if err := s.refreshToken(ctx); err != nil {
		s.logger.Warn("fetching csrf token", zap.String("op", op), zap.Error(err))
	}
}

func (s *Store) refreshToken(ctx context.Context) error {
	token, err := s.backend.CSRFToken(ctx)
	if err != nil {
		return fmt.Errorf("fetching csrf token: %w", err)
	}
	if token != "" {
		s.current.CSRFToken = token
	}
	return nil
}
