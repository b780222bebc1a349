package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

// ErrNoSession indicates no user is currently authenticated.
var ErrNoSession = errors.New("no active session")

// Manager holds the single authenticated identity of the gateway process.
// It is the explicit replacement for ambient credential storage: Start on
// login, Clear on logout or a 401 from the remote API.
type Manager struct {
	mu        sync.RWMutex
	user      *models.User
	expiresAt time.Time
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager creates an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger, now: time.Now}
}

// Start installs the authenticated user. Any previous session is replaced.
func (m *Manager) Start(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.user = &user
	m.expiresAt = peekExpiry(user.Token)
	m.logger.Info("session started",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
}

// Clear drops the stored credentials. Safe to call with no active session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user != nil {
		m.logger.Info("session cleared", zap.String("email", m.user.Email))
	}
	m.user = nil
	m.expiresAt = time.Time{}
}

// Current returns the active user, or ErrNoSession when nobody is logged in
// or the token expired locally.
func (m *Manager) Current() (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return models.User{}, ErrNoSession
	}
	if !m.expiresAt.IsZero() && m.now().After(m.expiresAt) {
		return models.User{}, ErrNoSession
	}
	return *m.user, nil
}

// Token yields the bearer token for outgoing requests. Satisfies the API
// client's TokenSource.
func (m *Manager) Token() (string, bool) {
	user, err := m.Current()
	if err != nil {
		return "", false
	}
	return user.Token, user.Token != ""
}

// HasRole reports whether the active user holds the given role.
func (m *Manager) HasRole(role models.Role) bool {
	user, err := m.Current()
	return err == nil && user.Role == role
}

// MarkProfileCompleted flips the profile flag after a successful update.
func (m *Manager) MarkProfileCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user != nil {
		m.user.ProfileCompleted = true
	}
}

// peekExpiry reads the exp claim without verifying the signature; signature
// checks belong to the remote API. Tokens we cannot parse never expire
// locally, the server's 401 stays authoritative.
func peekExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
