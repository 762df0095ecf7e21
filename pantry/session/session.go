// session/session.go
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Session is one visitor's server-side state. The payload is an opaque JSON
// document owned by the caller.
type Session struct {
	mu        sync.RWMutex
	id        string
	payload   json.RawMessage
	isNew     bool
	modified  bool
	expiresAt time.Time
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// IsNew returns true if the session was just created.
func (s *Session) IsNew() bool {
	return s.isNew
}

// Decode unmarshals the payload into v. It reports false when the session
// holds nothing yet.
func (s *Session) Decode(v any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.payload) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(s.payload, v); err != nil {
		return false, err
	}
	return true, nil
}

// Encode replaces the payload with v.
func (s *Session) Encode(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = b
	s.modified = true
	return nil
}

// Modified returns true if the payload has been changed.
func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// ExpiresAt returns when the session expires.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// Store defines the interface for session storage backends.
type Store interface {
	// Load retrieves session data by ID.
	// Returns ErrNotFound if the session doesn't exist.
	Load(ctx context.Context, id string) (*SessionData, error)

	// Save stores session data.
	Save(ctx context.Context, data *SessionData) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error

	// Close releases any resources.
	Close() error
}

// SessionData is the serializable session data stored in backends.
type SessionData struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *SessionData) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *SessionData) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// Common errors
var (
	ErrNotFound = errors.New("session: not found")
	ErrExpired  = errors.New("session: expired")
)

// generateID creates a cryptographically secure session ID.
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Manager handles session creation, retrieval, and persistence.
type Manager struct {
	store  Store
	config Config
}

// Config configures the session manager.
type Config struct {
	// CookieName is the name of the session cookie.
	// Default: "applyform_session".
	CookieName string

	// MaxAge is the session lifetime.
	// Default: 24 hours.
	MaxAge time.Duration

	// Path is the cookie path.
	// Default: "/".
	Path string

	// Secure sets the Secure flag on the cookie.
	Secure bool

	// SameSite sets the SameSite attribute.
	// Default: http.SameSiteLaxMode.
	SameSite http.SameSite

	// IDGenerator generates session IDs.
	// Default: cryptographically secure random ID.
	IDGenerator func() (string, error)

	// Clock drives expiry. Default: the real clock.
	Clock clockwork.Clock
}

// NewManager creates a session manager with the given store and config.
// The cookie is always HttpOnly.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "applyform_session"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = generateID
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Manager{
		store:  store,
		config: cfg,
	}
}

// Get retrieves the session from the request, creating a new one if the
// cookie is missing, unknown or expired. Store failures other than
// not-found/expired are returned along with a fresh session so the form
// keeps working.
func (m *Manager) Get(r *http.Request) (*Session, error) {
	var loadErr error

	cookie, err := r.Cookie(m.config.CookieName)
	if err == nil && cookie.Value != "" {
		data, err := m.store.Load(r.Context(), cookie.Value)
		switch {
		case err == nil && m.config.Clock.Now().Before(data.ExpiresAt):
			return &Session{
				id:        data.ID,
				payload:   data.Payload,
				expiresAt: data.ExpiresAt,
			}, nil
		case err == nil, errors.Is(err, ErrExpired):
			_ = m.store.Delete(r.Context(), cookie.Value)
		case errors.Is(err, ErrNotFound):
		default:
			loadErr = err
		}
	}

	s, err := m.New()
	if err != nil {
		return nil, err
	}
	return s, loadErr
}

// New creates a new session.
func (m *Manager) New() (*Session, error) {
	id, err := m.config.IDGenerator()
	if err != nil {
		return nil, err
	}

	return &Session{
		id:        id,
		isNew:     true,
		modified:  true,
		expiresAt: m.config.Clock.Now().Add(m.config.MaxAge),
	}, nil
}

// Save persists the session and sets the cookie. Each save slides the
// expiry forward by MaxAge.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, session *Session) error {
	now := m.config.Clock.Now()

	session.mu.Lock()
	session.expiresAt = now.Add(m.config.MaxAge)
	data := &SessionData{
		ID:        session.id,
		Payload:   session.payload,
		ExpiresAt: session.expiresAt,
		UpdatedAt: now,
	}
	if session.isNew {
		data.CreatedAt = now
	}
	session.modified = false
	session.mu.Unlock()

	if err := m.store.Save(r.Context(), data); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    session.id,
		Path:     m.config.Path,
		MaxAge:   int(m.config.MaxAge.Seconds()),
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: m.config.SameSite,
	})

	return nil
}

// Reload replaces the session's payload with the stored copy, picking up
// saves made by other requests since it was loaded. A session that is not
// stored yet keeps its payload.
func (m *Manager) Reload(ctx context.Context, session *Session) error {
	data, err := m.store.Load(ctx, session.id)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired):
		return nil
	case err != nil:
		return err
	}

	session.mu.Lock()
	session.payload = data.Payload
	session.mu.Unlock()
	return nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, session *Session) error {
	if err := m.store.Delete(r.Context(), session.id); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     m.config.Path,
		MaxAge:   -1,
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: m.config.SameSite,
	})

	return nil
}

// Store returns the underlying session store.
func (m *Manager) Store() Store {
	return m.store
}

// Close closes the session manager and underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
