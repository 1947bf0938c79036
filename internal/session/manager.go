package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName = "drilldown_session"
	defaultCookiePath = "/"
	defaultLifetime   = 12 * time.Hour
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config controls how the session cookie is signed and scoped.
type Config struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookiePath   string
	CookieSecure bool
	Lifetime     time.Duration
}

type cookieValue struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"iat"`
}

// Manager issues and reads the signed cookie that carries the session id.
// The navigation state itself never leaves the server.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
}

// NewManager builds a Manager. A missing hash key is replaced by a random
// one, which invalidates existing cookies on restart.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(32)
		if cfg.HashKey == nil {
			return nil, fmt.Errorf("%w: could not generate hash key", ErrInvalidConfig)
		}
	}
	if len(cfg.BlockKey) == 0 {
		// securecookie treats any non-nil block key as a request for encryption
		cfg.BlockKey = nil
	}
	if n := len(cfg.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes, got %d", ErrInvalidConfig, n)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{cfg: cfg, codec: codec}, nil
}

// ID returns the session id carried by r, if the cookie is present and its
// signature checks out.
func (m *Manager) ID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", false
	}
	var v cookieValue
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &v); err != nil {
		return "", false
	}
	if _, err := uuid.Parse(v.ID); err != nil {
		return "", false
	}
	return v.ID, true
}

// Issue starts a new session and writes its cookie.
func (m *Manager) Issue(w http.ResponseWriter) (string, error) {
	id := uuid.NewString()
	encoded, err := m.codec.Encode(m.cfg.CookieName, cookieValue{ID: id, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		MaxAge:   int(m.cfg.Lifetime.Seconds()),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware makes sure every request has a session id in its context,
// issuing a cookie when the request did not carry a valid one.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.ID(r)
		if !ok {
			var err error
			id, err = m.Issue(w)
			if err != nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

type contextKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the session id stored by Middleware or WithID.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
