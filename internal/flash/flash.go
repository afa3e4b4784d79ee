// Package flash carries one-shot notification messages across a redirect in
// a signed cookie.
package flash

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Success = "success"
	Error   = "error"
)

const (
	defaultCookieName = "flash"
	defaultTTL        = 5 * time.Minute
	issuer            = "tasks-web"
)

var ErrMissingSecret = errors.New("flash: secret is required")

type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

type Config struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type claims struct {
	Messages []Message `json:"msgs"`
	jwt.RegisteredClaims
}

// Store reads and writes flash cookies. It holds no per-request state and is
// safe for concurrent use.
type Store struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func New(cfg Config) (*Store, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	return &Store{
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		now:        time.Now,
	}, nil
}

// Add queues a message for the next request that calls Pop.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, category, text string) error {
	msgs := append(s.read(r), Message{Category: category, Text: text})

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Messages: msgs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.cookie(signed, int(s.ttl.Seconds())))
	return nil
}

// Peek returns the queued messages and leaves the cookie in place. Missing,
// expired and tampered cookies yield no messages.
func (s *Store) Peek(r *http.Request) []Message {
	return s.read(r)
}

// Clear expires the flash cookie if the request carried one.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(s.cookieName); err != nil {
		return
	}
	http.SetCookie(w, s.cookie("", -1))
}

// Pop is Peek followed by Clear.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	msgs := s.Peek(r)
	s.Clear(w, r)
	return msgs
}

func (s *Store) read(r *http.Request) []Message {
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	var cl claims
	_, err = jwt.ParseWithClaims(c.Value, &cl, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil
	}
	return cl.Messages
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
