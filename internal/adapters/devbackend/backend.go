package devbackend

// Package devbackend serves the subset of the reservation API the session core
// uses, from configured users, for local development and end-to-end tests.

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
)

// User is an account known to the dev backend.
type User struct {
	Username string
	Password string
	Email    string
	Role     domainauth.Role
}

// Config controls the dev backend. At least one user is required.
type Config struct {
	Users     []User
	AppConfig model.AppConfig
	TokenTTL  time.Duration // default 8h when zero
	Logger    *slog.Logger
}

// Backend is an http.Handler implementing app/config, user/login and user/check_token.
type Backend struct {
	users  map[string]User
	config model.AppConfig
	ttl    time.Duration
	logger *slog.Logger
	router *mux.Router
	now    func() time.Time

	mu     sync.Mutex
	tokens map[string]issuedToken
}

type issuedToken struct {
	user      User
	expiresAt time.Time
}

// New constructs a dev backend from Config.
func New(cfg Config) (*Backend, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("dev backend: at least one user is required")
	}
	users := make(map[string]User, len(cfg.Users))
	for _, u := range cfg.Users {
		if u.Username == "" || u.Password == "" {
			return nil, errors.New("dev backend: users need a username and password")
		}
		users[u.Username] = u
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Backend{
		users:  users,
		config: cfg.AppConfig,
		ttl:    ttl,
		logger: logger.With("component", "devbackend"),
		now:    time.Now,
		tokens: make(map[string]issuedToken),
	}

	// Full paths on the root router so a method mismatch answers 405.
	r := mux.NewRouter()
	r.HandleFunc("/api/app/config", b.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/user/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/user/check_token", b.handleCheckToken).Methods(http.MethodGet)
	b.router = r
	return b, nil
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// Revoke invalidates a previously issued token.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

func (b *Backend) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "data": b.config})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed login form")
		return
	}
	if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "password" {
		writeDetail(w, http.StatusBadRequest, "Unsupported grant type")
		return
	}

	u, ok := b.users[r.PostForm.Get("username")]
	if !ok || u.Password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusBadRequest, "Incorrect username or password")
		return
	}

	token, err := randomString(32)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	b.mu.Lock()
	b.tokens[token] = issuedToken{user: u, expiresAt: b.now().Add(b.ttl)}
	b.mu.Unlock()

	b.logger.InfoContext(r.Context(), "issued dev token", "username", u.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(b.ttl.Seconds()),
	})
}

func (b *Backend) handleCheckToken(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	b.mu.Lock()
	issued, found := b.tokens[token]
	if found && b.now().After(issued.expiresAt) {
		delete(b.tokens, token)
		found = false
	}
	b.mu.Unlock()

	if !found {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": true,
		"data": map[string]any{
			"email": issued.user.Email,
			"role":  issued.user.Role,
		},
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
