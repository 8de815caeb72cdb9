package ports

// Package ports defines interfaces (hexagonal ports) for the client session core.
// Implementations live in internal/adapters and internal/apiclient; orchestration in internal/store.

import (
	"context"
	"encoding/json"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
)

// Storage is durable key/value storage for the session snapshot.
// Get returns an error satisfying apperrors.IsNotFound when the key is absent.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ConfigResponse is the envelope returned by the configuration endpoint.
type ConfigResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TokenCheck is the answer of the token-check endpoint.
// Status=false is an explicit invalidation by the server.
type TokenCheck struct {
	Status   bool
	Identity domainauth.Identity
}

// Backend is the subset of the reservation API the session core depends on.
// Non-2xx answers are returned as *apperrors.AppError carrying the HTTP status.
type Backend interface {
	// FetchConfig loads the public application configuration.
	FetchConfig(ctx context.Context) (ConfigResponse, error)

	// CheckToken verifies a login token and returns the identity it belongs to.
	CheckToken(ctx context.Context, token string) (TokenCheck, error)

	// Login exchanges username and password for a login token.
	Login(ctx context.Context, username, password string) (string, error)
}
