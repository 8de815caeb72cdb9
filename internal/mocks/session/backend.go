package session

// Package session contains simple hand-written test doubles for the session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"encoding/json"
	"sync"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.Backend = (*FakeBackend)(nil)

// FakeBackend answers from an in-memory token table unless a Func override is set.
type FakeBackend struct {
	FetchConfigFunc func(ctx context.Context) (ports.ConfigResponse, error)
	CheckTokenFunc  func(ctx context.Context, token string) (ports.TokenCheck, error)
	LoginFunc       func(ctx context.Context, username, password string) (string, error)

	// ConfigData is returned as the "data" object when FetchConfigFunc is nil.
	ConfigData json.RawMessage

	mu          sync.Mutex
	tokens      map[string]domainauth.Identity
	credentials map[string]string
	calls       map[string]int
}

// NewFakeBackend creates a FakeBackend with no registered users.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		ConfigData:  json.RawMessage(`{"app":{"name":"Test Lab","timezone":"Europe/Helsinki"}}`),
		tokens:      make(map[string]domainauth.Identity),
		credentials: make(map[string]string),
		calls:       make(map[string]int),
	}
}

// AddUser registers credentials and the token Login hands out for them.
func (f *FakeBackend) AddUser(username, password, token string, id domainauth.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials[username+"\x00"+password] = token
	f.tokens[token] = id
}

// RevokeToken makes later CheckToken calls report the token as invalid.
func (f *FakeBackend) RevokeToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

// Calls returns how many times the named method has been invoked.
func (f *FakeBackend) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeBackend) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *FakeBackend) FetchConfig(ctx context.Context) (ports.ConfigResponse, error) {
	f.record("FetchConfig")
	if f.FetchConfigFunc != nil {
		return f.FetchConfigFunc(ctx)
	}
	return ports.ConfigResponse{Status: true, Data: f.ConfigData}, nil
}

func (f *FakeBackend) CheckToken(ctx context.Context, token string) (ports.TokenCheck, error) {
	f.record("CheckToken")
	if f.CheckTokenFunc != nil {
		return f.CheckTokenFunc(ctx, token)
	}
	f.mu.Lock()
	id, ok := f.tokens[token]
	f.mu.Unlock()
	if !ok {
		return ports.TokenCheck{Status: false}, nil
	}
	return ports.TokenCheck{Status: true, Identity: id}, nil
}

func (f *FakeBackend) Login(ctx context.Context, username, password string) (string, error) {
	f.record("Login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, username, password)
	}
	f.mu.Lock()
	token, ok := f.credentials[username+"\x00"+password]
	f.mu.Unlock()
	if !ok {
		return "", apperrors.FromStatus(400, "Incorrect username or password")
	}
	return token, nil
}
