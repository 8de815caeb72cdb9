// Package mocks provides mock implementations of the session core ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockBackend(ctrl)
//	backend.EXPECT().FetchConfig(gomock.Any()).Return(ports.ConfigResponse{Status: true}, nil)
package mocks

// Generate mock for Storage interface from internal/ports package.
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=storage_mock.go github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports Storage

// Generate mock for Backend interface from internal/ports package.
// FetchConfig, CheckToken, Login
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=backend_mock.go github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports Backend
