package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/config"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/devbackend"
	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
)

// DevBackendServer is the in-process API used in mock backend mode.
type DevBackendServer struct {
	Backend *devbackend.Backend
	server  *http.Server
	addr    string
	done    chan struct{}
}

// BaseAddress is the API base address the client should use, e.g. "http://127.0.0.1:41234/api/".
func (s *DevBackendServer) BaseAddress() string {
	return "http://" + s.addr + "/api/"
}

// Shutdown stops the server and waits for Serve to return.
func (s *DevBackendServer) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	<-s.done
	return err
}

// DevBackendConfig contains configuration for the dev backend server.
type DevBackendConfig struct {
	Backend    config.BackendConfig
	Deployment config.DeploymentConfig
	Logger     *slog.Logger
}

// StartDevBackend serves the dev backend on a loopback port chosen by the OS.
func StartDevBackend(ctx context.Context, cfg DevBackendConfig) (*DevBackendServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dev := cfg.Backend.DevAuth

	appCfg := model.DefaultAppConfig()
	appCfg.App = model.AppInfo{
		Name:         cfg.Deployment.AppName,
		Timezone:     cfg.Deployment.Timezone,
		ContactEmail: cfg.Deployment.ContactEmail,
	}

	backend, err := devbackend.New(devbackend.Config{
		Users: []devbackend.User{
			{Username: dev.AdminUsername, Password: dev.AdminPassword, Email: dev.AdminEmail, Role: domainauth.RoleAdmin},
			{Username: dev.UserUsername, Password: dev.UserPassword, Email: dev.UserEmail, Role: domainauth.RoleUser},
		},
		AppConfig: appCfg,
		TokenTTL:  dev.TokenTTL,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build dev backend: %w", err)
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen dev backend: %w", err)
	}

	s := &DevBackendServer{
		Backend: backend,
		server: &http.Server{
			Handler:           backend,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr: ln.Addr().String(),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if serveErr := s.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("dev backend server error", "error", serveErr)
		}
	}()

	logger.WarnContext(ctx, "serving mock backend; do not use in production", "addr", s.addr)
	return s, nil
}
