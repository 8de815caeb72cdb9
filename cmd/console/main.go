package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/config"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const defaultCommandTimeout = 30 * time.Second

func main() {
	logger := bootstrap.InitLogger(os.Stderr)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	bootstrap.SetLogLevel(cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"boot": {
			name:        "boot",
			description: "Initialize the session (config, stored token) and navigate to a path",
			run:         runBoot,
		},
		"login": {
			name:        "login",
			description: "Log in with username and password and persist the session",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Clear the session and remove the stored snapshot",
			run:         runLogout,
		},
		"navigate": {
			name:        "navigate",
			description: "Boot, then run one or more navigations concurrently and report the outcome",
			run:         runNavigate,
		},
		"routes": {
			name:        "routes",
			description: "List the route table with its access requirements",
			run:         runRoutes,
		},
		"settings": {
			name:        "settings",
			description: "Apply a deployment settings file to a {{KEY}} template",
			run:         runSettings,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: console <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-12s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

// openApp wires the session core and guarantees it is closed by the returned func.
func openApp(cmdCtx *commandContext) (*bootstrap.App, func(), error) {
	app, err := bootstrap.NewApp(cmdCtx.Ctx, bootstrap.AppOptions{
		Config: cmdCtx.Config,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build app: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmdCtx.Ctx), 5*time.Second)
		defer cancel()
		if closeErr := app.Close(ctx); closeErr != nil {
			cmdCtx.Logger.Warn("close app failed", "error", closeErr)
		}
	}
	return app, closeFn, nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
