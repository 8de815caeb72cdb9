package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/router"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/store"
)

// passwordEnv lets scripts avoid passing the password on the command line.
const passwordEnv = "COTF_PASSWORD"

type bootOptions struct {
	Path    string
	Timeout time.Duration
}

type loginOptions struct {
	Username string
	Password string
	Path     string
	Timeout  time.Duration
}

type navigateOptions struct {
	Username string
	Password string
	Paths    []string
	Timeout  time.Duration
}

type navigationOutcome struct {
	Requested string
	Committed string
	Outcome   string
}

func runBoot(cmdCtx *commandContext, args []string) error {
	opts, err := parseBootFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	app, closeApp, err := openApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp()

	res, loc, err := app.Boot(ctx, opts.Path)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	if err := writef(cmdCtx.Out, "Initialize: %s\n\n", describeResult(res)); err != nil {
		return err
	}
	return printState(cmdCtx.Out, app.Store.Snapshot(), loc)
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	app, closeApp, err := openApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp()

	if _, _, err := app.Boot(ctx, router.PathLogin); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	res := app.Store.Login(ctx, opts.Username, opts.Password)
	if !res.Success {
		return fmt.Errorf("login failed: %s", res.Message)
	}
	if err := app.Router.Push(ctx, opts.Path); err != nil {
		return fmt.Errorf("navigate to %s: %w", opts.Path, err)
	}

	if err := writef(cmdCtx.Out, "Login: %s\n\n", describeResult(res)); err != nil {
		return err
	}
	return printState(cmdCtx.Out, app.Store.Snapshot(), app.Router.Current())
}

func runLogout(cmdCtx *commandContext, args []string) error {
	opts, err := parseBootFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	app, closeApp, err := openApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp()

	if _, _, err := app.Boot(ctx, router.PathLogin); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	res := app.Store.LogoutUser(ctx)
	if err := app.Router.Push(ctx, router.PathLogin); err != nil {
		return fmt.Errorf("navigate to login: %w", err)
	}

	if err := writef(cmdCtx.Out, "Logout: %s\n\n", describeResult(res)); err != nil {
		return err
	}
	return printState(cmdCtx.Out, app.Store.Snapshot(), app.Router.Current())
}

func runNavigate(cmdCtx *commandContext, args []string) error {
	opts, err := parseNavigateFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	app, closeApp, err := openApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp()

	if _, _, err := app.Boot(ctx, router.PathLogin); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	if opts.Username != "" {
		if res := app.Store.Login(ctx, opts.Username, opts.Password); !res.Success {
			return fmt.Errorf("login failed: %s", res.Message)
		}
	}

	outcomes, err := navigateAll(ctx, app.Router, opts.Paths)
	if err != nil {
		return err
	}
	app.Interceptor.Wait()

	if err := printOutcomes(cmdCtx.Out, outcomes); err != nil {
		return err
	}
	if err := writeln(cmdCtx.Out); err != nil {
		return err
	}
	return printState(cmdCtx.Out, app.Store.Snapshot(), app.Router.Current())
}

// navigator is the subset of the router navigateAll drives.
type navigator interface {
	Navigate(ctx context.Context, path string) (router.Location, error)
}

// navigateAll starts every navigation at once. Superseded and duplicate
// navigations are reported as outcomes; any other error aborts.
func navigateAll(ctx context.Context, nav navigator, paths []string) ([]navigationOutcome, error) {
	outcomes := make([]navigationOutcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			loc, err := nav.Navigate(gctx, p)
			out := navigationOutcome{Requested: p, Committed: loc.Path}
			switch {
			case err == nil:
				out.Outcome = "committed"
			case errors.Is(err, router.ErrNavigationCancelled):
				out.Outcome, out.Committed = "cancelled", ""
			case errors.Is(err, router.ErrNavigationDuplicated):
				out.Outcome = "duplicate"
			default:
				return fmt.Errorf("navigate to %s: %w", p, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func runRoutes(cmdCtx *commandContext, _ []string) error {
	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	if err := writef(tw, "PATH\tNAME\tAUTH\tADMIN\n"); err != nil {
		return err
	}
	for _, p := range routePaths("", router.DefaultRoutes()) {
		loc := table.Resolve(p)
		if err := writef(tw, "%s\t%s\t%t\t%t\n", loc.Path, loc.Name, loc.RequiresAuth(), loc.RequiresAdmin()); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func routePaths(prefix string, routes []router.Route) []string {
	var out []string
	for _, r := range routes {
		full := router.NormalizePath(prefix + "/" + r.Path)
		if r.Name != "" {
			out = append(out, full)
		}
		out = append(out, routePaths(full, r.Children)...)
	}
	return out
}

func describeResult(res store.Result) string {
	status := "ok"
	if !res.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s (%s)", status, res.Message)
}

func printState(w io.Writer, st store.State, loc router.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"App", st.AppName()},
		{"Timezone", st.AppTimezone()},
		{"Config loaded", strconv.FormatBool(st.IsConfigLoaded())},
	}
	if st.HasConfigError() {
		rows = append(rows, [2]string{"Config error", st.ConfigErrorMessage()})
	}
	rows = append(rows, [2]string{"Logged in", strconv.FormatBool(st.IsLoggedIn())})
	if st.IsLoggedIn() {
		user := st.User()
		rows = append(rows,
			[2]string{"Email", user.Email},
			[2]string{"Role", string(user.Role)},
		)
	}
	rows = append(rows, [2]string{"Location", fmt.Sprintf("%s (%s)", loc.Path, loc.Name)})
	if msg := st.Snackbar(); msg.Visible {
		rows = append(rows, [2]string{"Message", msg.Text})
	}

	for _, row := range rows {
		if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printOutcomes(w io.Writer, outcomes []navigationOutcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "REQUESTED\tOUTCOME\tCOMMITTED\n"); err != nil {
		return err
	}
	for _, o := range outcomes {
		committed := o.Committed
		if committed == "" {
			committed = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\n", o.Requested, o.Outcome, committed); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func parseBootFlags(args []string) (bootOptions, error) {
	fs := flag.NewFlagSet("boot", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := bootOptions{}
	fs.StringVar(&opts.Path, "path", router.PathLogin, "Path to navigate to once initialized")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return bootOptions{}, err
	}
	if opts.Timeout <= 0 {
		return bootOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseLoginFlags(args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := loginOptions{}
	fs.StringVar(&opts.Username, "username", "", "Account username")
	fs.StringVar(&opts.Password, "password", "", "Account password (defaults to $"+passwordEnv+")")
	fs.StringVar(&opts.Path, "path", router.PathUserReservations, "Path to navigate to after login")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	if opts.Password == "" {
		opts.Password = os.Getenv(passwordEnv)
	}
	if strings.TrimSpace(opts.Username) == "" || opts.Password == "" {
		return loginOptions{}, errors.New("--username and --password (or $" + passwordEnv + ") are required")
	}
	if opts.Timeout <= 0 {
		return loginOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseNavigateFlags(args []string) (navigateOptions, error) {
	fs := flag.NewFlagSet("navigate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := navigateOptions{}
	fs.StringVar(&opts.Username, "username", "", "Log in as this user before navigating")
	fs.StringVar(&opts.Password, "password", "", "Password for --username (defaults to $"+passwordEnv+")")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return navigateOptions{}, err
	}
	opts.Paths = fs.Args()
	if len(opts.Paths) == 0 {
		return navigateOptions{}, errors.New("at least one path is required")
	}
	if opts.Username != "" && opts.Password == "" {
		opts.Password = os.Getenv(passwordEnv)
	}
	if opts.Timeout <= 0 {
		return navigateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}
