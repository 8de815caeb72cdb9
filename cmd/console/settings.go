package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
)

type settingsOptions struct {
	File     string
	Template string
	Out      string
	Strict   bool
}

func runSettings(cmdCtx *commandContext, args []string) error {
	opts, err := parseSettingsFlags(args)
	if err != nil {
		return err
	}

	values, err := settings.LoadFile(opts.File)
	if err != nil {
		return err
	}
	tmpl, err := os.ReadFile(opts.Template)
	if err != nil {
		return fmt.Errorf("read template %s: %w", opts.Template, err)
	}

	rendered, missing := settings.Apply(string(tmpl), values)
	if len(missing) > 0 {
		if opts.Strict {
			return fmt.Errorf("template %s has unresolved placeholders: %s", opts.Template, strings.Join(missing, ", "))
		}
		cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "unresolved placeholders left in output",
			"template", opts.Template,
			"keys", missing)
	}

	if opts.Out == "" || opts.Out == "-" {
		return writef(cmdCtx.Out, "%s", rendered)
	}
	if err := os.WriteFile(opts.Out, []byte(rendered), 0o644); err != nil { //nolint:gosec // rendered client settings are not secret
		return fmt.Errorf("write %s: %w", opts.Out, err)
	}
	cmdCtx.Logger.InfoContext(cmdCtx.Ctx, "settings applied",
		"template", opts.Template,
		"out", opts.Out,
		"base_address", values.Deployment().BaseAddress())
	return nil
}

func parseSettingsFlags(args []string) (settingsOptions, error) {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := settingsOptions{}
	fs.StringVar(&opts.File, "file", "settings.sh", "Deployment settings file (KEY=value lines)")
	fs.StringVar(&opts.Template, "template", "", "Template containing {{KEY}} placeholders")
	fs.StringVar(&opts.Out, "out", "-", "Output path, or - for stdout")
	fs.BoolVar(&opts.Strict, "strict", false, "Fail when a placeholder has no value")

	if err := fs.Parse(args); err != nil {
		return settingsOptions{}, err
	}
	if strings.TrimSpace(opts.Template) == "" {
		return settingsOptions{}, errors.New("--template is required")
	}
	return opts, nil
}
