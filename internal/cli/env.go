// Package cli implements the tradejournal subcommands.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tradejournal/internal/app"
	"tradejournal/internal/config"
	"tradejournal/internal/logger"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

const configEnv = "TRADEJOURNAL_CONFIG"

// Env is the state shared by every command of one invocation.
type Env struct {
	Out io.Writer
	Err io.Writer

	ConfigPath string
	Plain      bool

	logFile *os.File
}

func NewEnv(out, errOut io.Writer) *Env {
	return &Env{Out: out, Err: errOut}
}

// SetFlags registers the global flags on the top level flag set.
func (e *Env) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.ConfigPath, "config", "", "Path to the journal config file (default $"+configEnv+")")
	f.BoolVar(&e.Plain, "plain", false, "Print raw markdown instead of rendering it for the terminal")
}

// Register the subcommands.
func Register(c *subcommands.Commander, e *Env) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&infoCmd{env: e}, "")

	c.Register(&addCmd{env: e}, "transactions")
	c.Register(&updateCmd{env: e}, "transactions")
	c.Register(&deleteCmd{env: e}, "transactions")
	c.Register(&importCmd{env: e}, "transactions")
	c.Register(&transactionsCmd{env: e}, "transactions")
	c.Register(&historyCmd{env: e}, "transactions")

	c.Register(&cashAddCmd{env: e}, "cash")
	c.Register(&cashUpdateCmd{env: e}, "cash")
	c.Register(&cashDeleteCmd{env: e}, "cash")
	c.Register(&cashListCmd{env: e}, "cash")
	c.Register(&cashSnapshotCmd{env: e}, "cash")
	c.Register(&cashHistoryCmd{env: e}, "cash")

	c.Register(&positionsCmd{env: e}, "reports")
	c.Register(&snapshotsCmd{env: e}, "reports")
	c.Register(&realizedCmd{env: e}, "reports")
	c.Register(&balanceCmd{env: e}, "reports")

	c.Register(&rebuildCmd{env: e}, "maintenance")
	c.Register(&quoteCmd{env: e}, "prices")
	c.Register(&priceCmd{env: e}, "prices")
}

func (e *Env) configPath() string {
	if p := strings.TrimSpace(e.ConfigPath); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(configEnv))
}

func (e *Env) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(e.configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := e.setupLogOutput(cfg.App.LogPath); err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return cfg, nil
}

// setupLogOutput tees the logger into path. It is a no-op once a file is
// open or when path is empty.
func (e *Env) setupLogOutput(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || e.logFile != nil {
		return nil
	}
	if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	e.logFile = f
	logger.SetOutput(io.MultiWriter(e.Err, f))
	return nil
}

// Close releases the log file, if any.
func (e *Env) Close() error {
	if e.logFile == nil {
		return nil
	}
	logger.SetOutput(e.Err)
	err := e.logFile.Close()
	e.logFile = nil
	return err
}

// open loads the config and builds the app. The caller closes it.
func (e *Env) open() (*app.App, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewApp(cfg)
}

func (e *Env) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(e.Err, err)
	return subcommands.ExitFailure
}

func (e *Env) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, format+"\n", args...)
	return subcommands.ExitUsageError
}

// printMarkdown renders md for the terminal unless plain output was asked.
func (e *Env) printMarkdown(md string) error {
	if e.Plain {
		_, err := io.WriteString(e.Out, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.Out, out)
	return err
}
