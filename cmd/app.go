// Package cmd implements the psw command line: the API server, database
// maintenance, market data fetching, reports and the assistant.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/psw/config"
	"github.com/etnz/psw/store"
	"go.uber.org/zap"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var envFile = flag.String("env", ".env", "Path to the .env file holding the settings")

// env is what a command needs to run: settings, logger and database.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
}

// setup loads the configuration and opens the database.
func setup() (*env, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return nil, err
	}
	st.PasswordMinLength = cfg.PasswordMinLength
	return &env{cfg: cfg, log: log, store: st}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("cannot close database", zap.Error(err))
	}
	_ = e.log.Sync()
}

// open is setup for commands that only report failures.
func open() (*env, bool) {
	e, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return e, true
}

// migrated opens the database and makes sure the schema is current.
func migrated(ctx context.Context) (*env, bool) {
	e, ok := open()
	if !ok {
		return nil, false
	}
	if err := e.store.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		e.Close()
		return nil, false
	}
	return e, true
}

// renderMarkdown renders markdown for the terminal.
func renderMarkdown(md string) (string, error) {
	return glamour.Render(md, "auto")
}

// printMarkdown prints markdown to stdout, raw when it cannot be rendered.
func printMarkdown(md string) {
	out, err := renderMarkdown(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// formatFlag registers the -format flag shared by the reports.
func formatFlag(f *flag.FlagSet, p *string) {
	f.StringVar(p, "format", "sv", "Number and date format: sv, en or de")
}

// failf prints an error the way every command does.
func failf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+strings.TrimSuffix(format, "\n")+"\n", args...)
}
