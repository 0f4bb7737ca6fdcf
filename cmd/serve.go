package cmd

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/psw/web"
	"github.com/go-fuego/fuego"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the JSON API and the rulebook" }
func (*serveCmd) Usage() string {
	return `serve [-addr host:port]

Migrate the database and serve the API until interrupted. The address
defaults to APP_ADDR.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, overrides APP_ADDR")
}

// sweepEvery is the period of the expired sessions cleanup.
const sweepEvery = 5 * time.Minute

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()

	addr := c.addr
	if addr == "" {
		addr = e.cfg.AppAddr
	}
	s := web.NewServer(e.store, e.log, e.cfg.SessionTimeout(), e.cfg.MaxLoginAttempts)
	s.PageSize = e.cfg.ItemsPerPage
	s.SecureCookies = !e.cfg.Development()
	srv := s.Routes(fuego.WithAddr(addr))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sessions.Sweep(); n > 0 {
					e.log.Debug("expired sessions removed", zap.Int("count", n))
				}
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		e.log.Info("listening", zap.String("addr", addr), zap.String("env", e.cfg.AppEnv))
		errc <- srv.Run()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			failf("server stopped: %v", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		e.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			failf("shutdown: %v", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
