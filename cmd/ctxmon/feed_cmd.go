package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/feed"
	"github.com/asheshgoplani/ctxmon/internal/logging"
)

// runFeed streams usage snapshots until the process is killed. One JSON
// line per snapshot on stdout; optionally the same stream over WebSocket.
// SIGHUP forces an immediate refresh.
func runFeed(args []string) int {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file override")
	interval := fs.Duration("interval", feed.DefaultInterval, "poll interval")
	listen := fs.String("listen", "", "serve snapshots on ws://<addr>/ws/feed")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, source := config.Resolve(*configPath)
	logging.Init(logging.Config{Enabled: cfg.LogEnabled, FilePath: cfg.LogFile})
	defer logging.Shutdown()
	if source != "" {
		mainLog.Debug("config_loaded", slog.String("path", source))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := feed.New(cfg, feed.Options{Interval: *interval})

	refreshCh := make(chan os.Signal, 1)
	signal.Notify(refreshCh, syscall.SIGHUP)

	var server *feed.Server
	g, ctx := errgroup.WithContext(ctx)

	if *listen != "" {
		server = feed.NewServer()
		httpServer := &http.Server{Addr: *listen, Handler: server.Handler()}
		g.Go(func() error {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		f.Run(ctx)
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-refreshCh:
				f.Refresh()
			}
		}
	})

	g.Go(func() error {
		enc := json.NewEncoder(os.Stdout)
		for u := range f.Updates() {
			if err := enc.Encode(u); err != nil {
				return err
			}
			if server != nil {
				server.Broadcast(u)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		mainLog.Error("feed_stopped", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
