package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"botboard/internal/dashboard"
	"botboard/internal/metrics"
	"botboard/internal/poller"
	"botboard/internal/snapshot"
)

// Serve runs the dashboard service: restore the cached snapshot if there is
// one, start polling the bot, serve the UI and block until a signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := a.openStore()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		store = nil
	}
	if store == nil {
		a.Logger.Warn().Msg("data path not configured; snapshot cache disabled")
	} else {
		defer store.Close()
	}

	holder := snapshot.NewHolder()
	if store != nil {
		cached, err := store.LoadSnapshot()
		switch {
		case err != nil:
			a.Logger.Warn().Err(err).Msg("failed to load cached snapshot")
		case cached != nil:
			holder.Set(cached)
			a.Logger.Info().
				Time("fetchedAt", cached.FetchedAt).
				Dur("age", time.Since(cached.FetchedAt)).
				Int("sessions", len(cached.Sessions)).
				Msg("restored cached snapshot, serving stale data until first refresh")
		}
	}

	client := a.newClient()
	mw := metrics.NewWrapper(metrics.New())

	// Interface values must stay nil when the store is absent; a typed nil
	// would defeat the callee's nil checks.
	var detailCache dashboard.DetailCache
	var snapCache poller.Cache
	if store != nil {
		detailCache = store
		snapCache = store
	}

	server := dashboard.NewServer(holder, client, dashboard.Options{
		Port:    a.Config.ListenPort,
		Cache:   detailCache,
		Metrics: mw,
	}, a.Logger)

	p := poller.New(client, holder, poller.Options{
		Interval: a.Config.PollInterval,
		Timeout:  a.Config.RESTTimeout,
		Cache:    snapCache,
		Metrics:  mw,
		OnApply:  server.OnSnapshot,
	}, a.Logger)

	if err := server.Start(); err != nil {
		return err
	}
	if err := p.Start(); err != nil {
		server.Stop()
		return err
	}

	a.Logger.Info().
		Str("botBaseURL", a.Config.BotBaseURL).
		Int("port", a.Config.ListenPort).
		Msg("botboard is up")

	<-ctx.Done()
	a.Logger.Info().Msg("shutdown signal received")

	p.Stop()
	if err := server.Stop(); err != nil {
		return err
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}
