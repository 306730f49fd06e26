// Package app assembles the components and owns process lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"classhub/internal/api"
	"classhub/internal/attendance"
	"classhub/internal/breakout"
	"classhub/internal/bridge"
	"classhub/internal/config"
	"classhub/internal/hub"
	"classhub/internal/room"
	"classhub/internal/session"
	"classhub/internal/store"
	"classhub/internal/ws"
)

// Application wires the real-time core to its two transports. Construction
// follows dependency order: store -> bridge -> registry -> hub -> domain
// components -> handlers -> HTTP server. The hub is built once here and
// injected; no component looks it up from ambient state.
type Application struct {
	log        *slog.Logger
	cfg        *config.Config
	store      *store.Store
	bridge     *bridge.Bridge
	hub        *hub.Hub
	httpServer *http.Server
}

// New builds the application from validated configuration.
func New(log *slog.Logger, cfg *config.Config) (*Application, error) {
	st, err := store.Open(log, cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	b := bridge.New(log)
	registry := room.NewRegistry()
	h := hub.New(log, registry)

	sessions := session.NewManager(log, st, h, b)
	att := attendance.NewSynchronizer(log, h, b)
	breakouts := breakout.NewOrchestrator(log, h)

	wsHandler := ws.NewHandler(log, ws.Config{
		ReadTimeout:     cfg.WS.ReadTimeout,
		WriteTimeout:    cfg.WS.WriteTimeout,
		PingInterval:    cfg.WS.PingInterval,
		SendBuffer:      cfg.WS.SendBuffer,
		EventsPerMinute: cfg.WS.EventsPerMinute,
	}, h, breakouts)

	apiServer := api.NewServer(log, sessions, att, b, h)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		log:        log,
		cfg:        cfg,
		store:      st,
		bridge:     b,
		hub:        h,
		httpServer: httpServer,
	}, nil
}

// Start runs the HTTP server and returns once it is accepting connections
// or has failed to start.
func (a *Application) Start(ctx context.Context) error {
	a.log.Info("starting classhub", slog.String("addr", a.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains the HTTP server, then closes the store. In-flight push
// streams end when their client contexts are cancelled by the drain.
func (a *Application) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		// Past the deadline: force-close remaining connections (long-lived
		// WebSocket and SSE streams do not drain on their own).
		if closeErr := a.httpServer.Close(); closeErr != nil {
			a.log.Warn("forced close failed", slog.Any("error", closeErr))
		}
	}

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
