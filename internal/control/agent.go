// Package control wires the agent together and manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/stellar/go/keypair"

	"github.com/aqslabs/forwarder/internal/core/amount"
	"github.com/aqslabs/forwarder/internal/core/config"
	"github.com/aqslabs/forwarder/internal/core/cursor"
	"github.com/aqslabs/forwarder/internal/forwarding/dispatch"
	"github.com/aqslabs/forwarder/internal/forwarding/filter"
	"github.com/aqslabs/forwarder/internal/forwarding/ops"
	"github.com/aqslabs/forwarder/internal/forwarding/pipeline"
	"github.com/aqslabs/forwarder/internal/forwarding/result"
	"github.com/aqslabs/forwarder/internal/infra/stellar"
	"github.com/aqslabs/forwarder/internal/infra/storage"
)

// Agent is the assembled forwarding application.
type Agent struct {
	cfg       *config.AppConfig
	pipeline  *pipeline.Pipeline
	opsServer *ops.Server
	store     io.Closer // nil for the file backend
	log       *slog.Logger
}

// NewAgent builds the agent from configuration. Everything is constructed
// here once and passed down explicitly; there are no package-level
// singletons holding keys or connections.
func NewAgent(cfg *config.AppConfig) (*Agent, error) {
	// Receiver must be a valid public address before anything is sent to it.
	if _, err := keypair.ParseAddress(cfg.Agent.ReceiverAddress); err != nil {
		return nil, fmt.Errorf("invalid receiver address: %w", err)
	}

	gw, err := stellar.NewGateway(stellar.Config{
		HorizonURL:        cfg.Horizon.URL,
		NetworkPassphrase: cfg.Horizon.NetworkPassphrase,
		Timeout:           cfg.Horizon.Timeout,
		SubmitTimeout:     cfg.Agent.SubmitTimeout,
	}, cfg.Agent.DistributorSecretKey)
	if err != nil {
		return nil, err
	}
	distributor := gw.Address()

	store, closer, err := newCursorStore(cfg, distributor)
	if err != nil {
		return nil, err
	}
	tracker := cursor.NewTracker(store)

	calc, err := amount.NewCalculator(cfg.Agent.SendFraction)
	if err != nil {
		return nil, err
	}

	minIncoming, err := amount.ParseLumens(cfg.Agent.MinIncoming)
	if err != nil {
		return nil, fmt.Errorf("invalid min_incoming: %w", err)
	}

	results, err := result.New(cfg.Agent.LogDir)
	if err != nil {
		return nil, err
	}

	pl := pipeline.New(pipeline.Config{
		Account:  distributor,
		Receiver: cfg.Agent.ReceiverAddress,
		Gateway:  gw,
		Tracker:  tracker,
		Filter: filter.New(filter.Config{
			Distributor: distributor,
			MinIncoming: minIncoming,
		}),
		Calculator: calc,
		Dispatcher: dispatch.New(dispatch.Config{
			Source:      distributor,
			FeeFloor:    cfg.Agent.FeeFloor,
			FeeCap:      cfg.Agent.FeeCap,
			MaxAttempts: cfg.Agent.MaxAttempts,
		}, gw),
		Results: results,
	})

	return &Agent{
		cfg:       cfg,
		pipeline:  pl,
		opsServer: ops.NewServer(pl, cfg.Server.Port),
		store:     closer,
		log:       slog.Default(),
	}, nil
}

// newCursorStore selects the cursor backend.
func newCursorStore(cfg *config.AppConfig, distributor string) (cursor.Store, io.Closer, error) {
	switch cfg.Cursor.Backend {
	case config.CursorBackendRedis:
		s, err := storage.NewRedisStore(cfg.Redis, distributor)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init redis cursor store: %w", err)
		}
		slog.Info("Using Redis cursor store")
		return s, s, nil

	case config.CursorBackendPostgres:
		s, err := storage.NewPostgresStore(context.Background(), cfg.Database, distributor)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init postgres cursor store: %w", err)
		}
		slog.Info("Using PostgreSQL cursor store")
		return s, s, nil

	default:
		slog.Info("Using file cursor store", "path", cfg.Cursor.Path)
		return storage.NewFileStore(cfg.Cursor.Path), nil, nil
	}
}

// Start starts the ops server and the forwarding pipeline.
func (a *Agent) Start(ctx context.Context) error {
	a.log.Info("Forwarding agent started",
		"receiver", a.cfg.Agent.ReceiverAddress,
		"fraction", a.cfg.Agent.SendFraction,
		"horizon", a.cfg.Horizon.URL)

	go func() {
		if err := a.opsServer.Start(); err != nil {
			a.log.Error("Ops server failed", "error", err)
		}
	}()

	go func() {
		if err := a.pipeline.Start(ctx); err != nil {
			a.log.Error("Pipeline failed", "error", err)
		}
	}()

	return nil
}

// Stop stops the agent.
func (a *Agent) Stop(ctx context.Context) error {
	a.log.Info("Stopping forwarding agent...")

	a.pipeline.Stop()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("Failed to close cursor store", "error", err)
		}
	}

	return a.opsServer.Stop(ctx)
}
