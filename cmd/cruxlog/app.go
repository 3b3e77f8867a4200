// Shared wiring for cruxlog CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cruxlog/cruxlog/internal/config"
	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/remote/postgres"
	"github.com/cruxlog/cruxlog/internal/remote/s3blob"
	"github.com/cruxlog/cruxlog/internal/services"
	"github.com/cruxlog/cruxlog/internal/store"
	"github.com/cruxlog/cruxlog/internal/sync"
)

// application bundles the config, local store and services every command
// needs. It is initialized once by PersistentPreRunE.
type application struct {
	cfg   *config.Config
	log   logging.Logger
	store *store.Store

	profiles *services.ProfileService
	follows  *services.FollowService
	sessions *services.SessionService
	climbs   *services.ClimbService
	photos   *services.PhotoService
}

var app *application

// initApp loads config and opens the local store.
func initApp(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	st, err := store.Open(cmd.Context(), cfg.LocalDBPath)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}

	app = &application{
		cfg:      cfg,
		log:      log,
		store:    st,
		profiles: services.NewProfileService(st.DB, log),
		follows:  services.NewFollowService(st.DB, log),
		sessions: services.NewSessionService(st.DB, log),
		climbs:   services.NewClimbService(st.DB, log),
		photos:   services.NewPhotoService(st.DB, log),
	}
	return nil
}

// closeApp releases the local store.
func closeApp() error {
	if app != nil && app.store != nil {
		return app.store.Close()
	}
	return nil
}

// buildCoordinator connects to the remote store and wires the sync
// coordinator over it. The returned cleanup closes the remote connection.
func (a *application) buildCoordinator(ctx context.Context) (*sync.Coordinator, func(), error) {
	adapters, err := postgres.Connect(ctx, a.cfg.RemoteDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect remote store: %w", err)
	}

	var blobs sync.BlobStore
	if a.cfg.S3Bucket != "" {
		s3store, err := s3blob.New(ctx, a.cfg.S3Region, a.cfg.S3Bucket, a.cfg.S3BaseEndpoint)
		if err != nil {
			_ = adapters.Close()
			return nil, nil, fmt.Errorf("connect object storage: %w", err)
		}
		blobs = s3store
	}

	max := a.cfg.MaxSyncAttempts
	bindings := []sync.Binding{
		sync.NewProfileBinding(a.store.Profiles, adapters.Profiles, max),
		sync.NewSessionBinding(a.store.Sessions, adapters.Sessions, max),
		sync.NewClimbBinding(a.store.Climbs, adapters.Climbs, max),
		sync.NewAttemptBinding(a.store.Attempts, adapters.Attempts, max),
		sync.NewPhotoBinding(a.store.Photos, adapters.Photos, blobs, max),
		sync.NewFollowBinding(a.store.Follows, adapters.Follows, max),
	}

	coord := sync.New(bindings, a.store.Meta, a.log, sync.Options{
		Interval:     a.cfg.SyncInterval,
		PullInterval: a.cfg.PullInterval,
		CallTimeout:  a.cfg.CallTimeout,
		Workers:      a.cfg.SyncWorkers,
	})

	cleanup := func() { _ = adapters.Close() }
	return coord, cleanup, nil
}
