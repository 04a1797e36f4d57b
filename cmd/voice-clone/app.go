package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone/internal/blob"
	"github.com/book-expert/voice-clone/internal/config"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/metrics"
	"github.com/book-expert/voice-clone/internal/notify"
	"github.com/book-expert/voice-clone/internal/objectstore"
	"github.com/book-expert/voice-clone/internal/store"
	"github.com/book-expert/voice-clone/internal/studio"
	"github.com/book-expert/voice-clone/internal/tts"
	"github.com/nats-io/nats.go"
)

const (
	bootstrapLogFile = "voice-clone-bootstrap.log"
	serviceLogFile   = "voice-clone.log"
)

// app holds everything a subcommand needs. Close releases it.
type app struct {
	cfg            *config.Config
	log            *logger.Logger
	store          *store.Store
	blobs          core.BlobStore
	metrics        *metrics.Metrics
	service        *studio.Service
	natsConnection *nats.Conn
}

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

// loadConfig runs the bootstrap sequence: a temporary logger while the
// configuration loads, then the final logger in the configured directory.
func loadConfig(opts *rootOptions) (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		closeErr := bootstrapLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing bootstrap logger: %v\n", closeErr)
		}
	}()

	bootstrapLog.Info("Bootstrap logger created.")

	cfg, err := config.Load(opts.configPath, opts.envFile, bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, serviceLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return nil, nil, err
	}

	return cfg, finalLog, nil
}

// openStore opens the database and applies the schema.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Store, error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	err = db.Migrate(ctx)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	log.Info("Database ready at %s", cfg.Database.Path)

	return db, nil
}

// newApp wires the full service graph.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:            cfg,
		log:            log,
		store:          nil,
		blobs:          nil,
		metrics:        metrics.New(),
		service:        nil,
		natsConnection: nil,
	}

	err = a.wire(ctx)
	if err != nil {
		a.Close()

		return nil, err
	}

	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	db, err := openStore(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}

	a.store = db

	if a.cfg.NATS.URL != "" {
		a.natsConnection, err = nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", a.cfg.NATS.URL, err)
		}

		a.log.Info("Connected to NATS at %s", a.cfg.NATS.URL)
	}

	a.blobs, err = a.newBlobStore()
	if err != nil {
		return err
	}

	var notifier core.Notifier = notify.Noop{}
	if a.natsConnection != nil {
		notifier = notify.NewNatsNotifier(a.natsConnection, a.cfg.NATS.GenerationCreatedSubject)
	}

	timeout := time.Duration(a.cfg.Provider.TimeoutSeconds) * time.Second
	synthesizer := a.metrics.InstrumentSynthesizer(tts.NewClient(a.cfg.Provider.BaseURL, timeout))

	a.service = studio.NewService(a.store, a.blobs, synthesizer, notifier, a.log)

	return nil
}

func (a *app) newBlobStore() (core.BlobStore, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageBackendNATS:
		jetstreamContext, err := a.natsConnection.JetStream()
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}

		objectStore, err := objectstore.New(jetstreamContext, a.cfg.NATS.AudioObjectStoreBucket)
		if err != nil {
			return nil, err
		}

		a.log.Info("Storing audio in NATS object store %s", a.cfg.NATS.AudioObjectStoreBucket)

		return objectStore, nil
	default:
		filesystemStore, err := blob.NewFilesystemStore(a.cfg.Storage.Root, a.log)
		if err != nil {
			return nil, err
		}

		a.log.Info("Storing audio under %s", filesystemStore.Root())

		return filesystemStore, nil
	}
}

// Close releases the database, the NATS connection and the logger.
func (a *app) Close() {
	if a.natsConnection != nil {
		a.natsConnection.Close()
	}

	if a.store != nil {
		closeErr := a.store.Close()
		if closeErr != nil {
			a.log.Error("Failed to close database: %v", closeErr)
		}
	}

	closeErr := a.log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}
