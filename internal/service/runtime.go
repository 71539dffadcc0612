package service

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nhle/taskstate/internal/credential"
	"github.com/nhle/taskstate/internal/effects"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/persist"
	"github.com/nhle/taskstate/internal/state"
	"github.com/nhle/taskstate/internal/store"
)

// Runtime owns every long-lived component built from an AppConfig.
type Runtime struct {
	Service *Service
	Store   *state.Store
	Persist *persist.Adapter

	logger *slog.Logger
	runner *effects.Runner
	syncer *persist.Syncer
	closer io.Closer
}

type runtimeOptions struct {
	logger   *slog.Logger
	storage  store.Storage
	identity store.Storage
	now      func() time.Time
	newID    func() string
}

// RuntimeOption adjusts how Open builds the runtime.
type RuntimeOption func(*runtimeOptions)

// WithRuntimeLogger sets the logger shared by all components.
func WithRuntimeLogger(l *slog.Logger) RuntimeOption {
	return func(o *runtimeOptions) { o.logger = l }
}

// WithStorage uses s instead of opening the configured database.
func WithStorage(s store.Storage) RuntimeOption {
	return func(o *runtimeOptions) { o.storage = s }
}

// WithIdentityBackend uses s for the identity key instead of the configured
// backend.
func WithIdentityBackend(s store.Storage) RuntimeOption {
	return func(o *runtimeOptions) { o.identity = s }
}

// WithRuntimeClock overrides time.Now everywhere.
func WithRuntimeClock(now func() time.Time) RuntimeOption {
	return func(o *runtimeOptions) { o.now = now }
}

// WithRuntimeIDGenerator overrides task id generation.
func WithRuntimeIDGenerator(f func() string) RuntimeOption {
	return func(o *runtimeOptions) { o.newID = f }
}

// Open wires storage, persistence, the state container, the write-back
// syncer and the effect runner. Storage that cannot be opened is replaced
// by store.Unavailable, so Open only fails on an invalid config.
func Open(cfg *model.AppConfig, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("opening runtime: %w", err)
	}

	o := runtimeOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rt := &Runtime{logger: o.logger}

	tasks := o.storage
	if tasks == nil {
		tasks = rt.openDatabase(model.ExpandPath(cfg.Storage.Path))
	}
	identity := o.identity
	if identity == nil {
		identity = rt.openIdentity(cfg.Identity, tasks)
	}

	rt.Persist = persist.NewAdapter(tasks,
		persist.WithIdentityStorage(identity),
		persist.WithAdapterLogger(o.logger.With("component", "persist")),
	)
	rt.Store = state.New(state.WithLogger(o.logger.With("component", "state")))

	rt.syncer = persist.NewSyncer(rt.Persist, o.logger.With("component", "syncer"))
	rt.Store.Subscribe(rt.syncer.Listen)

	runnerOpts := []effects.Option{
		effects.WithClock(o.now),
		effects.WithDelays(cfg.Simulation.LoginDelay(), cfg.Simulation.TaskDelay()),
		effects.WithLogger(o.logger.With("component", "effects")),
	}
	if o.newID != nil {
		runnerOpts = append(runnerOpts, effects.WithIDGenerator(o.newID))
	}
	rt.runner = effects.New(rt.Store, rt.Persist, runnerOpts...)
	rt.runner.Start()

	rt.Service = New(rt.Store, o.now)
	return rt, nil
}

func (rt *Runtime) openDatabase(path string) store.Storage {
	db, err := store.NewSQLiteStore(path)
	if err != nil {
		rt.logger.Warn("storage unavailable, continuing without persistence", "path", path, "error", err)
		return store.Unavailable{}
	}
	rt.closer = db
	return db
}

func (rt *Runtime) openIdentity(cfg model.IdentityConfig, fallback store.Storage) store.Storage {
	if cfg.Backend != model.IdentityBackendKeyring {
		return fallback
	}
	ring, err := credential.Open(model.ExpandPath(cfg.KeyringDir))
	if err != nil {
		rt.logger.Warn("keyring unavailable, keeping identity in the database", "error", err)
		return fallback
	}
	return credential.NewKeyringStore(ring)
}

// Wait blocks until in-flight effects and queued writes are done.
func (rt *Runtime) Wait() {
	rt.runner.Wait()
	rt.syncer.Flush()
}

// Close cancels pending effects, finishes queued writes and closes the
// database.
func (rt *Runtime) Close() error {
	rt.runner.Stop()
	rt.syncer.Close()
	if rt.closer == nil {
		return nil
	}
	if err := rt.closer.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	return nil
}
