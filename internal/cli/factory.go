package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/capstone-ai/dna"
	"github.com/capstone-ai/dna/internal/config"
	"github.com/capstone-ai/dna/internal/metrics"
	"github.com/capstone-ai/dna/pkg/adapters/file"
	"github.com/capstone-ai/dna/pkg/adapters/memory"
	"github.com/capstone-ai/dna/pkg/adapters/openai"
	"github.com/capstone-ai/dna/pkg/adapters/redis"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/dispatch"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/executor"
	"github.com/capstone-ai/dna/pkg/observability"
	"github.com/capstone-ai/dna/pkg/orchestrator"
	"github.com/capstone-ai/dna/pkg/persistence/middleware"
	"github.com/capstone-ai/dna/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// App is a fully wired assistant plus the resources it owns.
type App struct {
	Assistant *dna.Assistant
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	closers   []func() error
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build wires an assistant from configuration. A nil completer selects the
// OpenAI-compatible endpoint named by cfg.LLM.
func Build(cfg config.Config, completer ports.Completer, logger *slog.Logger) (*App, error) {
	app := &App{Metrics: metrics.New(), Logger: logger}

	if completer == nil {
		completer = openai.New(openai.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLM.Timeout,
		}, openai.WithLogger(logger))
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		extra, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(extra)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", config.ErrInvalid, cfg.Timezone, err)
	}

	opts := []dna.Option{
		dna.WithCatalog(cat),
		dna.WithEndpoints(dispatch.Endpoints{
			RoleChange:  cfg.Endpoints.RoleChange,
			TodoCreate:  cfg.Endpoints.TodoCreate,
			MeetingChat: cfg.Endpoints.MeetingChat,
			MeetingSave: cfg.Endpoints.MeetingSave,
		}),
		dna.WithHTTPBackend(executor.NewHTTP(
			executor.WithTimeout(cfg.HTTP.Timeout),
			executor.WithHeaders(cfg.HTTP.Headers),
			executor.WithHTTPLogger(logger),
		)),
		dna.WithClarifyTTL(cfg.Clarify.TTL),
		dna.WithLocation(loc),
		dna.WithLifecycleHooks(app.Metrics.Hooks()),
		dna.WithLifecycleHooks(observability.LogHooks(logger)),
		dna.WithLogger(logger),
		dna.WithOrchestratorOptions(
			orchestrator.WithEnv(cfg.Env),
			orchestrator.WithMaxMessages(cfg.Memory.MaxMessages),
			orchestrator.WithChatMaxTokens(cfg.LLM.MaxTokens),
		),
	}

	if cfg.DispatchFile != "" {
		table, err := dispatch.LoadFile(cfg.DispatchFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dna.WithDispatchTable(table))
	}

	if cfg.Endpoints.RemoteCall != "" {
		opts = append(opts, dna.WithRemoteBackend(executor.NewRemote(cfg.Endpoints.RemoteCall,
			executor.WithAuth(cfg.Remote.AuthHeader, cfg.Remote.AuthToken),
			executor.WithRemoteTimeout(cfg.HTTP.Timeout),
			executor.WithRemoteLogger(logger),
		)))
	}

	storeOpts, err := app.stores(cfg.Store)
	if err != nil {
		return nil, err
	}
	opts = append(opts, storeOpts...)

	assistant, err := dna.New(completer, opts...)
	if err != nil {
		return nil, err
	}
	app.Assistant = assistant

	logger.Info("assistant ready",
		"tools", cat.Len(),
		"store", cfg.Store.Driver,
		"remote_call", cfg.Endpoints.RemoteCall != "",
	)
	return app, nil
}

func (a *App) stores(cfg config.Store) ([]dna.Option, error) {
	var key []byte
	if cfg.EncryptionKey != "" {
		var err error
		if key, err = middleware.DecodeKey(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("%w: store.encryption_key: %v", config.ErrInvalid, err)
		}
	}

	var opts []dna.Option
	var client *backend.Client
	switch cfg.Driver {
	case config.DriverMemory, config.DriverFile:
	case config.DriverRedis:
		client = redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, client.Close)
		opts = append(opts, dna.WithLocker(redis.NewLocker(client, cfg.Prefix)))
	default:
		return nil, fmt.Errorf("%w: unknown store.driver %q", config.ErrInvalid, cfg.Driver)
	}

	transcripts, err := newStore[*domain.Transcript](cfg, client, "transcript:", key)
	if err != nil {
		return nil, err
	}
	pending, err := newStore[*domain.PendingClarification](cfg, client, "pending:", key)
	if err != nil {
		return nil, err
	}
	return append(opts, dna.WithStores(transcripts, pending)), nil
}

// newStore selects the backend for the namespace and seals values when key
// is set. client is only used by the redis driver.
func newStore[T any](cfg config.Store, client *backend.Client, namespace string, key []byte) (ports.Store[T], error) {
	if key == nil {
		return backendStore[T](cfg, client, namespace), nil
	}
	return middleware.NewEncrypted[T](backendStore[middleware.Envelope](cfg, client, namespace), middleware.EncryptionConfig{ActiveKey: key})
}

func backendStore[T any](cfg config.Store, client *backend.Client, namespace string) ports.Store[T] {
	switch cfg.Driver {
	case config.DriverRedis:
		return redis.NewFromClient[T](client, redis.WithTTL(cfg.TTL), redis.WithPrefix(cfg.Prefix+namespace))
	case config.DriverFile:
		return file.New[T](filepath.Join(cfg.Dir, strings.TrimSuffix(namespace, ":")))
	default:
		return memory.NewStore[T](memory.WithTTL(cfg.TTL))
	}
}
