package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
	"github.com/mcoot/bullscows/internal/dependencies/random"
	"github.com/mcoot/bullscows/internal/services/credentials"
	"github.com/mcoot/bullscows/internal/services/history"
	"github.com/mcoot/bullscows/internal/services/lobby"
	"github.com/mcoot/bullscows/internal/services/match"
	"github.com/mcoot/bullscows/internal/services/publish"
	"github.com/mcoot/bullscows/internal/services/reconnect"
	"github.com/mcoot/bullscows/internal/services/room"
	"github.com/mcoot/bullscows/internal/services/secret"
	"github.com/mcoot/bullscows/internal/services/turnclock"
	"github.com/mcoot/bullscows/internal/storage"
	"github.com/mcoot/bullscows/internal/storage/memory"
	redisstorage "github.com/mcoot/bullscows/internal/storage/redis"
	"github.com/mcoot/bullscows/internal/transport"
	"github.com/mcoot/bullscows/internal/transport/ws"
	"github.com/mcoot/bullscows/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Publisher publish.Publisher

	// Services
	Registry        *room.Registry
	TurnClock       *turnclock.Clock
	Credentials     *credentials.Store
	Broker          *reconnect.Broker
	History         *history.Recorder
	LobbyController *lobby.Controller

	// Transport
	Transport  transport.Transport
	HubManager *sse.HubManager
	// SocketHub is nil when the app runs without a real websocket transport
	SocketHub *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// NATSConfig enables publishing match summaries to NATS (optional)
	// If nil, summaries are only logged
	NATSConfig *publish.NATSConfig
	// TurnTimeout and ReconnectTimeout fall back to the service defaults when zero
	TurnTimeout      time.Duration
	ReconnectTimeout time.Duration
	// HistoryLimit caps the match summaries the memory backend keeps per room
	// If zero, defaults to memory.DefaultHistoryLimit
	HistoryLimit int
	// SocketConfig configures the websocket hub
	// If zero value, defaults to ws.DefaultConfig()
	SocketConfig ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		if cfg.HistoryLimit > 0 {
			store = memory.NewWithHistoryLimit(cfg.HistoryLimit)
		} else {
			store = memory.New()
		}
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create publisher
	var publisher publish.Publisher = publish.NewLogPublisher(logger)
	if cfg.NATSConfig != nil {
		natsPublisher, err := publish.NewNATSPublisher(*cfg.NATSConfig, logger)
		if err != nil {
			return nil, err
		}
		publisher = natsPublisher
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	socketCfg := cfg.SocketConfig
	if socketCfg.SendBuffer == 0 {
		socketCfg = ws.DefaultConfig()
	}
	socketHub := ws.NewHub(socketCfg, logger)

	app := newWithDependencies(dependencies{
		store:            store,
		clock:            clk,
		random:           rnd,
		publisher:        publisher,
		transport:        socketHub,
		turnTimeout:      cfg.TurnTimeout,
		reconnectTimeout: cfg.ReconnectTimeout,
		logger:           logger,
	})
	app.SocketHub = socketHub
	socketHub.SetHandler(app.LobbyController)

	return app, nil
}

// dependencies are the externally supplied parts of an App
type dependencies struct {
	store            storage.Storage
	clock            clock.Clock
	random           random.Random
	publisher        publish.Publisher
	transport        transport.Transport
	turnTimeout      time.Duration
	reconnectTimeout time.Duration
	logger           *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	logger := deps.logger
	secrets := secret.New(deps.random)

	// Room broadcasts also feed the SSE watchers
	hubManager := sse.NewHubManager(logger)
	fanout := transport.NewFanout(deps.transport, hubManager)

	// Create services
	registry := room.NewRegistry(func() *match.Engine {
		return match.NewEngine(secrets, deps.random, deps.clock)
	}, logger)
	turns := turnclock.New(deps.clock, deps.turnTimeout, logger)
	credentialStore := credentials.New(deps.store, deps.clock, deps.random, logger)
	broker := reconnect.New(credentialStore, deps.clock, deps.reconnectTimeout, logger)
	recorder := history.New(deps.store, deps.publisher, logger)
	lobbyController := lobby.NewController(
		registry, turns, broker, credentialStore, recorder, fanout, deps.clock, deps.random, logger,
	)

	return &App{
		Storage:         deps.store,
		Clock:           deps.clock,
		Random:          deps.random,
		Publisher:       deps.publisher,
		Registry:        registry,
		TurnClock:       turns,
		Credentials:     credentialStore,
		Broker:          broker,
		History:         recorder,
		LobbyController: lobbyController,
		Transport:       fanout,
		HubManager:      hubManager,
	}
}

// Close stops timers, drops live connections and releases external clients
func (a *App) Close() error {
	if a.SocketHub != nil {
		a.SocketHub.Close()
	}
	a.LobbyController.Stop()
	a.HubManager.Close()

	var errs []error
	if err := a.Publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := a.Storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
