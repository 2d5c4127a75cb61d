package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/api"
	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/config"
	"github.com/pvictorino/zapgate/internal/conversation"
	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/instance"
	"github.com/pvictorino/zapgate/internal/lock"
	"github.com/pvictorino/zapgate/internal/logging"
	"github.com/pvictorino/zapgate/internal/query"
	"github.com/pvictorino/zapgate/internal/server"
	"github.com/pvictorino/zapgate/internal/status"
	"github.com/pvictorino/zapgate/internal/store"
	intsync "github.com/pvictorino/zapgate/internal/sync"
	"github.com/pvictorino/zapgate/internal/wa"
	"github.com/pvictorino/zapgate/internal/webhook"
)

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(cfg *config.Config) fx.Option {
	return fx.Module("daemon",
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideAdapter,
			provideResolver,
			provideSyncEngine,
			provideDispatcher,
			provideQueryEngine,
			provideAggregator,
			provideChatService,
			provideMessageService,
			provideContactService,
			provideInstanceService,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(instance.LogPath(cfg.DataDir), cfg.Instance, cfg.LogLevel)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(cfg *config.Config, b *bus.Bus) *status.Machine {
	return status.NewMachine(cfg.Instance, b)
}

func provideLock(cfg *config.Config, log *zap.Logger) (*lock.Lock, error) {
	if err := instance.EnsureDirs(cfg.DataDir, cfg.Instance); err != nil {
		return nil, err
	}
	log.Info("acquiring data dir lock", zap.String("dir", cfg.DataDir))
	l, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	log.Info("data dir lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, log *zap.Logger) (*store.DB, error) {
	dbPath := instance.StoreDBPath(cfg.DataDir)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		log.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		log.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	log.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideAdapter(cfg *config.Config, b *bus.Bus, log *zap.Logger) (*wa.Adapter, error) {
	return wa.NewAdapter(context.Background(), cfg.DataDir, cfg.Instance, b, log)
}

func provideResolver(cfg *config.Config, adapter *wa.Adapter, log *zap.Logger) *identity.Resolver {
	return identity.NewResolver(adapter, log, cfg.OracleTimeout.Std())
}

func provideSyncEngine(db *store.DB, b *bus.Bus, log *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, log)
}

func provideDispatcher(cfg *config.Config, db *store.DB, b *bus.Bus, adapter *wa.Adapter, log *zap.Logger) *webhook.Dispatcher {
	return webhook.New(db, b, webhook.Config{
		ServerURL: cfg.ServerURL,
		APIKey:    cfg.APIKey,
		Sender:    adapter.OwnJID,
	}, log)
}

func provideQueryEngine(db *store.DB, resolver *identity.Resolver, log *zap.Logger) *query.Engine {
	return query.NewEngine(db, resolver, log)
}

func provideAggregator(db *store.DB, resolver *identity.Resolver, log *zap.Logger) *conversation.Aggregator {
	return conversation.NewAggregator(db, resolver, log)
}

func provideChatService(db *store.DB, agg *conversation.Aggregator, log *zap.Logger) *api.ChatService {
	return api.NewChatService(db, agg, log)
}

func provideMessageService(db *store.DB, engine *query.Engine, adapter *wa.Adapter, b *bus.Bus, log *zap.Logger) *api.MessageService {
	return api.NewMessageService(db, engine, adapter, b, log)
}

func provideContactService(engine *query.Engine, log *zap.Logger) *api.ContactService {
	return api.NewContactService(engine, log)
}

func provideInstanceService(cfg *config.Config, db *store.DB, machine *status.Machine, log *zap.Logger) *api.InstanceService {
	return api.NewInstanceService(db, machine, cfg.Instance, log)
}

func provideServer(cfg *config.Config, chats *api.ChatService, messages *api.MessageService, contacts *api.ContactService, instances *api.InstanceService, log *zap.Logger) *server.Server {
	return server.New(server.Config{Addr: cfg.HTTPAddr, APIKey: cfg.APIKey}, chats, messages, contacts, instances, log)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, srv *server.Server, lk *lock.Lock, adapter *wa.Adapter, engine *intsync.Engine, dispatcher *webhook.Dispatcher, machine *status.Machine, b *bus.Bus, log *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Sync engine and dispatcher subscribe to the bus first, so
			// no startup event is missed.
			go engine.Run(runCtx)
			go dispatcher.Run(runCtx)

			handler := wa.NewEventHandler(b, machine, adapter, cfg.Instance, log)
			adapter.RegisterEventHandler(handler.Handle)

			go func() {
				if err := srv.Run(runCtx); err != nil {
					log.Error("http server error", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()

			b.Emit(bus.KindApplicationStartup, cfg.Instance, nil)

			if adapter.IsLoggedIn() {
				_ = machine.Transition(status.Connecting)
				go func() {
					if err := adapter.Connect(); err != nil {
						log.Error("auto-connect failed", zap.Error(err))
						_ = machine.Transition(status.Close)
					}
				}()
			} else {
				log.Info("no credentials found, starting pairing")
				go func() {
					if err := adapter.Pair(runCtx, machine); err != nil {
						log.Error("pairing failed", zap.Error(err))
						return
					}
					// Pairing connects the client; wait for the
					// connected event to open the state.
				}()
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			adapter.Disconnect()
			if err := lk.Release(); err != nil {
				log.Warn("error releasing lock", zap.Error(err))
			}
			log.Info("daemon stopped")
			return nil
		},
	})
}
