package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"curriculum-push/internal/bot"
	"curriculum-push/internal/calendar"
	"curriculum-push/internal/lock"
	"curriculum-push/internal/logger"
	"curriculum-push/internal/metrics"
	"curriculum-push/internal/models/config"
	"curriculum-push/internal/repository"
	"curriculum-push/internal/repository/curriculum"
	"curriculum-push/internal/repository/memory"
	"curriculum-push/internal/service"
	queue_service "curriculum-push/internal/service/queue"
	"curriculum-push/internal/web"
	database "curriculum-push/pkg"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newStore,
			newLocker,
			newResolver,
			newRegistry,
			newRecorder,
			queue_service.NewQueueService,
			web.NewHandler,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(runHTTPServer, runBot),
	).Run()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	l, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	l.Info("🚀 Запуск в окружении", zap.String("env", cfg.Environment))
	return l, nil
}

// newStore выбирает хранилище по STORE_DRIVER и накатывает миграции
func newStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (repository.CurriculumStore, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("⚠️  Очередь хранится в памяти и не переживет перезапуск")
		return memory.NewStore(), nil
	case config.DriverSQLite:
		db, err = database.NewSQLite(cfg.Database.SQLitePath)
	default:
		db, err = database.NewPostgres(cfg.Database, log)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db, cfg.Database.Driver, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})

	return curriculum.NewCurriculumRepository(db), nil
}

func newLocker(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (lock.Locker, error) {
	if cfg.Redis.URL == "" {
		return lock.NewMemoryLocker(), nil
	}

	client, err := database.NewRedis(context.Background(), cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("🔒 Блокировки слотов через Redis", zap.Duration("ttl", cfg.Redis.LockTTL))
	return lock.NewRedisLocker(client, cfg.Redis.LockTTL, 50*time.Millisecond, log), nil
}

func newResolver(cfg *config.Config) (calendar.Resolver, error) {
	c, err := calendar.NewTermCalendar(cfg.Calendar)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newRecorder(reg *prometheus.Registry) (metrics.Recorder, error) {
	r, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func runHTTPServer(lc fx.Lifecycle, cfg *config.Config, h *web.Handler, reg *prometheus.Registry, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           web.NewRouter(h, reg, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("❌ HTTP сервер остановлен с ошибкой", zap.Error(err))
				}
			}()
			log.Info("🌐 HTTP сервер запущен", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func runBot(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	queueService service.CurriculumQueueService,
	log *zap.Logger,
) error {
	if !cfg.Bot.Enabled() {
		log.Info("🤖 BOT_TOKEN не задан, бот не запускается")
		return nil
	}

	telegramBot, err := bot.NewBot(cfg.Bot, queueService, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := telegramBot.Start(ctx); err != nil {
					log.Error("❌ Ошибка запуска бота", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			log.Info("👋 Корректное завершение работы")
			return nil
		},
	})
	return nil
}
