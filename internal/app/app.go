package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/ichangefeed"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iclaimrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/isessionrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/memstore"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/pos/internal/dal/redis"
	changefeedrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/changefeed/postgres"
	claimrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/claim/redis"
	notificationrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/notification/rabbitmq"
	outboxrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/outbox/postgres"
	sessionrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/session/redis"
	userrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/user/postgres"
	"github.com/corray333/backend-labs/pos/internal/dal/uow"
	"github.com/corray333/backend-labs/pos/internal/otel"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
	"github.com/corray333/backend-labs/pos/internal/service/services/authsvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/menusvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/syncsvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/tablesvc"
	"github.com/corray333/backend-labs/pos/internal/transport/consumer"
	httptransport "github.com/corray333/backend-labs/pos/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/pos/internal/worker/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type publisher interface {
	Publish(ctx context.Context, n notification.OrderReady) error
}

// backend is the storage and messaging a store driver provides.
type backend struct {
	newUOW     iuow.Factory
	users      iuserrepo.IUserRepository
	sessions   isessionrepo.ISessionRepository
	claims     iclaimrepo.IClaimRepository
	feed       ichangefeed.IChangeFeed
	outboxRepo ioutboxrepo.IOutboxRepository
	publisher  publisher
	exchange   string
}

// App represents the application.
type App struct {
	authSvc        *authsvc.AuthService
	syncSvc        *syncsvc.SyncService
	transport      *httptransport.HTTPTransport
	consumerTransp *consumer.Consumer
	outboxWorker   *outboxworker.Worker
	postgresClient *postgres.Client
	redisClient    *redis.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application for the configured store driver.
func MustNewApp() *App {
	a := &App{otelController: otel.MustInitOtel()}

	cur, err := currency.ParseCurrency(viper.GetString("order.currency"))
	if err != nil {
		panic(fmt.Sprintf("invalid order.currency: %v", err))
	}

	notifySvc := notifysvc.MustNewNotifyService()

	var b backend
	switch driver := viper.GetString("store.driver"); driver {
	case driverMemory:
		b = a.memoryBackend(notifySvc)
	case driverPostgres:
		b = a.postgresBackend(notifySvc)
	default:
		panic(fmt.Sprintf("unknown store.driver %q", driver))
	}

	a.authSvc = authsvc.MustNewAuthService(
		authsvc.WithUserRepository(b.users),
		authsvc.WithSessionRepository(b.sessions),
		authsvc.WithSessionTTL(time.Duration(viper.GetInt("auth.session_ttl_minutes"))*time.Minute),
	)
	tableSvc := tablesvc.MustNewTableService(
		tablesvc.WithUnitOfWork(b.newUOW),
	)
	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithUnitOfWork(b.newUOW),
		ordersvc.WithCurrency(cur),
		ordersvc.WithDwellAlert(time.Duration(viper.GetInt("kitchen.dwell_alert_seconds"))*time.Second),
	)
	menuSvc := menusvc.MustNewMenuService(
		menusvc.WithUnitOfWork(b.newUOW),
		menusvc.WithCurrency(cur),
	)

	a.syncSvc = syncsvc.MustNewSyncService(
		syncsvc.WithChangeFeed(b.feed),
		syncsvc.WithUnitOfWork(b.newUOW),
		syncsvc.WithClaims(b.claims),
		syncsvc.WithPublisher(b.publisher),
		syncsvc.WithCurrency(cur),
		syncsvc.WithClaimTTL(time.Duration(viper.GetInt("sync.ready_claim_ttl_minutes")) * time.Minute),
		syncsvc.WithBackoff(
			time.Duration(viper.GetInt("sync.min_backoff_ms"))*time.Millisecond,
			time.Duration(viper.GetInt("sync.max_backoff_ms"))*time.Millisecond,
		),
		syncsvc.WithOutbox(b.outboxRepo, b.exchange),
	)

	a.transport = httptransport.NewHTTPTransport(httptransport.Services{
		Auth:   a.authSvc,
		Tables: tableSvc,
		Orders: orderSvc,
		Menu:   menuSvc,
		Notify: notifySvc,
		Sync:   a.syncSvc,
	})
	a.transport.RegisterRoutes()

	return a
}

// memoryBackend keeps everything in process. Notifications go straight to
// local subscribers, so there is no outbox.
func (a *App) memoryBackend(notifySvc *notifysvc.NotifyService) backend {
	slog.Warn("Using in-memory store, data is lost on restart")
	store := memstore.New()

	return backend{
		newUOW:    store.NewUnitOfWork,
		users:     store.UserRepository(),
		sessions:  memstore.NewSessionStore(),
		claims:    memstore.NewClaimStore(),
		feed:      store.Feed(),
		publisher: notifySvc,
	}
}

// postgresBackend shares state between instances: Postgres holds the data
// and the change feed, Redis the sessions and claims, RabbitMQ fans ready
// notifications out to every instance.
func (a *App) postgresBackend(notifySvc *notifysvc.NotifyService) backend {
	a.postgresClient = postgres.MustNewClient()
	a.redisClient = redis.MustNewClient()
	a.rabbitMqClient = rabbitmq.MustNewClient()

	exchange := viper.GetString("rabbitmq.exchange")
	outboxRepository := outboxrepo.NewOutboxRepository(a.postgresClient)

	a.outboxWorker = outboxworker.NewWorker(outboxRepository, a.rabbitMqClient)
	a.consumerTransp = consumer.NewConsumer(a.rabbitMqClient, notifySvc)

	return backend{
		newUOW:     uow.NewFactory(a.postgresClient),
		users:      userrepo.NewUserRepository(a.postgresClient),
		sessions:   sessionrepo.NewSessionRepository(a.redisClient),
		claims:     claimrepo.NewClaimRepository(a.redisClient),
		feed:       changefeedrepo.NewChangeFeed(a.postgresClient),
		outboxRepo: outboxRepository,
		publisher:  notificationrepo.MustNewNotificationPublisher(a.rabbitMqClient, exchange),
		exchange:   exchange,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if email := viper.GetString("auth.admin_email"); email != "" {
		if err := a.authSvc.EnsureAdmin(ctx, email, viper.GetString("auth.admin_password")); err != nil {
			panic(fmt.Sprintf("failed to bootstrap admin: %v", err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))
		if err := a.transport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return a.syncSvc.Run(gctx)
	})

	if a.outboxWorker != nil {
		g.Go(func() error {
			a.outboxWorker.Start(gctx)

			return nil
		})
	}

	if a.consumerTransp != nil {
		g.Go(func() error {
			return a.consumerTransp.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")
		a.stopServing()

		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Application error", "error", err)
	}

	a.gracefulShutdown()
}

// stopServing stops the components that only return once told to.
func (a *App) stopServing() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(viper.GetInt("server.http.shutdown_timeout_seconds"))*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.outboxWorker != nil {
		a.outboxWorker.Stop()
	}

	if a.consumerTransp != nil {
		if err := a.consumerTransp.Shutdown(); err != nil {
			slog.Error("Consumer shutdown error", "error", err)
		}
	}
}

// gracefulShutdown closes the connections: RabbitMQ, Redis, PostgreSQL and
// OpenTelemetry.
func (a *App) gracefulShutdown() {
	if a.rabbitMqClient != nil {
		if err := a.rabbitMqClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		} else {
			slog.Info("RabbitMQ connection closed gracefully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Error("Redis connection close error", "error", err)
		} else {
			slog.Info("Redis connection closed gracefully")
		}
	}

	if a.postgresClient != nil {
		a.postgresClient.Close()
		slog.Info("Database connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
