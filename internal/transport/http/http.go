package httptransport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/services/authsvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/menusvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/syncsvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/tablesvc"
	"github.com/corray333/backend-labs/pos/internal/transport/http/auth"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
	"github.com/corray333/backend-labs/pos/internal/transport/http/menu"
	"github.com/corray333/backend-labs/pos/internal/transport/http/orders"
	"github.com/corray333/backend-labs/pos/internal/transport/http/queues"
	"github.com/corray333/backend-labs/pos/internal/transport/http/stream"
	"github.com/corray333/backend-labs/pos/internal/transport/http/tables"
	"github.com/corray333/backend-labs/pos/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/pos/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

// Services are the service layer entry points exposed over HTTP.
type Services struct {
	Auth   *authsvc.AuthService
	Tables *tablesvc.TableService
	Orders *ordersvc.OrderService
	Menu   *menusvc.MenuService
	Notify *notifysvc.NotifyService
	Sync   *syncsvc.SyncService
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	services Services
}

func NewHTTPTransport(services Services) *HTTPTransport {
	router := newRouter()
	// Shutdown does not cancel request contexts, and streams only end with
	// theirs, so the base context is cancelled as soon as Shutdown starts.
	baseCtx, stopStreams := context.WithCancel(context.Background())
	server := newServer(baseCtx, router)
	server.RegisterOnShutdown(stopStreams)

	return &HTTPTransport{
		server:   server,
		router:   router,
		services: services,
	}
}

// Handler returns the router, for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

func (h *HTTPTransport) Run() error {
	l, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.server.Addr, err)
	}

	return h.Serve(l)
}

// Serve accepts connections on l until Shutdown.
func (h *HTTPTransport) Serve(l net.Listener) error {
	return h.server.Serve(l)
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	s := h.services

	h.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpio.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			auth.Login(w, r, s.Auth)
		})

		r.Group(func(r chi.Router) {
			r.Use(httpsession.Middleware(s.Auth))

			r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				auth.Logout(w, r, s.Auth)
			})
			r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
				auth.Register(w, r, s.Auth)
			})

			r.Route("/tables", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					tables.List(w, r, s.Tables)
				})
				r.Post("/", func(w http.ResponseWriter, r *http.Request) {
					tables.Create(w, r, s.Tables)
				})
				r.Post("/scan", func(w http.ResponseWriter, r *http.Request) {
					tables.Scan(w, r, s.Tables)
				})
				r.Post("/{id}/free", func(w http.ResponseWriter, r *http.Request) {
					tables.Free(w, r, s.Tables)
				})
				r.Post("/{id}/release", func(w http.ResponseWriter, r *http.Request) {
					tables.Release(w, r, s.Tables)
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					orders.List(w, r, s.Orders)
				})
				r.Post("/", func(w http.ResponseWriter, r *http.Request) {
					orders.Create(w, r, s.Orders)
				})
				r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
					orders.Get(w, r, s.Orders)
				})
				r.Post("/{id}/items", func(w http.ResponseWriter, r *http.Request) {
					orders.AddItem(w, r, s.Orders)
				})
				r.Patch("/{id}/status", func(w http.ResponseWriter, r *http.Request) {
					orders.SetStatus(w, r, s.Orders)
				})
				r.Post("/{id}/archive", func(w http.ResponseWriter, r *http.Request) {
					orders.Archive(w, r, s.Orders)
				})
			})

			r.Get("/kitchen/queue", func(w http.ResponseWriter, r *http.Request) {
				queues.Kitchen(w, r, s.Orders)
			})
			r.Get("/cashier/queue", func(w http.ResponseWriter, r *http.Request) {
				queues.Cashier(w, r, s.Orders)
			})
			r.Get("/sales", func(w http.ResponseWriter, r *http.Request) {
				queues.Sales(w, r, s.Orders)
			})

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					menu.List(w, r, s.Menu)
				})
				r.Post("/", func(w http.ResponseWriter, r *http.Request) {
					menu.Create(w, r, s.Menu)
				})
				r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
					menu.Update(w, r, s.Menu)
				})
				r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
					menu.Delete(w, r, s.Menu)
				})
			})

			r.Route("/stream", func(r chi.Router) {
				r.Get("/tables", func(w http.ResponseWriter, r *http.Request) {
					stream.Tables(w, r, s.Sync, s.Tables)
				})
				r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
					stream.Orders(w, r, s.Sync, s.Orders)
				})
				r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
					stream.Notifications(w, r, s.Notify)
				})
			})
		})
	})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware(viper.GetString("otel.service_name")))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(baseCtx context.Context, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ReadHeaderTimeout: time.Duration(viper.GetInt("server.http.read_header_timeout_seconds")) * time.Second,
	}
}
