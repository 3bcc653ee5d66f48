package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"creatorclub/pkg/config"
	"creatorclub/pkg/contracts"
	"creatorclub/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// SignedPathFunc selects the routes that must carry a payment signature.
type SignedPathFunc func(path string) bool

type shutdownHook struct {
	name string
	fn   func() error
}

type Application struct {
	cfg            *config.Config
	server         *http.Server
	workers        []contracts.Stopper
	hooks          []shutdownHook
	healthHandler  http.Handler
	appHttpHandler http.Handler
}

func NewApplication() *Application {
	return &Application{}
}

func (a *Application) SetApp(cfg *config.Config, healthHandler, appHandler contracts.Handler, signed SignedPathFunc) {
	a.cfg = cfg
	a.setHealthHandler(healthHandler)
	a.setAppHandler(appHandler, signed)
	a.setAppServer()
}

// OnShutdown registers fn to run after the server has stopped, in registration order.
func (a *Application) OnShutdown(name string, fn func() error) {
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

// Handler returns the full routing tree, health endpoints included.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(healthHandler contracts.Handler) {
	healthRouter := httprouter.New()
	healthHandler.RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.healthHandler = h
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler, signed SignedPathFunc) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	idempotencyStore := middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	rateLimiter := middleware.NewHolderRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.DefaultHolderExtractor,
		a.cfg.Log,
	)
	a.workers = append(a.workers, idempotencyStore, rateLimiter)

	// Wrapped inside out: the last wrapper runs first.
	var h http.Handler = appRouter
	h = middleware.Idempotency(idempotencyStore)(h)
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.HolderRateLimit(rateLimiter)(h)
	if a.cfg.PaymentWebhookSecret != "" && signed != nil {
		h = onlyFor(signed, middleware.PaymentSignatureVerification(a.cfg.PaymentWebhookSecret, a.cfg.Log))(h)
		a.cfg.Log.Info("Payment signature verification enabled for confirmation routes")
	} else {
		a.cfg.Log.Warn("PAYMENT_WEBHOOK_SECRET not set, confirmation routes accept unsigned requests")
	}
	if a.cfg.JWTSecret == "" {
		a.cfg.Log.Warn("JWT_SECRET not set, trusting X-Holder-ID and X-Holder-Role headers from the gateway",
			"holder_header", middleware.HolderIDHeader,
			"role_header", middleware.HolderRoleHeader,
		)
	}
	h = middleware.Authenticate(a.cfg.JWTSecret, a.cfg.Log)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.appHttpHandler = h
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

// onlyFor applies mw to requests whose path matches, and passes the rest straight to next.
func onlyFor(match SignedPathFunc, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if match(r.URL.Path) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	for _, w := range a.workers {
		w.Stop()
	}

	for _, hook := range a.hooks {
		if err := hook.fn(); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "hook", hook.name, "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
