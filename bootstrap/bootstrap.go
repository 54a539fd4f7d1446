// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/adapters/clock"
	hearthhttp "github.com/hearthchat/hearth/adapters/http"
	"github.com/hearthchat/hearth/adapters/http/admin"
	"github.com/hearthchat/hearth/adapters/idgen"
	"github.com/hearthchat/hearth/adapters/memory"
	"github.com/hearthchat/hearth/adapters/metrics"
	"github.com/hearthchat/hearth/adapters/sqlite"
	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/config"
	"github.com/hearthchat/hearth/domain/auth"
	"github.com/hearthchat/hearth/domain/partner"
	"github.com/hearthchat/hearth/web"
)

// Rate limit bucket TTL. Buckets idle past this are eligible for sweep;
// it only needs to exceed the one-minute admission window.
const bucketTTL = 10 * time.Minute

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector
}

// New creates and initializes the application from loaded configuration.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing hearth")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	if err := a.initDatabase(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	if err := a.initHTTPServer(); err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

func (a *App) initDatabase() error {
	db, err := sqlite.Open(a.Config.Database.DSN)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database initialized")
	return nil
}

func (a *App) initHTTPServer() error {
	cfg := a.Config

	allowlist := partner.NewAllowlist(cfg.Partners.Allowlist)
	if len(cfg.Partners.Allowlist) == 0 {
		a.Logger.Info().Msg("partner allowlist empty, accepting any well-formed code")
	}

	gate := auth.NewGate(auth.Mode(cfg.Admin.AuthMode), cfg.Admin.Token)
	if auth.Mode(cfg.Admin.AuthMode) == auth.ModeDisabled {
		a.Logger.Warn().Msg("admin auth is DISABLED, reporting endpoints are open")
	}

	clk := clock.Real{}
	events := sqlite.NewEventStore(a.DB)
	limits := memory.NewRateLimitStore(cfg.RateLimit.MaxKeys, bucketTTL)

	completer := hearthhttp.NewCompletionClient(hearthhttp.CompletionConfig{
		Endpoint:     cfg.Completion.Endpoint,
		APIKey:       cfg.Completion.APIKey,
		Model:        cfg.Completion.Model,
		SystemPrompt: cfg.Completion.SystemPrompt,
		MaxTokens:    cfg.Completion.MaxTokens,
		Temperature:  cfg.Completion.Temperature,
		Timeout:      cfg.Completion.Timeout,
		Metrics:      a.Metrics,
	})

	chatService := app.NewChatService(app.ChatDeps{
		Allowlist: allowlist,
		Limits:    limits,
		Events:    events,
		Completer: completer,
		Clock:     clk,
		IDs:       idgen.UUID{},
		Logger:    a.Logger,
		Metrics:   a.Metrics,
	}, app.ChatConfig{
		PerIPLimit:   cfg.RateLimit.PerIPPerMinute,
		PerUserLimit: cfg.RateLimit.PerUserPerMinute,
		Window:       time.Minute,
	})

	reportService := app.NewReportService(app.ReportDeps{
		Events:  events,
		Clock:   clk,
		Logger:  a.Logger,
		Metrics: a.Metrics,
	})

	chatHandler := hearthhttp.NewChatHandler(chatService, a.Logger)
	adminHandler := admin.NewHandler(admin.Deps{
		Reports: reportService,
		Gate:    gate,
		Logger:  a.Logger,
		Metrics: a.Metrics,
	})
	webHandler, err := web.NewHandler(web.Deps{
		Reports:   reportService,
		Gate:      gate,
		Allowlist: allowlist,
		Logger:    a.Logger,
	})
	if err != nil {
		return fmt.Errorf("web handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Mount("/api", chatHandler.Router())
	r.Mount("/api/admin", adminHandler.Router())
	r.Mount("/", webHandler.Router())

	if a.Metrics != nil {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
