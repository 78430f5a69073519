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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salesbi/internal/config"
	"salesbi/internal/dataprocessing"
	apierrors "salesbi/internal/errors"
	"salesbi/internal/files"
	"salesbi/internal/infrastructure"
	customMiddleware "salesbi/internal/middleware"
	"salesbi/internal/services"
	handlers "salesbi/internal/transport/http"
)

// BuildTime is set at compile time with -ldflags
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Validator     *customMiddleware.Validator
	Services      *ServiceContainer

	collector *infrastructure.SystemMetricsCollector
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Reports *services.ReportService
	Health  *services.HealthService
	Uploads *files.Manager
}

// NewApplication loads the configuration and logger and builds the
// application
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds the application from an explicit configuration
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	errorHandler := apierrors.NewErrorHandler(logger, cfg.Logging.Development)
	handlers.RegisterErrors(errorHandler)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  errorHandler,
		Validator:     customMiddleware.NewValidator(),
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	source, reference, err := a.buildSources(ctx)
	if err != nil {
		return err
	}

	processor := dataprocessing.NewProcessor(dataprocessing.RulesFromConfig(a.Config.Analytics), a.Logger, a.Metrics)

	opts := []services.ReportServiceOption{services.WithMetrics(a.Metrics)}
	if reference != nil {
		opts = append(opts, services.WithReference(reference))
	}

	container := &ServiceContainer{}
	if dir := a.Config.Source.UploadDir; dir != "" {
		container.Uploads = files.NewManager(dir, a.Logger)
		if err := container.Uploads.EnsureDirectory(); err != nil {
			return fmt.Errorf("failed to prepare upload directory: %w", err)
		}
		opts = append(opts, services.WithUploadStore(container.Uploads))
	}

	container.Reports = services.NewReportService(source, processor, services.ReportServiceConfig{
		CacheTTL:     a.Config.Source.CacheTTL,
		DefaultTopN:  a.Config.Analytics.DefaultTopN,
		SuggestLimit: a.Config.Analytics.SuggestLimit,
		Sheet:        a.Config.Source.Sheet,
	}, a.Logger, opts...)

	collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to create system metrics collector: %w", err)
	}
	a.collector = collector

	container.Health = services.NewHealthService(config.AppVersion, BuildTime, container.Reports, collector, a.Logger)

	a.Services = container
	return nil
}

// buildSources picks the sales and reference sources from configuration.
// Google Sheets wins over files when a sheet ID is configured.
func (a *Application) buildSources(ctx context.Context) (source, reference files.Source, err error) {
	src := a.Config.Source

	switch {
	case src.UsesSheets():
		source, err = files.NewSheetsSource(ctx, a.sheetsConfig(src.SheetID, src.SheetRange), a.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sheets source: %w", err)
		}
	case src.Path != "" || src.Dir != "":
		source = files.NewFileSource(src.Path, src.Dir, src.Sheet)
	default:
		a.Logger.WarnContext(ctx, "no sales source configured, waiting for uploads")
	}

	switch {
	case src.ReferenceSheetID != "":
		reference, err = files.NewSheetsSource(ctx, a.sheetsConfig(src.ReferenceSheetID, src.ReferenceRange), a.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create reference sheets source: %w", err)
		}
	case src.ReferencePath != "":
		reference = files.NewFileSource(src.ReferencePath, "", "")
	}

	if source != nil {
		a.Logger.InfoContext(ctx, "sales source configured",
			slog.String("kind", source.Kind()),
			slog.Bool("reference", reference != nil))
	}
	return source, reference, nil
}

func (a *Application) sheetsConfig(id, rng string) files.SheetsConfig {
	return files.SheetsConfig{
		SpreadsheetID:   id,
		Range:           rng,
		CredentialsFile: a.Config.Source.CredentialsFile,
		APIKey:          a.Config.Source.GoogleAPIKey,
		Timeout:         a.Config.Source.FetchTimeout,
	}
}

// setupRouter wires middleware and routes
func (a *Application) setupRouter() error {
	auth, err := a.sharedSecretAuth()
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Prometheus scrape endpoint, outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		r.Use(customMiddleware.Compress(5))

		a.setupAPIRoutes(r, auth)
	})

	a.Router = r
	return nil
}

// setupAPIRoutes registers the /api routes. Health endpoints stay open; the
// report and dataset routes sit behind the shared secret.
func (a *Application) setupAPIRoutes(r chi.Router, auth *customMiddleware.SharedSecretAuth) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	reportHandler := handlers.NewReportHandler(a.Services.Reports, a.Validator, a.Logger, a.ErrorHandler)
	datasetHandler := handlers.NewDatasetHandler(a.Services.Reports, a.Validator, a.Config.Source.MaxUploadBytes, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(auth.Handler)
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

			r.Mount("/reports", reportHandler.Routes())
			r.Mount("/dataset", datasetHandler.Routes())
		})
	})
}

// sharedSecretAuth builds the API gate. A plain secret is hashed at startup
// when no hash is configured.
func (a *Application) sharedSecretAuth() (*customMiddleware.SharedSecretAuth, error) {
	hash := a.Config.Security.SharedSecretHash
	if hash == "" && a.Config.Security.SharedSecret != "" {
		var err error
		if hash, err = customMiddleware.HashSecret(a.Config.Security.SharedSecret); err != nil {
			return nil, err
		}
	}

	auth, err := customMiddleware.NewSharedSecretAuth(hash, a.Logger, a.ErrorHandler)
	if err != nil {
		return nil, err
	}
	if !auth.Enabled() {
		a.Logger.Warn("API is not protected by a shared secret")
	}
	return auth, nil
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server and the background collectors. A server
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go a.collector.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go func() {
		if err := a.performStartupHealthCheck(ctx); err != nil {
			a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// performStartupHealthCheck loads the dataset once so the first request
// does not pay for it
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	info, err := a.Services.Reports.Info(ctx)
	if err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}
	a.Logger.InfoContext(ctx, "Initial dataset loaded",
		slog.String("source", info.Source),
		slog.Int("rows", info.Rows),
		slog.Int("issues", info.IssueCount))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.collector != nil {
		a.collector.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.WithoutCancel(ctx))
}
