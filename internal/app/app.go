package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/services"
	handlers "salespulse/internal/transport/http"
	ws "salespulse/internal/websocket"
)

// AppName is shown in logs and the startup banner.
const AppName = "SalesPulse"

var (
	// Version is set at build time with -ldflags.
	Version = "dev"
	// BuildTime is set at build time with -ldflags.
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Metrics          *infrastructure.DashboardMetrics
	OTelProviders    *infrastructure.OTelProviders
	Logger           *slog.Logger
	WebFS            fs.FS

	errorHandler *apierrors.ErrorHandler
	listener     net.Listener
}

// NewApplication loads configuration, initializes the global logger and
// builds the application around webFS.
func NewApplication(webFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, webFS, logger)
}

// New builds an application from an explicit configuration.
func New(cfg *config.Config, webFS fs.FS, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	infrastructure.ServiceVersion = Version
	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.NewDashboardMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		WebSocketHub:  ws.NewHub(logger),
		Metrics:       metrics,
		OTelProviders: providers,
		Logger:        logger,
		WebFS:         webFS,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(); err != nil {
		return nil, err
	}
	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) initializeServices() error {
	dashboard, err := services.NewDashboardService(
		services.DashboardOptionsFromConfig(a.Config),
		a.WebSocketHub,
		a.Metrics,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create dashboard service: %w", err)
	}
	a.DashboardService = dashboard
	a.HealthService = services.NewHealthService(Version, BuildTime, dashboard, a.WebSocketHub, a.Logger)
	return nil
}

func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// Wrapping the ResponseWriter breaks the WebSocket hijack, so /ws only
	// gets the request id.
	r.Use(customMiddleware.RequestID)
	r.Get("/ws", handlers.NewWebSocketHandler(a.WebSocketHub, a.Logger).ServeWS)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	staticFS, err := fs.Sub(a.WebFS, "static")
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}
	pageHandler, err := handlers.NewPageHandler(a.DashboardService, a.WebFS, Version, a.Config.Upload.MaxFiles, a.Logger)
	if err != nil {
		return err
	}

	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, a.errorHandler)
	uploadHandler := handlers.NewUploadHandler(a.DashboardService, a.Config.Upload.MaxFiles, a.Config.Upload.MaxBytes, a.Logger, a.errorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.errorHandler.Recoverer)
		r.Use(customMiddleware.SecurityHeaders)

		r.Get("/", pageHandler.ServeIndex)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

		r.Route("/api", func(r chi.Router) {
			if a.Config.Security.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimiter(
					a.Config.Security.RateLimit.RPS,
					a.Config.Security.RateLimit.Burst,
					a.Logger,
				).Handler)
			}
			r.Post("/uploads", uploadHandler.Upload)
			healthHandler.Register(r)
			r.Get("/ws/stats", a.wsStats)
			r.Mount("/", dashboardHandler.Routes())
		})
	})

	a.Router = r
	return nil
}

func (a *Application) wsStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.WebSocketHub.Stats())
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the hub and the HTTP server. A server failure after start
// calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	url := a.URL()
	a.Logger.InfoContext(ctx, "Application started successfully", slog.String("url", url))

	if a.Config.Server.OpenBrowser {
		go a.openWhenReady(ctx, url)
	}
	return nil
}

// URL is the address pages are served from. After Start it reflects the
// bound port.
func (a *Application) URL() string {
	if a.listener != nil {
		if addr, ok := a.listener.Addr().(*net.TCPAddr); ok {
			host := a.Config.Server.Host
			if host == "" || host == "0.0.0.0" {
				host = "localhost"
			}
			return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(addr.Port)))
		}
	}
	return a.Config.BaseURL()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	err := a.Stop(context.Background())
	if closeErr := infrastructure.CloseLogFile(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

// openWhenReady waits for the health endpoint, then opens the browser.
func (a *Application) openWhenReady(ctx context.Context, url string) {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 10; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(300 * time.Millisecond):
		}

		resp, err := client.Get(url + "/api/health/live")
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			continue
		}

		if err := openBrowser(url); err != nil {
			a.Logger.WarnContext(ctx, "Failed to open browser",
				slog.String("url", url),
				slog.String("error", err.Error()))
			fmt.Printf("\n%s is running. Open %s in your browser.\n\n", AppName, url)
		}
		return
	}

	a.Logger.WarnContext(ctx, "Server did not become ready for browser opening", slog.String("url", url))
}

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}

func openBrowser(url string) error {
	var lastErr error
	for _, method := range browserOpenMethods(runtime.GOOS, url) {
		cmd := exec.Command(method.cmd, method.args...)
		if err := cmd.Start(); err != nil {
			lastErr = fmt.Errorf("%s: %w", method.name, err)
			continue
		}
		go cmd.Wait()
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}
	return lastErr
}

// browserOpenMethods returns platform-specific browser opening methods
func browserOpenMethods(goos, url string) []browserMethod {
	switch goos {
	case "windows":
		return []browserMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", url}},
		}
	case "darwin":
		return []browserMethod{
			{name: "open", cmd: "open", args: []string{url}},
		}
	default:
		return []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{url}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{url}},
		}
	}
}
