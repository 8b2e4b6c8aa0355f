// Package app wires configuration, the document store, the presence
// sweeper and the HTTP server into a runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"chatsync/pkg/api"
	"chatsync/pkg/auth"
	"chatsync/pkg/banner"
	"chatsync/pkg/blob"
	"chatsync/pkg/config"
	"chatsync/pkg/logger"
	"chatsync/pkg/presence"
	"chatsync/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	dbPath  string
	sources string
	version string

	srv         *http.Server
	stopSweeper context.CancelFunc
}

// New initializes resources that do not require a running context: env,
// logging, the store and the optional blob client. Call Run to start the
// sweeper and HTTP server and block until shutdown.
func New(addr, dbPath, sources, version string, cfg *config.Config) (*App, error) {
	_ = godotenv.Load(".env")
	logger.Init(cfg.Logging.Level)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := store.Open(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dbPath, err)
	}
	if cfg.Blob.Bucket != "" {
		blob.Init(cfg.Blob.AccessKey, cfg.Blob.SecretKey, cfg.Blob.Endpoint, cfg.Blob.Bucket, cfg.Blob.Region)
	}
	return &App{cfg: cfg, addr: addr, dbPath: dbPath, sources: sources, version: version}, nil
}

// Run starts the presence sweeper and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	ttl := time.Duration(0)
	if s := a.cfg.Presence.TTL; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid presence ttl %q: %w", s, err)
		}
		ttl = d
	}
	stop, err := presence.StartSweeper(ctx, a.cfg.Presence.SweepCron, ttl)
	if err != nil {
		return err
	}
	a.stopSweeper = stop

	banner.Print(a.addr, a.dbPath, a.sources, a.version)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	mux.Handle("/", api.Handler())

	secCfg := auth.SecConfig{
		BackendKeys:  map[string]struct{}{},
		FrontendKeys: map[string]struct{}{},
		RPS:          a.cfg.Security.RateLimit.RPS,
		Burst:        a.cfg.Security.RateLimit.Burst,
	}
	for _, k := range a.cfg.Security.APIKeys.Backend {
		secCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range a.cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	handler := auth.Middleware(secCfg)(mux)

	if origins := a.cfg.Security.CORS.AllowedOrigins; len(origins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(handler)
	}

	a.srv = &http.Server{
		Addr:        a.addr,
		Handler:     handler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		var err error
		if cert != "" && key != "" {
			err = a.srv.ListenAndServeTLS(cert, key)
		} else {
			err = a.srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("server_started", "addr", a.addr)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(sctx)
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
	logger.Info("server_stopped")
}

func validateConfig(cfg *config.Config) error {
	if len(cfg.Security.APIKeys.Backend) == 0 && len(cfg.Security.APIKeys.Frontend) == 0 {
		logger.Warn("no_api_keys_configured")
	}
	if (cfg.Server.TLS.CertFile == "") != (cfg.Server.TLS.KeyFile == "") {
		return errors.New("tls requires both cert_file and key_file")
	}
	if cfg.Presence.TTL != "" && !strings.ContainsAny(cfg.Presence.TTL, "smh") {
		return fmt.Errorf("presence ttl %q must be a duration like 30m", cfg.Presence.TTL)
	}
	return nil
}
