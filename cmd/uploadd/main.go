// Command uploadd serves the upload pipeline over HTTP.
//
// Settings come from the environment (and .env) by default:
//
//	APP_ENV=production UPLOAD_PROVIDER=s3 UPLOAD_S3_BUCKET=media uploadd
//
// --config replaces the UPLOAD_* settings with a YAML file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/pflag"

	"github.com/dmitrymomot/uploadkit/pkg/config"
	"github.com/dmitrymomot/uploadkit/pkg/file"
	"github.com/dmitrymomot/uploadkit/pkg/httpserver"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
	"github.com/dmitrymomot/uploadkit/pkg/uploadhttp"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"uploadd"`
	HTTP    httpserver.Config
	Upload  file.Config
}

func main() {
	configPath := pflag.String("config", "", "Path to an upload YAML config (overrides UPLOAD_* variables)")
	addr := pflag.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	pflag.Parse()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)
	logger.SetAsDefault(log)

	if *configPath != "" {
		upCfg, err := file.LoadConfigFile(*configPath)
		if err != nil {
			log.Error("failed to load upload config", logger.Error(err))
			os.Exit(1)
		}
		cfg.Upload = upCfg
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("uploadd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	up, err := file.New(ctx, cfg.Upload, file.WithLogger(log))
	if err != nil {
		return fmt.Errorf("build uploader: %w", err)
	}

	router, err := newRouter(up, cfg.Upload.Local.BaseURL, log)
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(log *slog.Logger, addr string) {
			log.Info("uploadd ready", logger.Provider(string(up.Provider())), slog.String("addr", addr))
		}),
	)
	return srv.Run(ctx, router)
}

// newRouter mounts the API and, for the local provider with a path-style
// base URL, a read-only file server for stored uploads. The base URL must not
// overlap an API route.
func newRouter(up *file.Uploader, baseURL string, log *slog.Logger) (http.Handler, error) {
	h := uploadhttp.NewHandler(up,
		uploadhttp.WithLogger(log),
		uploadhttp.WithReadinessCheck(up.Ready),
	)
	router := h.Routes()

	local, ok := up.Backend().(*file.LocalStorage)
	if !ok || !strings.HasPrefix(baseURL, "/") {
		return router, nil
	}

	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if uploadhttp.Reserved(prefix) {
		return nil, fmt.Errorf("%w: local base url %q overlaps the API routes", file.ErrInvalidConfig, baseURL)
	}
	router.Get(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(local.BaseDir()))).ServeHTTP)
	return router, nil
}
