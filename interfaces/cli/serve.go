package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/textlift/textlift/application"
	"github.com/textlift/textlift/domain/admission"
	"github.com/textlift/textlift/domain/ocr"
	"github.com/textlift/textlift/infrastructure/config"
	"github.com/textlift/textlift/infrastructure/engine"
	"github.com/textlift/textlift/infrastructure/logging"
	"github.com/textlift/textlift/infrastructure/resilience"
	"github.com/textlift/textlift/infrastructure/telemetry"
	"github.com/textlift/textlift/interfaces/api"
)

// shutdownGrace bounds how long in-flight requests may drain on shutdown.
const shutdownGrace = 10 * time.Second

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	var (
		configFile string
		addr       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if addr != "" {
				if err := applyAddr(&cfg, addr); err != nil {
					return err
				}
			}
			return a.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to configuration file (yaml or json)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address as host:port, overriding the configured one")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	return cmd
}

// applyAddr overrides the configured listen address from a host:port flag.
func applyAddr(cfg *config.Config, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid --addr port %q: %w", portStr, err)
	}
	if host != "" {
		cfg.Server.Host = host
	}
	cfg.Server.Port = port
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.NewLoader().LoadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return *cfg, nil
}

// serve assembles the service and runs it until ctx is cancelled.
func (a *App) serve(ctx context.Context, cfg config.Config) error {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	cache, err := admission.NewCache[application.Result](cfg.Cache.MaxItems, cfg.CacheTTL())
	if err != nil {
		return fmt.Errorf("creating result cache: %w", err)
	}
	limiter, err := admission.NewLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimitWindow())
	if err != nil {
		return fmt.Errorf("creating rate limiter: %w", err)
	}

	eng := selectEngine(cfg)
	executor := resilience.NewExecutor(resilience.Config{
		MaxConcurrent:          cfg.OCR.MaxConcurrent,
		BreakerThreshold:       cfg.OCR.BreakerThreshold,
		BreakerTimeout:         time.Duration(cfg.OCR.BreakerTimeoutSeconds) * time.Second,
		RetryMaxAttempts:       cfg.OCR.RetryMaxAttempts,
		RetryInitialDelay:      time.Duration(cfg.OCR.RetryInitialDelayMS) * time.Millisecond,
		RetryBackoffMultiplier: cfg.OCR.RetryBackoffMultiplier,
		Timeout:                cfg.OCRTimeout(),
	})

	metrics := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	if metrics.Error() != nil {
		logging.Warn().
			Add(logging.Component("cli")).
			Add(logging.ErrorField(metrics.Error())).
			Msg("metrics disabled")
		metrics = nil
	}

	extractor := application.NewExtractor(cache, eng, executor, metrics, cfg.OCR.Languages)
	server := api.NewServer(cfg, cache, limiter, extractor, metrics)

	logging.Info().
		Add(logging.Component("cli")).
		Add(logging.EngineName(eng.Name())).
		Add(logging.Str("addr", cfg.Addr())).
		Add(logging.Int("cache_max_items", cfg.Cache.MaxItems)).
		Add(logging.Int("rate_limit_max", cfg.RateLimit.MaxRequests)).
		Msg("starting textlift")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func selectEngine(cfg config.Config) ocr.Engine {
	if cfg.OCR.Engine == config.EngineMock {
		return engine.NewMock()
	}
	return engine.NewTesseract()
}
