package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"github.com/livesense-inc/fanlin-go/internal/colorspace"
	"github.com/livesense-inc/fanlin-go/internal/config"
	"github.com/livesense-inc/fanlin-go/internal/fallback"
	"github.com/livesense-inc/fanlin-go/internal/gateway"
	"github.com/livesense-inc/fanlin-go/internal/origin/fsclient"
	"github.com/livesense-inc/fanlin-go/internal/origin/httpclient"
	"github.com/livesense-inc/fanlin-go/internal/origin/s3client"
	"github.com/livesense-inc/fanlin-go/internal/pipeline"
	"github.com/livesense-inc/fanlin-go/internal/router"
	"github.com/livesense-inc/fanlin-go/internal/server"
)

func main() {
	var confPath string
	var jsonLiteral string

	root := &cobra.Command{
		Use:   "fanlin-go",
		Short: "HTTP image-serving gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(confPath, jsonLiteral)
		},
	}
	root.Flags().StringVar(&confPath, "conf", "fanlin.json", "path to the JSON config file")
	root.Flags().StringVar(&jsonLiteral, "json", "", "literal JSON config, overrides --conf")

	if err := root.Execute(); err != nil {
		log.Errorw("fanlin-go exited with an error", "error", err.Error())
		os.Exit(1)
	}
}

func run(confPath, jsonLiteral string) error {
	cfg, err := loadConfig(confPath, jsonLiteral)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	gw, err := buildGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}

	app := server.New(cfg, gw)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on %s:%d: %w", cfg.BindAddr, cfg.Port, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting server", "addr", listener.Addr().String())
		errCh <- app.Listener(listener)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-sigCh:
		log.Infow("received signal, shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}

func loadConfig(confPath, jsonLiteral string) (*config.Config, error) {
	if jsonLiteral != "" {
		return config.LoadJSON(jsonLiteral)
	}
	return config.LoadFile(confPath)
}

// buildGateway wires C1-C10's shared, read-only state once at startup:
// origin clients, the color manager, the pipeline, the fallback
// resolver, the router and finally the orchestrator itself.
func buildGateway(ctx context.Context, cfg *config.Config) (*gateway.Gateway, error) {
	var iccProfile []byte
	if cfg.ICCProfilePath != "" {
		b, err := os.ReadFile(cfg.ICCProfilePath)
		if err != nil {
			return nil, fmt.Errorf("read icc_profile_path: %w", err)
		}
		iccProfile = b
	}
	colorMgr, err := colorspace.NewManager(iccProfile)
	if err != nil {
		return nil, fmt.Errorf("colorspace: %w", err)
	}

	s3Client, err := s3client.New(ctx, s3client.Config{
		Region:          cfg.Client.S3.AWSRegion,
		EndpointURL:     cfg.Client.S3.AWSEndpointURL,
		AccessKeyID:     cfg.Client.S3.AWSAccessKeyID,
		SecretAccessKey: cfg.Client.S3.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("s3client: %w", err)
	}
	httpClient := httpclient.New(httpclient.Config{
		UserAgent: cfg.Client.Web.UserAgent,
		Timeout:   cfg.Client.Web.Timeout,
	})
	fsClient := fsclient.New()

	providers := make([]router.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		originURL, err := gateway.ParseOriginURL(p.Src)
		if err != nil {
			return nil, fmt.Errorf("provider %q: parse src %q: %w", p.Path, p.Src, err)
		}
		providers = append(providers, router.Provider{
			Mount:                p.Path,
			Origin:               originURL,
			FallbackPath:         p.FallbackPath,
			SuccessEvenNoContent: p.SuccessEvenNoContent,
		})
	}
	r, err := router.New(providers)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	pipe := pipeline.New(colorMgr, cfg.EmbeddedProfileEnabled)

	fb := fallback.New(pipe)
	if cfg.FallbackPath != "" {
		b, err := os.ReadFile(cfg.FallbackPath)
		if err != nil {
			return nil, fmt.Errorf("read fallback_path: %w", err)
		}
		fb.SetGlobal(b)
	}
	for _, p := range cfg.Providers {
		if p.FallbackPath == "" {
			continue
		}
		b, err := os.ReadFile(p.FallbackPath)
		if err != nil {
			return nil, fmt.Errorf("provider %q: read fallback_path: %w", p.Path, err)
		}
		fb.SetProvider(p.Path, b)
	}

	clients := gateway.Clients{S3: s3Client, HTTP: httpClient, File: fsClient}
	selfURL := fmt.Sprintf("http://%s:%d", cfg.BindAddr, cfg.Port)

	return gateway.New(r, clients, pipe, fb, cfg.MaxClients, cfg.RequestTimeout, selfURL), nil
}
