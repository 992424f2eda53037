package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yourorg/catalogdash/internal/api"
	"github.com/yourorg/catalogdash/internal/repository"
	"github.com/yourorg/catalogdash/internal/service"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to run the server on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind the server to")
	_ = viper.BindPFlag("PORT", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("HOST", serveCmd.Flags().Lookup("host"))
}

func runServe(_ *cobra.Command, _ []string) error {
	host := viper.GetString("HOST")
	port := viper.GetInt("PORT")
	addr := fmt.Sprintf("%s:%d", host, port)

	catalog, err := newCatalogClient()
	if err != nil {
		return err
	}

	// Services
	productSvc := service.NewProductService(catalog, service.Delays{})

	// Handler
	handler, err := api.NewHandler(productSvc, api.HandlerConfig{
		PageSize:   viper.GetInt("PAGE_SIZE"),
		Debounce:   viper.GetDuration("SEARCH_DEBOUNCE"),
		SessionTTL: viper.GetDuration("SESSION_TTL"),
	})
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	routeConfig := api.RouteConfig{
		ReadRPS:        viper.GetInt("RATE_LIMIT_READ_RPS"),
		WriteRPS:       viper.GetInt("RATE_LIMIT_WRITE_RPS"),
		MaxBodyBytes:   viper.GetInt64("MAX_REQUEST_BODY_BYTES"),
		AllowedOrigins: api.ParseAllowedOrigins(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	srv := &http.Server{
		Addr:           addr,
		Handler:        handler.RoutesWithConfig(routeConfig),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1048576,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", addr, "catalog", viper.GetString("CATALOG_BASE_URL"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Closing the sessions also ends their event streams, which lets Shutdown finish.
	g.Go(func() error {
		return handler.Sessions().Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// catalogTimeout is CATALOG_TIMEOUT, or the client default when it is unset or
// not positive.
func catalogTimeout() time.Duration {
	if timeout := viper.GetDuration("CATALOG_TIMEOUT"); timeout > 0 {
		return timeout
	}
	return repository.DefaultTimeout
}

func newCatalogClient() (*repository.CatalogClient, error) {
	client, err := repository.NewCatalogClient(repository.CatalogConfig{
		BaseURL:         viper.GetString("CATALOG_BASE_URL"),
		Timeout:         catalogTimeout(),
		BreakerFailures: viper.GetUint32("CATALOG_BREAKER_FAILURES"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}
	return client, nil
}
