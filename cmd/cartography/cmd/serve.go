package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cartography/internal/handler"
	"cartography/internal/hub"
	"cartography/internal/repository/sqlite"
	"cartography/internal/service"
	"cartography/internal/watcher"
	"cartography/internal/web"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the universe and serve it to the frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild when dataset files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveWatch {
		cfg.Datasets.Watch = true
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting cartography",
		zap.String("addr", cfg.Addr),
		zap.String("datasets", cfg.Datasets.Dir),
		zap.String("db", cfg.Database.Path))

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open snapshot database: %w", err)
	}
	defer repo.Close()

	bus := service.NewEventBus()

	sseHub := hub.New(logger)
	go sseHub.Run()

	// Bridge pipeline events into the SSE hub
	eventChan := make(chan service.Event, 100)
	bus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	pipeline := service.NewPipeline(cfg, repo, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load and layout run off the serving goroutine; the HTTP layer
	// reports "loading" until the first session lands
	go pipeline.Serve(ctx)

	if cfg.Datasets.Watch {
		w := watcher.New(cfg.Datasets.Dir, logger, pipeline.RequestRebuild)
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("dataset watcher stopped", zap.Error(err))
			}
		}()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(handler.Logger(logger))
	router.Use(handler.CORS)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	api := handler.New(pipeline, logger)
	api.Routes(router)

	router.Method(http.MethodGet, "/events", sseHub)

	staticFS, err := web.Static()
	if err != nil {
		return fmt.Errorf("embedded frontend: %w", err)
	}
	router.Handle("/*", http.FileServer(http.FS(staticFS)))

	server := &http.Server{
		Addr:        cfg.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: SSE connections stay open indefinitely
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	return nil
}
