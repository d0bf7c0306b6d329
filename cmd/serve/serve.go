// Package serve implements the serve command: a read-only HTTP API over the
// stored crawl results.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/scamintel/cmd/common"
	"github.com/jonesrussell/scamintel/internal/logger"
	"github.com/jonesrussell/scamintel/internal/storage"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 15 * time.Second
	connectTimeout  = 10 * time.Second
	requestTimeout  = 30 * time.Second

	maxQueryLimit = 500
)

// Command returns the serve command.
func Command() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results over a read-only HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			return run(cmd.Context(), deps, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")

	return cmd
}

// resultStore is what the API needs from the storage layer: queries plus a
// clean shutdown.
type resultStore interface {
	storage.Store
	Disconnect(ctx context.Context) error
}

func run(ctx context.Context, deps *cmdcommon.Deps, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	store, err := storage.NewMongoStore(connectCtx, storage.Config{
		URI:           deps.Config.Storage.URI,
		Database:      deps.Config.Storage.Database,
		RetryAttempts: deps.Config.Storage.RetryAttempts,
		RetryBackoff:  deps.Config.Storage.RetryBackoff,
	}, deps.Logger)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}

	return serveAPI(ctx, deps, addr, store)
}

// serveAPI runs the HTTP server until ctx is cancelled or the listener
// fails. The store is disconnected on every exit path.
func serveAPI(ctx context.Context, deps *cmdcommon.Deps, addr string, store resultStore) error {
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = store.Disconnect(disconnectCtx)
	}()

	if !deps.Config.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, store)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("api listening", logger.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case serveErr := <-errCh:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
	case <-ctx.Done():
		deps.Logger.Info("shutting down api")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
	}

	return nil
}

func registerRoutes(router *gin.Engine, store storage.Store) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	api.GET("/results/high-risk", func(c *gin.Context) {
		minScore, err := strconv.Atoi(c.DefaultQuery("min_score", "2"))
		if err != nil || minScore < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a non-negative integer"})
			return
		}

		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 0 || limit > maxQueryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be 0..%d", maxQueryLimit)})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		results, err := store.FindHighRisk(ctx, minScore, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
	})

	api.GET("/domains/:domain", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rec, err := store.FindDomain(ctx, c.Param("domain"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
			return
		}

		c.JSON(http.StatusOK, rec)
	})
}
