// Package api serves the cutover run history over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/joblog"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// Store reads the run history. *joblog.Tracker satisfies it.
type Store interface {
	ListRuns(ctx context.Context, limit int) ([]joblog.Run, error)
	GetRun(ctx context.Context, runID string) (*joblog.RunSummary, error)
}

// Handler handles history requests.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// NewRouter returns an engine with every history route registered.
func NewRouter(store Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	SetupRoutes(router, store)
	return router
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, store Store) {
	handler := NewHandler(store)

	router.GET("/health", handler.GetHealth)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/runs", handler.ListRuns)
		v1.GET("/runs/:id", handler.GetRun)
	}
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "ovirt-dr-history",
	})
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultLimit
	if limitParam := c.Query("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLimit)
	}

	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		log.WithError(err).Error("❌ Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	summary, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, joblog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.WithError(err).WithField("run_id", c.Param("id")).Error("❌ Failed to get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}

// Serve runs the history API on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("🌐 History API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down history API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
