package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"churnlens/internal"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the read-only feed routes
func NewRouter(h *FeedHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	api := r.Group("/api")
	{
		api.GET("/manifest", h.GetManifest)
		api.GET("/kpi", h.GetKPI)
		api.GET("/summaries", h.ListSummaries)
		api.GET("/summaries/:dimension", h.GetSummary)
		api.GET("/tables/:name", h.GetTable)
		api.GET("/customers", h.GetCustomers)
	}
	return r
}

// Serve runs the feed until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, addr string, h *FeedHandler, logger *internal.Logger) error {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving churn feed on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down churn feed")
		return srv.Shutdown(shutdownCtx)
	}
}
