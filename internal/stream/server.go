package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter exposes the hub:
//
//	GET /healthz   liveness and run id
//	GET /snapshot  latest frame as JSON
//	GET /ws        websocket push of every published frame
func NewRouter(h *Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "run_id": h.RunID(), "clients": h.Clients()})
	})
	router.GET("/snapshot", func(c *gin.Context) {
		msg := h.Latest()
		if msg == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot published yet"})
			return
		}
		c.Data(http.StatusOK, "application/json", msg)
	})
	router.GET("/ws", h.serveWS)
	return router
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Hub) error {
	server := &http.Server{
		Addr:    addr,
		Handler: NewRouter(h),
	}
	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()
	log.Printf("Streaming snapshots on http://%s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Println("Shutting down snapshot server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
