package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"product_transactions/internal/domain"

	"github.com/gin-gonic/gin"
)

// StoreStatus is the part of the transaction store the health endpoints read
type StoreStatus interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context, f domain.Filter) (int64, error)
}

// HealthHandler serves liveness and readiness for the dashboard
type HealthHandler struct {
	store     StoreStatus
	backend   string
	startTime time.Time
	version   string
}

func NewHealthHandler(store StoreStatus, backend, version string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		backend:   backend,
		startTime: time.Now(),
		version:   version,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness only reports that the process is serving
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness checks the store and reports how many transactions it holds.
// An empty store is ready but not seeded.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"store_backend": h.backend}
	ready := true

	if err := h.store.Ping(ctx); err != nil {
		checks["store"] = "unhealthy: " + err.Error()
		ready = false
	} else {
		checks["store"] = "healthy"
		n, err := h.store.Count(ctx, domain.Filter{})
		if err != nil {
			checks["documents"] = "unknown: " + err.Error()
			ready = false
		} else {
			checks["documents"] = strconv.FormatInt(n, 10)
			checks["seeded"] = strconv.FormatBool(n > 0)
		}
	}

	status, code := "healthy", http.StatusOK
	if !ready {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is the short form used by load balancers
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": h.backend,
		"version": h.version,
	})
}
