package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/eldtechnologies/shopchat/internal/cache"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	Timestamp string `json:"timestamp"`
}

// HealthErrorResponse represents the health check failure response.
type HealthErrorResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error"`
}

// Health handles the health check endpoint. The database is required; the
// cache only changes the reported redis status, never the status code.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.JSON(w, http.StatusServiceUnavailable, HealthErrorResponse{
			Status:   "error",
			Database: "unhealthy",
			Error:    err.Error(),
		})
		return
	}

	redisStatus := "not_configured"
	if h.cache != nil && h.cache.State() == cache.StateConnected {
		if err := h.cache.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		} else {
			redisStatus = "healthy"
		}
	}

	h.JSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Database:  "healthy",
		Redis:     redisStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
