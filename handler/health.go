package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/utils"
)

type HealthHandler struct {
	db     *db.DB
	router *chi.Mux
}

func NewHealthHandler(db *db.DB) *HealthHandler {
	h := &HealthHandler{
		db: db,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleHealth)

	h.router = r
	return h
}

func (h *HealthHandler) Router() *chi.Mux {
	return h.router
}

// handleHealth reports database connectivity in addition to liveness.
func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"service":  "lead-ingest-service",
		"status":   "healthy",
		"database": "up",
	}

	if err := h.db.Pool.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = "down"
		utils.WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	utils.WriteJSON(w, http.StatusOK, status)
}
