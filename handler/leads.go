package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/common/utils"
	"github.com/storefront-crm/lead-ingest-service/leads"
)

type LeadsHandler struct {
	db     *db.DB
	router *chi.Mux
}

func NewLeadsHandler(db *db.DB) *LeadsHandler {
	h := &LeadsHandler{
		db: db,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleListLeads)

	h.router = r
	return h
}

func (h *LeadsHandler) Router() *chi.Mux {
	return h.router
}

func (h *LeadsHandler) handleListLeads(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())
	page, perPage := pagination(r)

	leadRepo := leads.NewLeadRepository(h.db.Queries, h.db.Pool)
	list, err := leadRepo.List(r.Context(), tenantID, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list leads")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list leads")
		return
	}

	total, err := leadRepo.Count(r.Context(), tenantID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count leads")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to count leads")
		return
	}

	utils.WritePagination(w, http.StatusOK, list, page, perPage, total)
}
