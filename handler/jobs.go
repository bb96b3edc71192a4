package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/models"
	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/common/utils"
	"github.com/storefront-crm/lead-ingest-service/jobs"
)

type JobsHandler struct {
	db        *db.DB
	processor *jobs.Processor
	cfg       config.Config
	router    *chi.Mux
}

func NewJobsHandler(db *db.DB, processor *jobs.Processor, cfg config.Config) *JobsHandler {
	h := &JobsHandler{
		db:        db,
		processor: processor,
		cfg:       cfg,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleListJobs)
	r.Post("/", h.handleCreateJob)
	r.Post("/process", h.handleProcess)
	r.Get("/{id}", h.handleGetJob)
	r.Post("/{id}/cancel", h.handleCancelJob)

	h.router = r
	return h
}

func (h *JobsHandler) Router() *chi.Mux {
	return h.router
}

type createJobRequest struct {
	URL string `json:"url"`
}

func (h *JobsHandler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())

	var p createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	parsed, err := url.ParseRequestURI(p.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		utils.WriteError(w, http.StatusBadRequest, common.ErrInvalidURL.Error())
		return
	}

	jobStore := jobs.NewJobStore(h.db.Queries)
	job, err := jobStore.Create(r.Context(), tenantID, p.URL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create scraping job")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create scraping job")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, job)
}

func (h *JobsHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())
	page, perPage := pagination(r)
	status := r.URL.Query().Get("status")

	jobStore := jobs.NewJobStore(h.db.Queries)
	list, err := jobStore.List(r.Context(), tenantID, models.JobStatus(status), int32(perPage), int32((page-1)*perPage))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list scraping jobs")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list scraping jobs")
		return
	}

	total, err := jobStore.Count(r.Context(), tenantID, models.JobStatus(status))
	if err != nil {
		log.Error().Err(err).Msg("Failed to count scraping jobs")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to count scraping jobs")
		return
	}

	utils.WritePagination(w, http.StatusOK, list, page, perPage, total)
}

func (h *JobsHandler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	jobStore := jobs.NewJobStore(h.db.Queries)
	job, err := jobStore.Get(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Scraping job not found")
			return
		}
		log.Error().Err(err).Str("jobID", id).Msg("Failed to get scraping job")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get scraping job")
		return
	}

	logRows, err := h.db.Queries.GetIngestLogsByJobID(r.Context(), pgtype.Text{String: id, Valid: true})
	if err != nil {
		log.Warn().Err(err).Str("jobID", id).Msg("Failed to load ingest logs for job")
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"job":  job,
		"logs": logRows,
	})
}

func (h *JobsHandler) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	jobStore := jobs.NewJobStore(h.db.Queries)
	if err := jobStore.Cancel(r.Context(), tenantID, id); err != nil {
		if errors.Is(err, common.ErrInvalidTransition) {
			utils.WriteError(w, http.StatusConflict, "Only pending jobs can be cancelled")
			return
		}
		log.Error().Err(err).Str("jobID", id).Msg("Failed to cancel scraping job")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to cancel scraping job")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(models.JobStatusCancelled)})
}

// handleProcess kicks off a processing run in the background and returns
// immediately. Overlapping runs for the same tenant are rejected by the run
// guard inside the processor.
func (h *JobsHandler) handleProcess(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())

	go func() {
		ctx := tenant.WithID(context.Background(), tenantID)
		summary, err := h.processor.ProcessPending(ctx, tenantID)
		if err != nil {
			if errors.Is(err, common.ErrRunInProgress) {
				log.Info().Str("tenantID", tenantID).Msg("Processing run already active, not starting another")
				return
			}
			log.Error().Err(err).Str("tenantID", tenantID).Msg("Processing run failed")
			return
		}
		log.Info().
			Str("tenantID", tenantID).
			Int("processed", summary.Processed).
			Int("success", summary.Success).
			Int("failed", summary.Failed).
			Int("skipped", summary.Skipped).
			Msg("Background processing run finished")
	}()

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "processing started"})
}

// pagination reads page and per_page query params with sane bounds.
func pagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
