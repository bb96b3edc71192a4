package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/common/utils"
	"github.com/storefront-crm/lead-ingest-service/importer"
	"github.com/storefront-crm/lead-ingest-service/leads"
)

// maxImportSize caps uploaded import files at 32 MiB.
const maxImportSize = 32 << 20

type ImportsHandler struct {
	db     *db.DB
	cfg    config.Config
	router *chi.Mux
}

func NewImportsHandler(db *db.DB, cfg config.Config) *ImportsHandler {
	h := &ImportsHandler{
		db:  db,
		cfg: cfg,
	}

	r := chi.NewRouter()
	r.Post("/", h.handleImport)

	h.router = r
	return h
}

func (h *ImportsHandler) Router() *chi.Mux {
	return h.router
}

// handleImport accepts a multipart upload with a "file" part and an optional
// "format" field, stages it to a temp file, and runs it through the importer.
func (h *ImportsHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenant.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	format := strings.ToLower(r.FormValue("format"))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	}

	tmp, err := os.CreateTemp("", "lead-import-*."+format)
	if err != nil {
		log.Error().Err(err).Msg("Failed to stage import upload")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to stage import upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		log.Error().Err(err).Msg("Failed to stage import upload")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to stage import upload")
		return
	}
	tmp.Close()

	leadRepo := leads.NewLeadRepository(h.db.Queries, h.db.Pool)
	imp := importer.New(
		leads.NewReconciler(leadRepo),
		leads.NewBatchWriter(leadRepo, h.cfg.Ingest.InsertChunkSize),
		h.cfg.Ingest.DefaultSource,
	)

	result, err := imp.ImportFile(r.Context(), tenantID, tmp.Name(), format)
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedFormat) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("file", header.Filename).Msg("Import failed")
		utils.WriteError(w, http.StatusBadRequest, "Import failed: "+err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"file":     header.Filename,
		"rows":     result.Rows,
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
	})
}
