package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jotnotes/apiserver/internal/services"
	"github.com/jotnotes/apiserver/internal/store"
	"go.uber.org/zap"
)

// ExportHandler serves note exports kept in object storage.
type ExportHandler struct {
	exportService *services.ExportService
	log           *zap.SugaredLogger
}

func NewExportHandler(exportService *services.ExportService, log *zap.SugaredLogger) *ExportHandler {
	return &ExportHandler{exportService: exportService, log: log}
}

// ExportsRouter registers export routes on the given router.
func ExportsRouter(
	r chi.Router,
	exportService *services.ExportService,
	authMiddleware func(http.Handler) http.Handler,
	log *zap.SugaredLogger,
) {
	handler := NewExportHandler(exportService, log)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateExport)
	r.Get("/{exportID}", handler.GetExport)
	r.Delete("/{exportID}", handler.DeleteExport)
}

func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	export, err := h.exportService.Create(r.Context(), user)
	if err != nil {
		h.log.Errorw("create export", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create export")
		return
	}

	writeJSON(w, http.StatusCreated, export)
}

func (h *ExportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	exportID := chi.URLParam(r, "exportID")
	data, err := h.exportService.Get(r.Context(), user.ID, exportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Export not found")
			return
		}
		h.log.Errorw("fetch export", "user_id", user.ID, "export_id", exportID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch export")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ExportHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	exportID := chi.URLParam(r, "exportID")
	if err := h.exportService.Delete(r.Context(), user.ID, exportID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Export not found")
			return
		}
		h.log.Errorw("delete export", "user_id", user.ID, "export_id", exportID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete export")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Detail: "Export deleted successfully"})
}
