package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jotnotes/apiserver/internal/services"
	"github.com/jotnotes/apiserver/internal/store"
	"go.uber.org/zap"
)

// NoteHandler provides HTTP handlers for notes. Every route requires an
// authenticated user.
type NoteHandler struct {
	noteService *services.NoteService
	log         *zap.SugaredLogger
}

func NewNoteHandler(noteService *services.NoteService, log *zap.SugaredLogger) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		log:         log,
	}
}

// NotesRouter registers note routes on the given router.
func NotesRouter(
	r chi.Router,
	noteService *services.NoteService,
	authMiddleware func(http.Handler) http.Handler,
	log *zap.SugaredLogger,
) {
	handler := NewNoteHandler(noteService, log)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateNote)
	r.Get("/", handler.ListNotes)
	r.Route("/{noteID}", func(r chi.Router) {
		r.Get("/", handler.GetNote)
		r.Put("/", handler.UpdateNote)
		r.Delete("/", handler.DeleteNote)
	})
}

// NoteRequest is the body of create and update. Both fields are required
// but may be empty strings.
type NoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (req NoteRequest) validate() error {
	if req.Title == nil || req.Content == nil {
		return errors.New("title and content are required")
	}
	return nil
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	note, err := h.noteService.Create(r.Context(), user.ID, *req.Title, *req.Content)
	if err != nil {
		h.log.Errorw("create note", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	skip, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	notes, err := h.noteService.List(r.Context(), user.ID, skip, limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Errorw("list notes", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	note, err := h.noteService.Get(r.Context(), user.ID, id)
	if err != nil {
		h.writeNoteError(w, err, "fetch note", user.ID, id)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	note, err := h.noteService.Update(r.Context(), user.ID, id, *req.Title, *req.Content)
	if err != nil {
		h.writeNoteError(w, err, "update note", user.ID, id)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.noteService.Delete(r.Context(), user.ID, id); err != nil {
		h.writeNoteError(w, err, "delete note", user.ID, id)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Detail: "Note deleted successfully"})
}

func (h *NoteHandler) writeNoteError(w http.ResponseWriter, err error, action string, userID, noteID int) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	h.log.Errorw(action, "user_id", userID, "note_id", noteID, "error", err)
	writeError(w, http.StatusInternalServerError, "failed to "+action)
}
