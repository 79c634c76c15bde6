package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/domain/model/auth"
	"github.com/notelens/notelens/pkg/repository/firestore"
	"github.com/notelens/notelens/pkg/repository/memory"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/notelens/notelens/pkg/utils/errutil"
)

type noteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toNoteResponse(note *model.Note) noteResponse {
	return noteResponse{
		ID:        note.ID.String(),
		Title:     note.Title,
		Body:      note.Body,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data) //nolint:errcheck // header already committed
}

// noteErrorStatus maps note lookup failures to HTTP statuses. Notes
// owned by someone else look absent, same as notes that do not exist.
func noteErrorStatus(err error) int {
	switch {
	case errors.Is(err, memory.ErrNotFound), errors.Is(err, firestore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrNoteAccessDenied):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeNoteRequest(r *http.Request) (*noteRequest, error) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, goerr.Wrap(err, "failed to decode note request")
	}
	return &req, nil
}

func noteCreateHandler(noteUC *usecase.NotesUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeNoteRequest(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		note, err := noteUC.Create(r.Context(), auth.IdentityFrom(r.Context()), req.Title, req.Body)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, noteErrorStatus(err))
			return
		}

		writeJSON(w, r, http.StatusCreated, toNoteResponse(note))
	}
}

func noteListHandler(noteUC *usecase.NotesUseCase) http.HandlerFunc {
	type response struct {
		Notes []noteResponse `json:"notes"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		notes, err := noteUC.List(r.Context(), auth.IdentityFrom(r.Context()))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, noteErrorStatus(err))
			return
		}

		resp := response{Notes: make([]noteResponse, len(notes))}
		for i, note := range notes {
			resp.Notes[i] = toNoteResponse(note)
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}

func noteGetHandler(noteUC *usecase.NotesUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noteID := model.NoteID(chi.URLParam(r, "noteID"))

		note, err := noteUC.Get(r.Context(), auth.IdentityFrom(r.Context()), noteID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, noteErrorStatus(err))
			return
		}

		writeJSON(w, r, http.StatusOK, toNoteResponse(note))
	}
}

func noteUpdateHandler(noteUC *usecase.NotesUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noteID := model.NoteID(chi.URLParam(r, "noteID"))

		req, err := decodeNoteRequest(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		note, err := noteUC.Update(r.Context(), auth.IdentityFrom(r.Context()), noteID, req.Title, req.Body)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, noteErrorStatus(err))
			return
		}

		writeJSON(w, r, http.StatusOK, toNoteResponse(note))
	}
}

func noteDeleteHandler(noteUC *usecase.NotesUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noteID := model.NoteID(chi.URLParam(r, "noteID"))

		if err := noteUC.Delete(r.Context(), auth.IdentityFrom(r.Context()), noteID); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, noteErrorStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
