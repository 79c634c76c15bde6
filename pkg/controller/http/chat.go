package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/domain/model/auth"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/notelens/notelens/pkg/utils/errutil"
	"github.com/notelens/notelens/pkg/utils/logging"
)

// chatHandler runs one chat turn and streams the resulting events to
// the client as server-sent events. Once the stream is open, failures
// surface as an error event rather than an HTTP status.
func chatHandler(chatUC *usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFrom(r.Context())
		if id == nil {
			writeUnauthorized(w)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to read chat request body"), http.StatusBadRequest)
			return
		}

		messages, err := model.ParseChatMessages(body)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			errutil.HandleHTTP(r.Context(), w, goerr.New("streaming is not supported"), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sink := func(ctx context.Context, event *model.ChatEvent) error {
			data, err := json.Marshal(event)
			if err != nil {
				return goerr.Wrap(err, "failed to encode chat event")
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return goerr.Wrap(err, "failed to write chat event")
			}
			if _, err := w.Write(data); err != nil {
				return goerr.Wrap(err, "failed to write chat event")
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return goerr.Wrap(err, "failed to write chat event")
			}
			flusher.Flush()
			return nil
		}

		if err := chatUC.HandleTurn(r.Context(), id, messages, sink); err != nil {
			// The stream already carried an error event, so this is
			// only for the server log.
			logging.From(r.Context()).Error("chat turn failed", "error", err.Error())
		}
	}
}

// preflightHandler answers CORS preflight requests for the chat
// endpoint. The permissive headers are only sent when the request
// carries the full preflight header set.
func preflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		method := r.Header.Get("Access-Control-Request-Method")
		headers := r.Header.Get("Access-Control-Request-Headers")

		if origin != "" && method != "" && headers != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "POST")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Digest, Authorization")
			h.Set("Access-Control-Max-Age", "86400")
		}

		w.WriteHeader(http.StatusOK)
	}
}
