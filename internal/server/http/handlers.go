// Package httpserver exposes the conversation read side over HTTP.
package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/codecommunity/chat-server/internal/auth"
	"github.com/codecommunity/chat-server/internal/service"
)

// ChatHandler serves counterpart listings and conversation history.
type ChatHandler struct {
	query service.QueryService
	log   *zap.Logger
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(query service.QueryService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{query: query, log: log}
}

// Counterparts handles GET /api/chat/users.
func (h *ChatHandler) Counterparts(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	cps, err := h.query.Counterparts(r.Context(), userID)
	if err != nil {
		h.log.Error("list counterparts", zap.Error(err))
		http.Error(w, "error fetching users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cps)
}

// History handles GET /api/chat/messages/{userId}.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	otherID, err := uuid.FromString(mux.Vars(r)["userId"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	msgs, err := h.query.History(r.Context(), userID, otherID)
	if err != nil {
		h.log.Error("load history", zap.Error(err))
		http.Error(w, "error fetching messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, msgs)
}

// NewRouter assembles the HTTP surface: the authenticated chat read side,
// the websocket gate and an unauthenticated health check.
func NewRouter(chat *ChatHandler, gate http.Handler, verifier *auth.Verifier, log *zap.Logger, healthPing func() error) *mux.Router {
	r := mux.NewRouter()
	r.Use(Recover(log), Logging(log))

	api := r.PathPrefix("/api/chat").Subrouter()
	api.Use(Auth(verifier))
	api.HandleFunc("/users", chat.Counterparts).Methods(http.MethodGet)
	api.HandleFunc("/messages/{userId}", chat.History).Methods(http.MethodGet)

	r.Handle("/ws", gate)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := healthPing(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
