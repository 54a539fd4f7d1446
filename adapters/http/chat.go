package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/ports"
)

// ChatHandler provides the public chat intake endpoint.
type ChatHandler struct {
	chat   *app.ChatService
	logger zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *app.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// Router returns the chat API router.
func (h *ChatHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/chat", h.Chat)
	return r
}

type chatRequest struct {
	Message         string `json:"message"`
	AnonymousUserID string `json:"anonymous_user_id"`
	SessionID       string `json:"session_id"`
	PartnerCode     string `json:"partner_code"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	result, err := h.chat.Handle(r.Context(), app.ChatRequest{
		Message:         req.Message,
		AnonymousUserID: req.AnonymousUserID,
		SessionID:       req.SessionID,
		PartnerCode:     req.PartnerCode,
		RemoteIP:        remoteIP(r),
	})

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, chatResponse{Reply: result.Reply})
	case errors.Is(err, ports.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message, anonymous_user_id and session_id are required"})
	case errors.Is(err, ports.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, chatResponse{
			Reply: "You're sending messages a little quickly. Let's slow down for a moment.",
		})
	default:
		// Detail is logged by the service; end users get a generic body.
		writeJSON(w, http.StatusInternalServerError, chatResponse{Reply: "Something went wrong. Please try again."})
	}
}

// remoteIP resolves the caller address for the coarse rate limit tier.
// X-Forwarded-For wins when a proxy sits in front.
func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
