package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kenassistant/weather-chat-api/internal/model"
	"github.com/kenassistant/weather-chat-api/internal/relay"
)

// ChatService is the orchestration surface the handler depends on.
type ChatService interface {
	StreamTurn(ctx context.Context, chatID, message string, sink relay.TokenSink) relay.Result
	Detail(ctx context.Context, chatID string) (*model.ChatDetail, error)
	Rename(ctx context.Context, chatID, title string) error
	Delete(ctx context.Context, chatID string) error
}

type ChatHandler struct {
	ChatService ChatService
	Logger      *zap.SugaredLogger
}

func NewChatHandler(svc ChatService, logger *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{ChatService: svc, Logger: logger}
}

func (h *ChatHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Warnw("could not encode json", "error", err)
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

// HandleStream runs a chat turn and streams the reply as plain text chunks,
// flushed per token. The client dropping the connection cancels generation.
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatID"]
	if chatID == "" {
		h.writeError(w, http.StatusBadRequest, "Missing chat ID")
		return
	}

	var req model.StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'message' field")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	res := h.ChatService.StreamTurn(r.Context(), chatID, req.Message, func(token string) error {
		if _, err := w.Write([]byte(token)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	h.Logger.Infow("chat stream finished", "chat_id", chatID, "state", res.State.String())
}

// HandleGetChat returns the chat title and full message history.
func (h *ChatHandler) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatID"]

	detail, err := h.ChatService.Detail(r.Context(), chatID)
	if err != nil {
		h.Logger.Warnw("loading chat failed", "chat_id", chatID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load chat")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    detail,
		Message: "Success",
	})
}

// HandleRename updates the chat title.
func (h *ChatHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatID"]

	var req model.RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'title' field")
		return
	}

	if err := h.ChatService.Rename(r.Context(), chatID, req.Title); err != nil {
		h.Logger.Warnw("renaming chat failed", "chat_id", chatID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to rename chat")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.Response{Message: "Success"})
}

// HandleDelete removes all stored state for a chat.
func (h *ChatHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatID"]

	if err := h.ChatService.Delete(r.Context(), chatID); err != nil {
		h.Logger.Warnw("deleting chat failed", "chat_id", chatID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.Response{Message: "Success"})
}

// HandleHealth reports liveness.
func (h *ChatHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, model.Response{Message: "ok"})
}
