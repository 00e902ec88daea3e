package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finsight/finsight/internal/assist"
	"github.com/finsight/finsight/internal/storage"
)

const maxTitleLength = 50

type createConversationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type addMessageRequest struct {
	Message string `json:"message"`
}

type conversationJSON struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []messageJSON `json:"messages,omitempty"`
}

type conversationSummaryJSON struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"last_message"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func handleCreateConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req createConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = deriveTitle(req.Message)
		}

		data := financialContext(r.Context(), deps.Store)
		answer := deps.Assistant.GenerateResponse(r.Context(), req.Message, nil, data)

		now := time.Now().UTC()
		conv := storage.Conversation{
			ID:        uuid.New().String(),
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		msgs := []storage.Message{
			{ID: uuid.New().String(), ConversationID: conv.ID, Role: "user", Content: req.Message, CreatedAt: now},
			{ID: uuid.New().String(), ConversationID: conv.ID, Role: "assistant", Content: answer, CreatedAt: now},
		}
		if err := deps.Store.CreateConversation(r.Context(), conv, msgs); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save conversation: %v", err)
			return
		}

		resp := conversationJSON{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
			Messages:  []messageJSON{toMessageJSON(msgs[0]), toMessageJSON(msgs[1])},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}
}

func handleListConversations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := deps.Store.ListConversations(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list conversations: %v", err)
			return
		}

		result := make([]conversationSummaryJSON, len(summaries))
		for i, cs := range summaries {
			result[i] = conversationSummaryJSON{
				ID:           cs.ID,
				Title:        cs.Title,
				LastMessage:  cs.LastMessage,
				MessageCount: cs.MessageCount,
				CreatedAt:    cs.CreatedAt,
				UpdatedAt:    cs.UpdatedAt,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"conversations": result})
	}
}

func handleGetConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		conv, msgs, err := deps.Store.GetConversation(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get conversation: %v", err)
			return
		}

		resp := conversationJSON{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
			Messages:  make([]messageJSON, len(msgs)),
		}
		for i, m := range msgs {
			resp.Messages[i] = toMessageJSON(m)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleDeleteConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteConversation(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete conversation: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleAddMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		id := chi.URLParam(r, "id")

		var req addMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		_, msgs, err := deps.Store.GetConversation(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get conversation: %v", err)
			return
		}

		history := make([]assist.Turn, len(msgs))
		for i, m := range msgs {
			history[i] = assist.Turn{Role: m.Role, Content: m.Content}
		}

		data := financialContext(r.Context(), deps.Store)
		answer := deps.Assistant.GenerateResponse(r.Context(), req.Message, history, data)

		now := time.Now().UTC()
		assistantMsg := storage.Message{
			ID:             uuid.New().String(),
			ConversationID: id,
			Role:           "assistant",
			Content:        answer,
			CreatedAt:      now,
		}
		newMsgs := []storage.Message{
			{ID: uuid.New().String(), ConversationID: id, Role: "user", Content: req.Message, CreatedAt: now},
			assistantMsg,
		}
		if err := deps.Store.AppendMessages(r.Context(), id, newMsgs); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save messages: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toMessageJSON(assistantMsg))
	}
}

// handleQuickQuery answers a one-off question without creating a
// conversation.
func handleQuickQuery(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req addMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		data := financialContext(r.Context(), deps.Store)
		answer := deps.Assistant.GenerateResponse(r.Context(), req.Message, nil, data)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"response": answer})
	}
}

func handleSamplePrompts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"prompts": assist.SamplePrompts()})
}

func handleCacheStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"cache":      deps.Assistant.CacheStats(),
			"rate_limit": deps.Assistant.RateLimitStatus(),
		})
	}
}

// deriveTitle shortens the opening message into a conversation title.
func deriveTitle(message string) string {
	if len(message) <= maxTitleLength {
		return message
	}
	return message[:maxTitleLength] + "..."
}
