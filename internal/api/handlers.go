package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/draftaid/draftaid/internal/auth"
	"github.com/draftaid/draftaid/internal/core"
	"github.com/draftaid/draftaid/internal/retry"
)

type contextKey string

const userIDKey contextKey = "userID"

type APIHandler struct {
	orchestrator *core.Orchestrator
	auth         *auth.Authenticator
	logger       *zap.Logger
}

func NewAPIHandler(orchestrator *core.Orchestrator, authenticator *auth.Authenticator, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		orchestrator: orchestrator,
		auth:         authenticator,
		logger:       logger,
	}
}

func (h *APIHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		credential := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := h.auth.Validate(credential)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type LoginRequest struct {
	UserID string `json:"user_id"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	token, err := h.auth.GenerateJWT(req.UserID)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type StartSessionRequest struct {
	UserProfile core.UserProfile `json:"user_profile"`
}

func (h *APIHandler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserProfile.UserID == "" {
		if userID, ok := r.Context().Value(userIDKey).(string); ok {
			req.UserProfile.UserID = userID
		}
	}

	sessionID, err := h.orchestrator.StartSession(req.UserProfile)
	if err != nil {
		h.writeDomainError(w, err, "Failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

type UpdateDraftRequest struct {
	Draft          string `json:"draft"`
	CursorPosition int    `json:"cursor_position"`
}

func (h *APIHandler) UpdateDraftHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	payload, err := h.orchestrator.UpdateDraft(r.Context(), sessionID, req.Draft, req.CursorPosition)
	if err != nil {
		h.writeDomainError(w, err, "Failed to process draft update")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *APIHandler) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	summary, err := h.orchestrator.EndSession(sessionID)
	if err != nil {
		h.writeDomainError(w, err, "Failed to end session")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type AnalyzeBlogsRequest struct {
	BlogPosts []core.BlogPost `json:"blog_posts"`
}

type AnalyzeBlogsResponse struct {
	Results []core.BlogAnalysisResult `json:"results"`
}

func (h *APIHandler) AnalyzeBlogsHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeBlogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := h.orchestrator.AnalyzeBlogPosts(r.Context(), req.BlogPosts)
	if err != nil {
		h.writeDomainError(w, err, "Failed to analyze blog posts")
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeBlogsResponse{Results: results})
}

type RecommendKeywordsRequest struct {
	CurrentDraft  string            `json:"current_draft"`
	CursorContext string            `json:"cursor_context"`
	UserProfile   *core.UserProfile `json:"user_profile,omitempty"`
}

func (h *APIHandler) RecommendKeywordsHandler(w http.ResponseWriter, r *http.Request) {
	var req RecommendKeywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	recommendation, err := h.orchestrator.RecommendKeywords(r.Context(), req.CurrentDraft, req.CursorContext, req.UserProfile)
	if err != nil {
		h.writeDomainError(w, err, "Failed to recommend keywords")
		return
	}
	writeJSON(w, http.StatusOK, recommendation)
}

type ScoreBlogRequest struct {
	Content     string            `json:"content"`
	UserProfile *core.UserProfile `json:"user_profile,omitempty"`
}

func (h *APIHandler) ScoreBlogHandler(w http.ResponseWriter, r *http.Request) {
	var req ScoreBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.orchestrator.ScoreContent(req.Content, req.UserProfile)
	if err != nil {
		h.writeDomainError(w, err, "Failed to score content")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator.Status())
}

// writeDomainError maps domain errors onto HTTP status codes. Anything
// unrecognized is logged and reported as a 500 without leaking detail.
func (h *APIHandler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var validation *core.ValidationError
	var exhausted *retry.ExhaustedError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, core.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, retry.ErrCircuitOpen), errors.As(err, &exhausted):
		writeError(w, http.StatusServiceUnavailable, "Analysis service is temporarily unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "Request canceled")
	default:
		h.logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
