// Package server exposes the assistant over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"Travia/internal/chatbot"
	"Travia/internal/storage"
	"Travia/internal/transport"
)

// SessionHeader carries the chat session id when the body does not.
const SessionHeader = "X-Session-ID"

// Handler serves the HTTP API.
type Handler struct {
	bot    *chatbot.ChatBot
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRouter creates the API router with all routes configured.
func NewRouter(bot *chatbot.ChatBot, logger *slog.Logger, tracer trace.Tracer) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{bot: bot, logger: logger, tracer: tracer}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.traced("health", h.Health))

	r.Post("/search", h.traced("search", h.Search))
	r.Post("/chat", h.traced("chat", h.Chat))
	r.Post("/compare_websites", h.traced("compare_websites", h.CompareWebsites))
	r.Post("/book", h.traced("book", h.Book))
	r.Get("/booking_history", h.traced("booking_history", h.BookingHistory))

	r.Route("/admin", func(r chi.Router) {
		r.Post("/add_route", h.traced("admin.add_route", h.AddRoute))
		r.Get("/history", h.traced("admin.history", h.History))
	})
	r.Get("/analytics/transports", h.traced("analytics.transports", h.TransportCounts))

	return r
}

func (h *Handler) traced(name string, next http.HandlerFunc) http.HandlerFunc {
	if h.tracer == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "http."+name)
		defer span.End()
		next(w, r.WithContext(ctx))
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()))
		})
	}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type bookRequest struct {
	ID string `json:"id"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  "travia",
		"sessions": h.bot.SessionCount(),
	})
}

// Search handles POST /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var f transport.Filter
	if !h.decode(w, r, &f) {
		return
	}
	results, err := h.bot.Search(r.Context(), f)
	if err != nil {
		h.internalError(w, "search failed", err)
		return
	}
	if results == nil {
		results = []transport.Option{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(results), "results": results})
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = strings.TrimSpace(r.Header.Get(SessionHeader))
	}

	reply, id, err := h.bot.Reply(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.internalError(w, "chat failed", err)
		return
	}
	w.Header().Set(SessionHeader, id)
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, SessionID: id})
}

// CompareWebsites handles POST /compare_websites.
func (h *Handler) CompareWebsites(w http.ResponseWriter, r *http.Request) {
	var f transport.Filter
	if !h.decode(w, r, &f) {
		return
	}
	matches, err := h.bot.Compare(r.Context(), f)
	if err != nil {
		h.internalError(w, "comparison failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(matches), "matches": matches})
}

// Book handles POST /book.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	opt, err := h.bot.Book(r.Context(), req.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.internalError(w, "booking failed", err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "booking": opt})
	}
}

// BookingHistory handles GET /booking_history.
func (h *Handler) BookingHistory(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w, r, storage.PriorityBooking, true)
}

// History handles GET /admin/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w, r, "", false)
}

func (h *Handler) writeHistory(w http.ResponseWriter, r *http.Request, priority string, withCount bool) {
	history, err := h.bot.History(r.Context(), priority, 0)
	if err != nil {
		h.internalError(w, "history query failed", err)
		return
	}
	if history == nil {
		history = []storage.HistoryEntry{}
	}
	resp := map[string]any{"history": history}
	if withCount {
		resp["count"] = len(history)
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddRoute handles POST /admin/add_route.
func (h *Handler) AddRoute(w http.ResponseWriter, r *http.Request) {
	var opt transport.Option
	if err := json.NewDecoder(r.Body).Decode(&opt); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "invalid JSON body"})
		return
	}

	err := h.bot.AddRoute(r.Context(), opt)
	switch {
	case errors.Is(err, storage.ErrInvalidMode):
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": err.Error()})
	case err != nil:
		h.logger.Error("failed to add route", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// TransportCounts handles GET /analytics/transports.
func (h *Handler) TransportCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.bot.ModeCounts(r.Context())
	if err != nil {
		h.internalError(w, "analytics query failed", err)
		return
	}
	if counts == nil {
		counts = []storage.ModeCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
