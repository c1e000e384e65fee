package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/application"
	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *application.RecordService
	log     *zap.Logger
}

func NewRouter(service *application.RecordService, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{service: service, log: log}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Post("/auth/login", h.handleLogin)

	r.Route("/records", func(rr chi.Router) {
		rr.Use(h.requireAuth)
		rr.Get("/", h.handleSearchRecords)
		rr.Post("/", h.handleCreateRecord)
		rr.Delete("/{id}", h.handleDeleteRecord)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.service.AuthRequired() {
		writeDetail(w, http.StatusNotFound, "authentication is not configured")
		return
	}
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	token, expiresAt, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_at": expiresAt.Format(time.RFC3339)})
}

func (h *Handler) handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.SearchRecords(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordInput
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	v, err := h.service.CreateRecord(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		writeDetail(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	id := uint(parsed)
	if err := h.service.DeleteRecord(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "record deleted", "id": id})
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.service.AuthRequired() {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		identity, err := h.service.AuthenticateBearerToken(r.Context(), token)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.log.Debug("token accepted",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("user", identity.Username),
			zap.String("token_id", identity.TokenID))
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	return token, token != ""
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		}
		if status >= http.StatusInternalServerError {
			h.log.Error("request", fields...)
			return
		}
		h.log.Info("request", fields...)
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeDetail(w, status, "storage unavailable")
		return
	}
	if domain.IsNotFound(err) {
		writeDetail(w, status, "Record not found")
		return
	}
	writeDetail(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(out)
}

func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"detail": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
