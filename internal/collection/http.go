package collection

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/your-org/preservd/internal/preservation"
)

// HTTPHandler exposes the collection draft/finalize endpoints.
type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
	router  chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	h := &HTTPHandler{
		service: service,
		logger:  logger,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()

	r.Post("/", h.handleCreateDraft)
	r.Get("/", h.handleList)
	r.Get("/{collectionID}", h.handleGet)
	r.Post("/{collectionID}/finalize", h.handleFinalize)

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.service.CreateDraft(r.Context(), req)
	if err != nil {
		h.logger.Error("create collection draft failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (h *HTTPHandler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	sealed, err := h.service.Finalize(r.Context(), collectionID)
	if err != nil {
		h.logger.Error("finalize collection failed",
			zap.String("collection_id", collectionID), zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sealed)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var status Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	limit := queryInt(r, "limit", 50)
	skip := queryInt(r, "skip", 0)

	items, total, err := h.service.List(r.Context(), status, limit, skip)
	if err != nil {
		h.logger.Error("list collections failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

func queryInt(r *http.Request, key string, fallback int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch preservation.KindOf(err) {
	case preservation.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case preservation.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
