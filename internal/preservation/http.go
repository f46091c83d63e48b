package preservation

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HTTPHandler exposes the artifact intake and preservation endpoints.
type HTTPHandler struct {
	ingestor     *Ingestor
	registry     *LocationRegistry
	events       *EventLog
	logger       *zap.Logger
	maxSizeBytes int64
	formMemBytes int64
	router       chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(ingestor *Ingestor, registry *LocationRegistry, events *EventLog, logger *zap.Logger, maxSizeBytes, formMemBytes int64) *HTTPHandler {
	h := &HTTPHandler{
		ingestor:     ingestor,
		registry:     registry,
		events:       events,
		logger:       logger,
		maxSizeBytes: maxSizeBytes,
		formMemBytes: formMemBytes,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()

	r.Post("/", h.handleIngest)
	r.Get("/{artifactID}/status", h.handleStatus)
	r.Get("/{artifactID}/locations", h.handleLocations)
	r.Get("/{artifactID}/events", h.handleEvents)
	r.Post("/{artifactID}/replicate", h.handleReplicate)
	r.Post("/{artifactID}/verify-fixity", h.handleVerifyFixity)

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > 0 && r.ContentLength > h.maxSizeBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if err := r.ParseMultipartForm(h.formMemBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxSizeBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds max size limit")
		return
	}

	meta := IngestionMetadata{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Creator:      r.FormValue("creator"),
		CreationDate: r.FormValue("creation_date"),
		Notes:        r.FormValue("notes"),
	}
	agent := r.FormValue("agent")

	result, err := h.ingestor.Ingest(r.Context(), file, header.Filename, meta, agent)
	if err != nil {
		h.logger.Error("artifact intake failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	projection, err := h.ingestor.ArtifactStatus(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

func (h *HTTPHandler) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.registry.Locations(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"artifact_id": chi.URLParam(r, "artifactID"),
		"locations":   locations,
	})
}

func (h *HTTPHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	var typeFilter EventType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := ParseEventType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		typeFilter = parsed
	}

	events, err := h.events.Events(r.Context(), chi.URLParam(r, "artifactID"), typeFilter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"artifact_id": chi.URLParam(r, "artifactID"),
		"events":      events,
	})
}

func (h *HTTPHandler) handleReplicate(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.registry.ReplicateToArchive(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ticket)
}

func (h *HTTPHandler) handleVerifyFixity(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "artifactID")
	match, mismatches, err := h.ingestor.VerifyFixity(r.Context(), artifactID, r.URL.Query().Get("agent"))
	if err != nil {
		h.logger.Error("fixity verification failed", zap.String("artifact_id", artifactID), zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"artifact_id": artifactID,
		"match":       match,
		"mismatches":  mismatches,
		"verified_at": time.Now().UTC(),
	})
}

// writeDomainError maps the error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch KindOf(err) {
	case KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case KindNotFound:
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
