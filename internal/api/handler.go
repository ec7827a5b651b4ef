package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/traincfg/internal/augment"
	"github.com/eugenenazirov/traincfg/internal/registry"
	"github.com/eugenenazirov/traincfg/internal/schedule"
	"github.com/eugenenazirov/traincfg/internal/schema"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxDocumentBytes bounds the size of an uploaded configuration document.
const maxDocumentBytes = 1 << 20

// Handler wires the registry into HTTP handlers for validating and storing
// training configurations.
type Handler struct {
	registry registry.Registry

	clock func() time.Time

	mu        sync.RWMutex
	updatedAt map[string]time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(reg registry.Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry:  reg,
		updatedAt: make(map[string]time.Time),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListAugments(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, augmentsResponse{Augments: augment.Names()})
}

// handleValidate parses the YAML document in the request body and responds
// with the normalized configuration and its derived plan, or with the typed
// error the loader produced.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	cfg, err := schema.Parse(body)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	plan := schedule.BuildPlan(cfg)
	writeJSON(w, http.StatusOK, configResponse{
		Valid:  true,
		Config: cfg,
		Plan:   &plan,
	})
}

func (h *Handler) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	_ = r
	names := h.registry.List()
	writeJSON(w, http.StatusOK, configListResponse{
		Configs: names,
		Count:   len(names),
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	cfg, err := h.registry.Get(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Unknown configuration", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	plan := schedule.BuildPlan(cfg)
	writeJSON(w, http.StatusOK, configResponse{
		Valid:     true,
		Name:      name,
		Config:    cfg,
		Plan:      &plan,
		UpdatedAt: h.configUpdatedAt(name),
	})
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	cfg, err := schema.Parse(body)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	if err := h.registry.Put(name, cfg); err != nil {
		if errors.Is(err, registry.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, "Invalid configuration name", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	h.markConfigUpdated(name)

	plan := schedule.BuildPlan(cfg)
	writeJSON(w, http.StatusOK, configResponse{
		Valid:     true,
		Name:      name,
		Config:    cfg,
		Plan:      &plan,
		UpdatedAt: h.configUpdatedAt(name),
		Message:   "Configuration stored successfully",
	})
}

func (h *Handler) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.registry.Delete(name); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Unknown configuration", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.mu.Lock()
	delete(h.updatedAt, name)
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// readDocument reads the YAML payload off the request, bounding its size.
func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Document too large", "configuration documents are limited to 1 MiB")
		return nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Empty request", "request body must contain a YAML configuration document")
		return nil, false
	}
	return body, true
}

func (h *Handler) configUpdatedAt(name string) time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updatedAt[name]
}

func (h *Handler) markConfigUpdated(name string) {
	h.mu.Lock()
	h.updatedAt[name] = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configResponse struct {
	Valid     bool           `json:"valid"`
	Name      string         `json:"name,omitempty"`
	Config    *schema.Config `json:"config"`
	Plan      *schedule.Plan `json:"plan,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
	Message   string         `json:"message,omitempty"`
}

type configListResponse struct {
	Configs []string `json:"configs"`
	Count   int      `json:"count"`
}

type augmentsResponse struct {
	Augments []string `json:"augments"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Field      string `json:"field,omitempty"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

// writeConfigError maps the loader's error taxonomy onto HTTP statuses:
// malformed or mistyped documents are client errors, invariant violations
// are unprocessable.
func writeConfigError(w http.ResponseWriter, err error) {
	var (
		parseErr      *schema.ParseError
		schemaErr     *schema.SchemaError
		validationErr *schema.ValidationError
	)
	switch {
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Malformed document",
			Kind:    "parse",
			Details: parseErr.Error(),
		})
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Schema violation",
			Kind:    "schema",
			Field:   schemaErr.Field,
			Details: schemaErr.Reason,
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "Invalid configuration",
			Kind:    "validation",
			Field:   validationErr.Field,
			Details: validationErr.Reason,
		})
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
