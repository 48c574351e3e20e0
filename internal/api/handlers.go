package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/carecost/internal/model"
	"github.com/gyeh/carecost/internal/pricing"
)

// Pricer computes workflow pricing details.
type Pricer interface {
	WorkflowDetails(ctx context.Context, req pricing.DetailsRequest) (*pricing.Details, error)
}

// Catalog serves the simple reference browses used to populate UIs.
type Catalog interface {
	ListActiveWorkflows(ctx context.Context) ([]model.Workflow, error)
	ListPayers(ctx context.Context) ([]model.Payer, error)
	ListDistinctLocalities(ctx context.Context, cy int32) ([]model.Locality, error)
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	pricer    Pricer
	catalog   Catalog
	defaultCY int
	log       zerolog.Logger
}

// NewHandlers creates new handlers.
func NewHandlers(pricer Pricer, catalog Catalog, defaultCY int, log zerolog.Logger) *Handlers {
	return &Handlers{
		pricer:    pricer,
		catalog:   catalog,
		defaultCY: defaultCY,
		log:       log,
	}
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "carecost",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListWorkflows returns the active workflows.
func (h *Handlers) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.catalog.ListActiveWorkflows(r.Context())
	if err != nil {
		h.internalError(w, err, "list workflows")
		return
	}
	if workflows == nil {
		workflows = []model.Workflow{}
	}
	respond(w, http.StatusOK, workflows)
}

// ListPayers returns all payers.
func (h *Handlers) ListPayers(w http.ResponseWriter, r *http.Request) {
	payers, err := h.catalog.ListPayers(r.Context())
	if err != nil {
		h.internalError(w, err, "list payers")
		return
	}
	if payers == nil {
		payers = []model.Payer{}
	}
	respond(w, http.StatusOK, payers)
}

// localityOption is the UI-facing shape of a MAC/locality pair.
type localityOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	MAC      string `json:"mac"`
	Locality string `json:"locality"`
}

// ListLocalities returns distinct MAC/locality pairs priced in the year.
func (h *Handlers) ListLocalities(w http.ResponseWriter, r *http.Request) {
	cy, verr := intParam(r.URL.Query().Get("cy"), "cy", h.defaultCY)
	if verr != nil {
		respondValidation(w, verr)
		return
	}

	localities, err := h.catalog.ListDistinctLocalities(r.Context(), int32(cy))
	if err != nil {
		h.internalError(w, err, "list localities")
		return
	}

	opts := make([]localityOption, len(localities))
	for i, l := range localities {
		opts[i] = localityOption{
			ID:       l.MAC + "|" + l.Number,
			Label:    fmt.Sprintf("MAC %s / Loc %s", l.MAC, l.Number),
			MAC:      l.MAC,
			Locality: l.Number,
		}
	}
	respond(w, http.StatusOK, opts)
}

// WorkflowDetails prices a workflow under the requested payer, year, place,
// telehealth mode, and rendering clinician.
func (h *Handlers) WorkflowDetails(w http.ResponseWriter, r *http.Request) {
	req, verr := parseDetailsRequest(r, h.defaultCY)
	if verr != nil {
		respondValidation(w, verr)
		return
	}

	details, err := h.pricer.WorkflowDetails(r.Context(), req)
	switch {
	case errors.Is(err, pricing.ErrWorkflowNotFound):
		respondError(w, http.StatusNotFound, "Workflow not found")
		return
	case errors.Is(err, pricing.ErrInvalidPayer):
		respondError(w, http.StatusBadRequest, "Invalid payerId")
		return
	case err != nil:
		h.internalError(w, err, "workflow details")
		return
	}

	respond(w, http.StatusOK, details)
}

// internalError logs the full cause server-side and surfaces an opaque 500.
func (h *Handlers) internalError(w http.ResponseWriter, err error, op string) {
	h.log.Error().Err(err).Str("op", op).Msg("storage failure")
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

func respondValidation(w http.ResponseWriter, verr *ValidationError) {
	respond(w, http.StatusBadRequest, map[string]any{
		"error": verr.Error(),
		"field": verr.Field,
	})
}
