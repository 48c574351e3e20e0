package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gyeh/carecost/internal/model"
	"github.com/gyeh/carecost/internal/pricing"
)

// ValidationError reports a malformed request parameter with field detail.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// parseDetailsRequest validates query parameters into a pricing request.
// Documented defaults: cy = configured target year, payerId = 1,
// place = nonfacility, mode = inperson, render = physician.
func parseDetailsRequest(r *http.Request, defaultCY int) (pricing.DetailsRequest, *ValidationError) {
	q := r.URL.Query()
	req := pricing.DetailsRequest{
		Slug: chi.URLParam(r, "slug"),
	}
	if req.Slug == "" {
		return req, &ValidationError{Field: "slug", Reason: "must not be empty"}
	}

	cy, verr := intParam(q.Get("cy"), "cy", defaultCY)
	if verr != nil {
		return req, verr
	}
	req.CY = int32(cy)

	payerID, verr := intParam(q.Get("payerId"), "payerId", 1)
	if verr != nil {
		return req, verr
	}
	req.PayerID = int64(payerID)

	var err error
	if req.Place, err = model.ParsePlace(orDefault(q.Get("place"), string(model.PlaceNonFacility))); err != nil {
		return req, &ValidationError{Field: "place", Reason: err.Error()}
	}
	if req.Mode, err = model.ParseMode(orDefault(q.Get("mode"), string(model.ModeInPerson))); err != nil {
		return req, &ValidationError{Field: "mode", Reason: err.Error()}
	}
	if req.Render, err = model.ParseRender(orDefault(q.Get("render"), string(model.RenderPhysician))); err != nil {
		return req, &ValidationError{Field: "render", Reason: err.Error()}
	}
	if req.AudioOnly, verr = boolParam(q.Get("audioOnly"), "audioOnly"); verr != nil {
		return req, verr
	}
	if req.Debug, verr = boolParam(q.Get("debug"), "debug"); verr != nil {
		return req, verr
	}

	req.MAC = strings.TrimSpace(q.Get("mac"))
	req.Locality = strings.TrimSpace(q.Get("locality"))

	return req, nil
}

func intParam(raw, field string, def int) (int, *ValidationError) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be an integer"}
	}
	return v, nil
}

func boolParam(raw, field string) (bool, *ValidationError) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ValidationError{Field: field, Reason: "must be a boolean"}
	}
	return v, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
