package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/krishisahai/sahai/internal/api/respond"
	"github.com/krishisahai/sahai/internal/api/validate"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/services"
)

type FarmLogHandler struct {
	svc *services.FarmLogService
}

func NewFarmLogHandler(svc *services.FarmLogService) *FarmLogHandler {
	return &FarmLogHandler{svc: svc}
}

// CreateEntry handles POST /v0/farm-logs.
func (h *FarmLogHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Activity string `json:"activity"`
		Crop     string `json:"crop"`
		Date     string `json:"date"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.FarmLogEntry(in.Activity, in.Crop, in.Notes); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	entry := &model.FarmLogEntry{Activity: in.Activity, Crop: in.Crop, Notes: in.Notes}
	if in.Date != "" {
		d, err := time.Parse("2006-01-02", in.Date)
		if err != nil {
			respond.WriteBadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		entry.Date = d
	}
	out, err := h.svc.CreateEntry(r.Context(), actorFrom(r.Context()), entry)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListEntries handles GET /v0/farm-logs.
func (h *FarmLogHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListEntries(r.Context(), actorFrom(r.Context()))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"entries": list, "count": len(list)})
}

// DeleteEntry handles DELETE /v0/farm-logs/{entryId}.
func (h *FarmLogHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteEntry(r.Context(), actorFrom(r.Context()), mux.Vars(r)["entryId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GrowthPlan handles GET /v0/farm-logs/growth-plan.
func (h *FarmLogHandler) GrowthPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.GrowthPlan(r.Context(), actorFrom(r.Context()))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"plan": plan})
}
