package api

import (
	"encoding/json"
	"net/http"

	"github.com/krishisahai/sahai/internal/api/respond"
	"github.com/krishisahai/sahai/internal/api/validate"
	"github.com/krishisahai/sahai/internal/assist"
	"github.com/krishisahai/sahai/internal/weather"
)

// AssistHandler exposes the AI flows and the weather-backed advisories.
type AssistHandler struct {
	assist  *assist.Service
	weather *weather.Client
}

func NewAssistHandler(a *assist.Service, w *weather.Client) *AssistHandler {
	return &AssistHandler{assist: a, weather: w}
}

// location picks an explicit query param over the actor's profile location.
func (h *AssistHandler) location(r *http.Request) string {
	if loc := r.URL.Query().Get("location"); loc != "" {
		return loc
	}
	return actorFrom(r.Context()).Location
}

// Translate handles POST /v0/assist/translate.
func (h *AssistHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := h.assist.TranslateText(r.Context(), in.Text)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Diagnose handles POST /v0/assist/diagnose.
func (h *AssistHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PhotoDataURI string `json:"photoDataUri"`
		Symptoms     string `json:"symptoms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := h.assist.DiagnosePlant(r.Context(), in.PhotoDataURI, in.Symptoms)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Query handles POST /v0/assist/query.
func (h *AssistHandler) Query(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query        string `json:"query"`
		Location     string `json:"location"`
		PhotoDataURI string `json:"photoDataUri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if in.Location == "" {
		in.Location = actorFrom(r.Context()).Location
	}
	out, err := h.assist.AnswerQuery(r.Context(), in.Query, in.Location, in.PhotoDataURI)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Speech handles POST /v0/assist/speech.
func (h *AssistHandler) Speech(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AudioDataURI string `json:"audioDataUri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	text, err := h.assist.SpeechToText(r.Context(), in.AudioDataURI)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Weather handles GET /v0/weather. Current conditions only.
func (h *AssistHandler) Weather(w http.ResponseWriter, r *http.Request) {
	loc := h.location(r)
	if err := validate.NonEmpty("location", loc); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	cur, err := h.weather.CurrentFor(r.Context(), loc)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, cur)
}

// WeatherAlerts handles GET /v0/weather/alerts. Conditions are fetched, then
// turned into advisories by the model.
func (h *AssistHandler) WeatherAlerts(w http.ResponseWriter, r *http.Request) {
	loc := h.location(r)
	if err := validate.NonEmpty("location", loc); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	cur, err := h.weather.CurrentFor(r.Context(), loc)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	alerts, err := h.assist.WeatherAlerts(r.Context(), loc, cur)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"location": loc, "current": cur, "alerts": alerts})
}

// News handles GET /v0/news.
func (h *AssistHandler) News(w http.ResponseWriter, r *http.Request) {
	loc := h.location(r)
	if err := validate.NonEmpty("location", loc); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	articles, err := h.assist.LocalNews(r.Context(), loc)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"location": loc, "articles": articles})
}
