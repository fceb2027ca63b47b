package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krishisahai/sahai/internal/api/recovery"
	"github.com/krishisahai/sahai/internal/api/respond"
	"github.com/krishisahai/sahai/internal/auth"
	"github.com/krishisahai/sahai/internal/forum"
	"github.com/krishisahai/sahai/internal/services"
	"github.com/krishisahai/sahai/internal/store"
)

// Deps carries everything the router needs. All services are injected; the
// router creates no dependencies of its own.
type Deps struct {
	Authorizer auth.Authorizer
	Users      *services.UserService
	FarmLogs   *services.FarmLogService
	Community  *forum.CommunityService
	Hub        *forum.Hub
	Store      store.Store
	Assist     *AssistHandler
	IsHealthy  func() bool
	Metrics    prometheus.Gatherer
}

// NewRouter builds the full HTTP surface.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	userHandler := NewUserHandler(d.Users)
	forumHandler := NewForumHandler(d.Community, d.Hub, d.Store.Discussions())
	farmLogHandler := NewFarmLogHandler(d.FarmLogs)
	healthHandler := NewHealthHandler(d.IsHealthy)

	// Unauthenticated surface: health, metrics, sign-up.
	router.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")
	if d.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})).Methods("GET")
	}
	router.HandleFunc("/v0/users", userHandler.CreateUser).Methods("POST")

	// Everything else requires a valid API key.
	authed := router.PathPrefix("/v0").Subrouter()
	authed.Use(AuthMiddleware(d.Authorizer))

	authed.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	authed.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	authed.HandleFunc("/users/{userId}", userHandler.GetUser).Methods("GET")
	authed.HandleFunc("/users/{userId}", userHandler.DeleteUser).Methods("DELETE")

	authed.HandleFunc("/discussions", forumHandler.ListDiscussions).Methods("GET")
	authed.HandleFunc("/discussions", forumHandler.CreateDiscussion).Methods("POST")
	authed.HandleFunc("/discussions/stream", forumHandler.StreamDiscussions).Methods("GET")
	authed.HandleFunc("/discussions/{discussionId}", forumHandler.GetDiscussion).Methods("GET")
	authed.HandleFunc("/discussions/{discussionId}", forumHandler.EditDiscussion).Methods("PATCH")
	authed.HandleFunc("/discussions/{discussionId}", forumHandler.DeleteDiscussion).Methods("DELETE")
	authed.HandleFunc("/discussions/{discussionId}/comments", forumHandler.AddComment).Methods("POST")
	authed.HandleFunc("/discussions/{discussionId}/comments/{commentId}", forumHandler.EditComment).Methods("PATCH")
	authed.HandleFunc("/discussions/{discussionId}/comments/{commentId}", forumHandler.DeleteComment).Methods("DELETE")
	authed.HandleFunc("/discussions/{discussionId}/likes", forumHandler.ToggleLike).Methods("POST")

	authed.HandleFunc("/farm-logs", farmLogHandler.CreateEntry).Methods("POST")
	authed.HandleFunc("/farm-logs", farmLogHandler.ListEntries).Methods("GET")
	authed.HandleFunc("/farm-logs/growth-plan", farmLogHandler.GrowthPlan).Methods("GET")
	authed.HandleFunc("/farm-logs/{entryId}", farmLogHandler.DeleteEntry).Methods("DELETE")

	if d.Assist != nil {
		authed.HandleFunc("/assist/translate", d.Assist.Translate).Methods("POST")
		authed.HandleFunc("/assist/diagnose", d.Assist.Diagnose).Methods("POST")
		authed.HandleFunc("/assist/query", d.Assist.Query).Methods("POST")
		authed.HandleFunc("/assist/speech", d.Assist.Speech).Methods("POST")
		authed.HandleFunc("/weather", d.Assist.Weather).Methods("GET")
		authed.HandleFunc("/weather/alerts", d.Assist.WeatherAlerts).Methods("GET")
		authed.HandleFunc("/news", d.Assist.News).Methods("GET")
	} else {
		authed.PathPrefix("/assist/").HandlerFunc(assistUnavailable)
		authed.HandleFunc("/weather", assistUnavailable)
		authed.HandleFunc("/weather/alerts", assistUnavailable)
		authed.HandleFunc("/news", assistUnavailable)
	}

	return router
}

// assistUnavailable answers assist routes when no model key is configured.
func assistUnavailable(w http.ResponseWriter, _ *http.Request) {
	respond.WriteError(w, http.StatusServiceUnavailable, "assist is not configured")
}
