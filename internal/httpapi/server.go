package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/scheduler"
	"github.com/hamed0406/sitewatch/internal/state"
	"github.com/hamed0406/sitewatch/internal/stats"
	"github.com/hamed0406/sitewatch/internal/store"
)

type Server struct {
	log      *zap.Logger
	store    store.Store
	sched    *scheduler.Scheduler
	stats    *stats.Aggregator
	notifier *notify.Dispatcher
	tracker  *state.Tracker
}

func NewServer(log *zap.Logger, st store.Store, sched *scheduler.Scheduler, agg *stats.Aggregator, notifier *notify.Dispatcher, tracker *state.Tracker) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:      log,
		store:    st,
		sched:    sched,
		stats:    agg,
		notifier: notifier,
		tracker:  tracker,
	}
}

// Router builds the full route tree. rateLimitPerMin <= 0 disables the
// per-IP limiter.
func (s *Server) Router(rateLimitPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RateLimit(rateLimitPerMin, burst))

		api.Get("/monitors", s.handleListMonitors)
		api.Post("/monitors", s.handleCreateMonitor)
		api.Get("/monitors/{id}", s.handleGetMonitor)
		api.Put("/monitors/{id}", s.handleUpdateMonitor)
		api.Delete("/monitors/{id}", s.handleDeleteMonitor)
		api.Post("/monitors/{id}/check", s.handleCheckMonitor)
		api.Get("/monitors/{id}/logs", s.handleMonitorLogs)

		api.Get("/push/{token}", s.handlePush)
		api.Post("/push/{token}", s.handlePush)

		api.Get("/notify-channels", s.handleListChannels)
		api.Post("/notify-channels", s.handleCreateChannel)
		api.Delete("/notify-channels/{id}", s.handleDeleteChannel)
		api.Post("/notify-channels/{id}/test", s.handleTestChannel)

		api.Get("/events", s.handleEvents)
		api.Get("/stats", s.handleStats)
	})

	return r
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	events, err := s.store.RecentEvents(r.Context(), limit)
	if err != nil {
		s.log.Error("events_list_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list events")
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summary(r.Context())
	if err != nil {
		s.log.Error("stats_summary_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not compute stats")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
