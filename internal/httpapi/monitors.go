package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/stats"
	"github.com/hamed0406/sitewatch/internal/store"
)

// monitorPayload shadows Enabled with a pointer so an omitted field can
// default to on (create) or to the stored value (update).
type monitorPayload struct {
	domain.Target
	Enabled *bool `json:"enabled"`
}

type monitorList struct {
	Monitors []*stats.Overview `json:"monitors"`
	Stats    *stats.Summary    `json:"stats"`
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	targets, err := s.store.ListTargets(r.Context())
	if err != nil {
		s.log.Error("monitor_list_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list monitors")
		return
	}

	out := monitorList{Monitors: make([]*stats.Overview, 0, len(targets))}
	for _, t := range targets {
		ov, err := s.stats.TargetOverview(r.Context(), t)
		if err != nil {
			s.log.Error("monitor_overview_failed",
				zap.String("target_id", t.ID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not build overview")
			return
		}
		out.Monitors = append(out.Monitors, ov)
	}

	summary, err := s.stats.Summary(r.Context())
	if err != nil {
		s.log.Error("stats_summary_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not compute stats")
		return
	}
	out.Stats = summary

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMonitor(w http.ResponseWriter, r *http.Request) {
	var p monitorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}

	t := p.Target
	t.ID = ""
	t.Enabled = true
	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateTarget(r.Context(), &t); err != nil {
		s.log.Error("monitor_create_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create monitor")
		return
	}

	if err := s.store.AppendEvent(r.Context(), &domain.Event{
		TargetID: t.ID,
		Kind:     domain.EventCreate,
		Message:  fmt.Sprintf("monitor created: %s", t.Name),
	}); err != nil {
		s.log.Warn("event_append_failed", zap.String("target_id", t.ID), zap.Error(err))
	}

	s.sched.Schedule(&t)

	// first verdict without waiting for the first tick interval
	go func(id string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.sched.CheckNow(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("initial_check_failed", zap.String("target_id", id), zap.Error(err))
		}
	}(t.ID)

	s.log.Info("monitor_created",
		zap.String("target_id", t.ID),
		zap.String("name", t.Name))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": t.ID})
}

func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Target(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	if err != nil {
		s.log.Error("monitor_get_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load monitor")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.store.Target(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	if err != nil {
		s.log.Error("monitor_get_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load monitor")
		return
	}

	var p monitorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}

	t := p.Target
	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	t.Enabled = existing.Enabled
	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateTarget(r.Context(), &t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "monitor not found")
			return
		}
		s.log.Error("monitor_update_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not update monitor")
		return
	}

	s.sched.Reschedule(&t)

	s.log.Info("monitor_updated", zap.String("target_id", t.ID))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := s.store.Target(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	if err != nil {
		s.log.Error("monitor_get_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load monitor")
		return
	}

	if err := s.store.DeleteTarget(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "monitor not found")
			return
		}
		s.log.Error("monitor_delete_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete monitor")
		return
	}

	s.sched.Unschedule(id)
	s.tracker.Purge(id)

	if err := s.store.AppendEvent(r.Context(), &domain.Event{
		Kind:    domain.EventDelete,
		Message: fmt.Sprintf("monitor deleted: %s", t.Name),
	}); err != nil {
		s.log.Warn("event_append_failed", zap.String("target_id", id), zap.Error(err))
	}

	s.log.Info("monitor_deleted", zap.String("target_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCheckMonitor(w http.ResponseWriter, r *http.Request) {
	res, err := s.sched.CheckNow(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	if err != nil {
		s.log.Error("manual_check_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMonitorLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.Target(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	} else if err != nil {
		s.log.Error("monitor_get_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load monitor")
		return
	}

	logs, err := s.store.Logs(r.Context(), id, queryInt(r, "limit", 100))
	if err != nil {
		s.log.Error("monitor_logs_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list logs")
		return
	}
	if logs == nil {
		logs = []*domain.CheckLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
