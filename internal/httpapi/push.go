package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/scheduler"
	"github.com/hamed0406/sitewatch/internal/store"
)

type pushPayload struct {
	Status  *int   `json:"status"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

// handlePush ingests one heartbeat. The token is the push monitor's ID
// or its address, so agents can use either the generated ID or a
// self-chosen token.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	t, err := s.resolvePushTarget(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown push token")
		return
	}
	if err != nil {
		s.log.Error("push_resolve_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not resolve push token")
		return
	}

	status := domain.StatusUp
	if raw := r.URL.Query().Get("status"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n == 0 {
			status = domain.StatusDown
		}
	}
	msg := r.URL.Query().Get("msg")

	if r.Method == http.MethodPost && r.Body != nil {
		var p pushPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			if p.Status != nil && *p.Status == 0 {
				status = domain.StatusDown
			}
			if p.Msg != "" {
				msg = p.Msg
			} else if p.Message != "" {
				msg = p.Message
			}
		}
	}

	if err := s.sched.RecordHeartbeat(r.Context(), t.ID, status, msg); err != nil {
		if errors.Is(err, scheduler.ErrNotPushTarget) {
			writeError(w, http.StatusBadRequest, "monitor has no push type")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown push token")
			return
		}
		s.log.Error("push_record_failed", zap.String("target_id", t.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not record heartbeat")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// resolvePushTarget tries the token as a monitor ID first, then as the
// address of a push-typed monitor.
func (s *Server) resolvePushTarget(ctx context.Context, token string) (*domain.Target, error) {
	t, err := s.store.Target(ctx, token)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	targets, err := s.store.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t.Address == token && t.HasType(domain.CheckPush) {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}
