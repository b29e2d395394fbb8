package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

type channelPayload struct {
	domain.Channel
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	if err != nil {
		s.log.Error("channel_list_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list channels")
		return
	}
	if channels == nil {
		channels = []*domain.Channel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var p channelPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}

	c := p.Channel
	c.ID = ""
	c.Enabled = true
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if strings.TrimSpace(c.Name) == "" {
		writeError(w, http.StatusBadRequest, "channel name is required")
		return
	}
	if strings.TrimSpace(c.Provider) == "" {
		writeError(w, http.StatusBadRequest, "channel type is required")
		return
	}
	if c.Config == nil {
		c.Config = map[string]string{}
	}

	if err := s.store.CreateChannel(r.Context(), &c); err != nil {
		s.log.Error("channel_create_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create channel")
		return
	}

	s.log.Info("channel_created",
		zap.String("channel_id", c.ID),
		zap.String("provider", c.Provider))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": c.ID})
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteChannel(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "channel not found")
			return
		}
		s.log.Error("channel_delete_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete channel")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleTestChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notifier.Test(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "channel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
