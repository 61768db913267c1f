package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/asset"
	"github.com/ayusman/mudra/internal/store"
)

// defaultSnapshotLimit caps /api/snapshots when no limit is given.
const defaultSnapshotLimit = 50

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	})
}

// handleStatus returns the currently published interaction state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.State.Current())
}

// handleImage serves the response image for a known asset key.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	key, ok := asset.Parse(chi.URLParam(r, "key"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown image key")
		return
	}

	path := filepath.Join(s.config.ImagesDir, key.Filename())
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	w.Header().Set("Cache-Control", "max-age=3600")
	http.ServeFile(w, r, path)
}

// handleListSnapshots handles GET /api/snapshots?limit=N.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	snaps, err := s.config.Store.Snapshots().List(limit)
	if err != nil {
		slog.Error("list snapshots", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	total, err := s.config.Store.Snapshots().Count()
	if err != nil {
		slog.Error("count snapshots", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to count snapshots")
		return
	}
	if snaps == nil {
		snaps = []*store.Snapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": snaps,
		"total":     total,
	})
}

// handleGetSnapshot handles GET /api/snapshots/{id}.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.lookupSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSnapshotImage serves the JPEG recorded for a snapshot.
func (s *Server) handleSnapshotImage(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.lookupSnapshot(w, r)
	if !ok {
		return
	}
	if _, err := os.Stat(snap.Path); err != nil {
		writeError(w, http.StatusNotFound, "snapshot file missing")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, snap.Path)
}

func (s *Server) lookupSnapshot(w http.ResponseWriter, r *http.Request) (*store.Snapshot, bool) {
	snap, err := s.config.Store.Snapshots().GetByID(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return nil, false
	}
	if err != nil {
		slog.Error("get snapshot", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return nil, false
	}
	return snap, true
}

type actionsBody struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleGetActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actionsBody{Enabled: s.config.Actions.Enabled()})
}

// handleSetActions handles PUT /api/actions with {"enabled": bool}.
func (s *Server) handleSetActions(w http.ResponseWriter, r *http.Request) {
	var body actionsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.config.Actions.SetEnabled(body.Enabled); err != nil {
		slog.Error("set actions", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update actions")
		return
	}
	writeJSON(w, http.StatusOK, actionsBody{Enabled: s.config.Actions.Enabled()})
}
