package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baxromumarov/job-sentinel/internal/core"
	"github.com/baxromumarov/job-sentinel/internal/observability"
	"github.com/baxromumarov/job-sentinel/internal/resume"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.sentinel.State())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats":   s.sentinel.Stats(),
		"runtime": observability.Snapshot(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": s.sentinel.Logs()})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": s.sentinel.Agents()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.sentinel.Reset(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sentinel.State())
}

// Profile

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.sentinel.Profile()
	if !ok {
		respondError(w, http.StatusNotFound, "No profile locked")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type SetSourceRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req SetSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.sentinel.SetSourceText(req.Text)
	respondJSON(w, http.StatusOK, s.sentinel.State())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, resume.MaxUploadBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}
	if len(data) > resume.MaxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "Document is too large")
		return
	}

	text, err := resume.Extract(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sentinel.ImportDocument(header.Filename, text); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sentinel.State())
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	s.sentinel.LoadSample()
	respondJSON(w, http.StatusOK, s.sentinel.State())
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	profile, err := s.sentinel.LockProfile(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Watchlist

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": s.sentinel.Watchlist()})
}

type AddWatchRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Domain string `json:"domain" validate:"required,max=255"`
}

func (s *Server) handleAddWatch(w http.ResponseWriter, r *http.Request) {
	var req AddWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "name and domain are required")
		return
	}

	entry, err := s.sentinel.AddWatch(req.Name, req.Domain)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveWatch(w http.ResponseWriter, r *http.Request) {
	if err := s.sentinel.RemoveWatch(chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// Alerts

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	view := core.Partition(r.URL.Query().Get("view"))
	switch view {
	case "":
		view = core.PartitionActive
	case core.PartitionActive, core.PartitionArchived:
	default:
		respondError(w, http.StatusBadRequest, "view must be active or archived")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"view":  view,
		"items": s.sentinel.Alerts(view),
	})
}

func (s *Server) handleToggleArchive(w http.ResponseWriter, r *http.Request) {
	alert, err := s.sentinel.ToggleArchive(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alert)
}

// Monitor

func (s *Server) handleMonitorState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]core.MonitorState{"state": s.sentinel.MonitorState()})
}

func (s *Server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	if !s.sentinel.StartMonitor() {
		respondError(w, http.StatusConflict, "Lock a profile before starting the monitor")
		return
	}
	respondJSON(w, http.StatusOK, map[string]core.MonitorState{"state": s.sentinel.MonitorState()})
}

func (s *Server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	s.sentinel.StopMonitor()
	respondJSON(w, http.StatusOK, map[string]core.MonitorState{"state": s.sentinel.MonitorState()})
}
