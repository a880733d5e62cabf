package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"reelpress/internal/api"
	"reelpress/internal/logging"
	"reelpress/internal/services"
)

type adminHandler struct {
	svc    *api.Service
	logger *slog.Logger
}

func (h *adminHandler) mount(r chi.Router) {
	r.Get("/queue", h.handleQueueStats)
	r.Get("/queue/dead-letters", h.handleDeadLetters)
	r.Post("/queue/dead-letters/redrive", h.handleRedrive)
	r.Delete("/queue/dead-letters", h.handlePurge)
	r.Get("/jobs", h.handleJobs)
	r.Get("/jobs/{id}", h.handleJob)
	r.Delete("/jobs/{id}", h.handleDeleteJob)
}

func (h *adminHandler) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.QueueStats(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *adminHandler) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.DeadLetters(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, api.DeadLetterListResponse{DeadLetters: items})
}

func (h *adminHandler) handleRedrive(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	for _, raw := range r.URL.Query()["id"] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, errors.New("invalid dead letter id"))
			return
		}
		ids = append(ids, id)
	}
	resp, err := h.svc.Redrive(r.Context(), ids...)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *adminHandler) handlePurge(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.PurgeDeadLetters(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *adminHandler) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.Jobs(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

func (h *adminHandler) handleJob(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *adminHandler) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteJob(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *adminHandler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin request failed", logging.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, services.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
