package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/orchestrator"

	"github.com/go-chi/chi/v5"
)

const defaultLogLimit = 200

type workflowView struct {
	*entity.Workflow
	Running bool `json:"running"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "busy": h.dispatcher.Busy()})
}

func (h *Handler) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.WorkflowRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	wf, err := h.dispatcher.Submit(r.Context(), req)
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, orchestrator.ErrInvalidJobURL), errors.Is(err, orchestrator.ErrNoJobs):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		h.logger.Error("Submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Location", "/workflows/"+wf.ID)
	writeJSON(w, http.StatusAccepted, workflowView{Workflow: wf, Running: true})
}

func (h *Handler) stopWorkflow(w http.ResponseWriter, r *http.Request) {
	if !h.dispatcher.Stop() {
		writeJSON(w, http.StatusOK, map[string]bool{"stopping": false})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"stopping": true})
}

func (h *Handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, workflowView{Workflow: wf, Running: !wf.Status.Terminal() && h.dispatcher.Busy()})
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), wf.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if tasks == nil {
		tasks = []*entity.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	logs, err := h.store.ListLogs(r.Context(), wf.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []entity.LogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) workflow(w http.ResponseWriter, r *http.Request) (*entity.Workflow, bool) {
	wf, err := h.store.GetWorkflow(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, output.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return wf, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
