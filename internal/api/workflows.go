package api

import (
	"net/http"

	"zervos/internal/model"
)

// GET /api/workspaces/{ws}/workflows
func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	list, err := s.Workflows.List(r.Context(), r.PathValue("ws"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": orEmpty(list)})
}

// GET /api/workspaces/{ws}/workflows/{id}
func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.Workflows.Get(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// POST /api/workspaces/{ws}/workflows
func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := model.Workflow{Active: true}
	if !decodeJSON(w, r, &wf) {
		return
	}
	if err := s.Workflows.Create(r.Context(), r.PathValue("ws"), &wf); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &wf)
}

// PUT /api/workspaces/{ws}/workflows/{id}
func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	if !decodeJSON(w, r, &wf) {
		return
	}
	if err := s.Workflows.Update(r.Context(), r.PathValue("ws"), r.PathValue("id"), &wf); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &wf)
}

// PUT /api/workspaces/{ws}/workflows/{id}/active
func (s *Server) handleSetWorkflowActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	wf, err := s.Workflows.SetActive(r.Context(), r.PathValue("ws"), r.PathValue("id"), body.Active)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// DELETE /api/workspaces/{ws}/workflows/{id}
func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.Workflows.Delete(r.Context(), r.PathValue("ws"), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/workspaces/{ws}/workflows/{id}/preview
func (s *Server) handlePreviewWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Variables map[string]string `json:"variables"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	actions, err := s.Workflows.Preview(r.Context(), r.PathValue("ws"), r.PathValue("id"), body.Variables)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}
