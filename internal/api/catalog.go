package api

import (
	"net/http"

	"zervos/internal/events"
	"zervos/internal/model"
	"zervos/internal/schedule"
	"zervos/internal/slots"
)

// GET /api/workspaces/{ws}/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Store.SettingsOrDefault(r.Context(), r.PathValue("ws"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PUT /api/workspaces/{ws}/settings
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if !decodeJSON(w, r, &settings) {
		return
	}
	ws := r.PathValue("ws")
	settings.WorkspaceID = ws
	settings.Breaks = schedule.NormalizeBreaks(settings.Breaks)
	if err := settings.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Store.SaveSettings(r.Context(), &settings); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.SettingsUpdated, ws)
	writeJSON(w, http.StatusOK, &settings)
}

// GET /api/workspaces/{ws}/services
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListServices(r.Context(), r.PathValue("ws"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": orEmpty(list)})
}

// GET /api/workspaces/{ws}/services/{id}
func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.Store.GetService(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// POST /api/workspaces/{ws}/services
func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	svc := model.Service{Active: true}
	if !decodeJSON(w, r, &svc) {
		return
	}
	svc.ID = ""
	s.saveService(w, r, &svc, http.StatusCreated)
}

// PUT /api/workspaces/{ws}/services/{id}
func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	existing, err := s.Store.GetService(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	svc := *existing
	if !decodeJSON(w, r, &svc) {
		return
	}
	svc.ID = existing.ID
	s.saveService(w, r, &svc, http.StatusOK)
}

func (s *Server) saveService(w http.ResponseWriter, r *http.Request, svc *model.Service, status int) {
	svc.WorkspaceID = r.PathValue("ws")
	if svc.Breaks != nil {
		svc.Breaks = schedule.NormalizeBreaks(svc.Breaks)
	}
	if err := svc.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Store.SaveService(r.Context(), svc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.ServicesUpdated, svc.WorkspaceID)
	writeJSON(w, status, svc)
}

// DELETE /api/workspaces/{ws}/services/{id}
func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	ws := r.PathValue("ws")
	if err := s.Store.DeleteService(r.Context(), ws, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.ServicesUpdated, ws)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/workspaces/{ws}/products
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListProducts(r.Context(), r.PathValue("ws"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": orEmpty(list)})
}

// GET /api/workspaces/{ws}/products/{id}
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.GetProduct(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/workspaces/{ws}/products
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	p := model.Product{Active: true}
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = ""
	s.saveProduct(w, r, &p, http.StatusCreated)
}

// PUT /api/workspaces/{ws}/products/{id}
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	existing, err := s.Store.GetProduct(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := *existing
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = existing.ID
	s.saveProduct(w, r, &p, http.StatusOK)
}

func (s *Server) saveProduct(w http.ResponseWriter, r *http.Request, p *model.Product, status int) {
	p.WorkspaceID = r.PathValue("ws")
	if err := p.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Store.SaveProduct(r.Context(), p); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.ProductsUpdated, p.WorkspaceID)
	writeJSON(w, status, p)
}

// DELETE /api/workspaces/{ws}/products/{id}
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ws := r.PathValue("ws")
	if err := s.Store.DeleteProduct(r.Context(), ws, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.ProductsUpdated, ws)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/workspaces/{ws}/members
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListMembers(r.Context(), r.PathValue("ws"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": orEmpty(list)})
}

// GET /api/workspaces/{ws}/members/{id}
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.Store.GetMember(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// POST /api/workspaces/{ws}/members
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	m := model.TeamMember{Active: true}
	if !decodeJSON(w, r, &m) {
		return
	}
	m.ID = ""
	s.saveMember(w, r, &m, http.StatusCreated)
}

// PUT /api/workspaces/{ws}/members/{id}
func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	existing, err := s.Store.GetMember(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m := *existing
	if !decodeJSON(w, r, &m) {
		return
	}
	m.ID = existing.ID
	s.saveMember(w, r, &m, http.StatusOK)
}

func (s *Server) saveMember(w http.ResponseWriter, r *http.Request, m *model.TeamMember, status int) {
	m.WorkspaceID = r.PathValue("ws")
	if err := m.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Store.SaveMember(r.Context(), m); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.TeamMembersUpdated, m.WorkspaceID)
	writeJSON(w, status, m)
}

// DELETE /api/workspaces/{ws}/members/{id}
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	ws := r.PathValue("ws")
	if err := s.Store.DeleteMember(r.Context(), ws, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.TeamMembersUpdated, ws)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/workspaces/{ws}/timeslots?date=
func (s *Server) handleListTimeSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	list, err := s.Store.ListCapacitySlots(r.Context(), r.PathValue("ws"), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"time_slots": orEmpty(list)})
}

// POST /api/workspaces/{ws}/timeslots
func (s *Server) handleSaveTimeSlot(w http.ResponseWriter, r *http.Request) {
	c := slots.CapacitySlot{Active: true, MaxBookings: 1}
	if !decodeJSON(w, r, &c) {
		return
	}
	c.WorkspaceID = r.PathValue("ws")
	if err := schedule.ValidateDate(c.Date, "date"); err != nil {
		s.fail(w, r, model.Invalid("%v", err))
		return
	}
	if err := schedule.ValidateWindow(c.StartTime, c.EndTime, "time slot"); err != nil {
		s.fail(w, r, model.Invalid("%v", err))
		return
	}
	if c.MaxBookings < 1 || c.CurrentBookings < 0 {
		s.fail(w, r, model.Invalid("max_bookings must be at least 1"))
		return
	}
	if err := s.Store.SaveCapacitySlot(r.Context(), &c); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(events.TimeslotsUpdated, c.WorkspaceID)
	writeJSON(w, http.StatusOK, &c)
}

// GET /api/workspaces/{ws}/customers
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListCustomers(r.Context(), r.PathValue("ws"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": orEmpty(list)})
}
