package api

import (
	"net/http"

	"zervos/internal/booking"
)

// GET /api/workspaces/{ws}/availability/dates?service_id=&member_id=&from=&to=
func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serviceID, from, to := q.Get("service_id"), q.Get("from"), q.Get("to")
	if serviceID == "" || from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "service_id, from and to are required")
		return
	}

	dates, err := s.Engine.Dates(r.Context(), r.PathValue("ws"), serviceID, q.Get("member_id"), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// GET /api/workspaces/{ws}/availability/slots?service_id=&member_id=&date=
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serviceID, date := q.Get("service_id"), q.Get("date")
	if serviceID == "" || date == "" {
		writeError(w, http.StatusBadRequest, "service_id and date are required")
		return
	}

	day, err := s.Engine.Slots(r.Context(), r.PathValue("ws"), serviceID, q.Get("member_id"), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// POST /api/workspaces/{ws}/appointments
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	req.WorkspaceID = r.PathValue("ws")

	a, err := s.Bookings.Book(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GET /api/workspaces/{ws}/appointments?from=&to=
func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	list, err := s.Bookings.List(r.Context(), r.PathValue("ws"), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": orEmpty(list)})
}

// DELETE /api/workspaces/{ws}/appointments/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	a, err := s.Bookings.Cancel(r.Context(), r.PathValue("ws"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
