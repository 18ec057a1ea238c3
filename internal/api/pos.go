package api

import (
	"net/http"

	"zervos/internal/pos"
	"zervos/internal/pricing"
)

type quoteRequest struct {
	Items         []pricing.Item       `json:"items"`
	DiscountType  pricing.DiscountType `json:"discount_type"`
	DiscountValue string               `json:"discount_value"`
}

type registerResponse struct {
	Register *pos.Register `json:"register"`
	// Quote prices the active tab.
	Quote pricing.Quote `json:"quote"`
}

func (s *Server) registerResponse(r *pos.Register) registerResponse {
	tab := r.Active()
	return registerResponse{
		Register: r,
		Quote:    s.POS.Quote(tab.Items, tab.DiscountType, tab.DiscountValue),
	}
}

// POST /api/workspaces/{ws}/pos/quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.POS.Quote(req.Items, req.DiscountType, req.DiscountValue))
}

// GET /api/workspaces/{ws}/pos/registers/{rid}
func (s *Server) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	reg, err := s.POS.Register(r.Context(), r.PathValue("ws"), r.PathValue("rid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registerResponse(reg))
}

// POST /api/workspaces/{ws}/pos/registers/{rid}/tabs
func (s *Server) handleNewTab(w http.ResponseWriter, r *http.Request) {
	reg, err := s.POS.NewTab(r.Context(), r.PathValue("ws"), r.PathValue("rid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.registerResponse(reg))
}

// POST /api/workspaces/{ws}/pos/registers/{rid}/tabs/{tid}/activate
func (s *Server) handleActivateTab(w http.ResponseWriter, r *http.Request) {
	reg, err := s.POS.ActivateTab(r.Context(), r.PathValue("ws"), r.PathValue("rid"), r.PathValue("tid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registerResponse(reg))
}

// DELETE /api/workspaces/{ws}/pos/registers/{rid}/tabs/{tid}
func (s *Server) handleCloseTab(w http.ResponseWriter, r *http.Request) {
	reg, err := s.POS.CloseTab(r.Context(), r.PathValue("ws"), r.PathValue("rid"), r.PathValue("tid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registerResponse(reg))
}

// PUT /api/workspaces/{ws}/pos/registers/{rid}/cart
func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	var u pos.CartUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	reg, err := s.POS.UpdateCart(r.Context(), r.PathValue("ws"), r.PathValue("rid"), u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registerResponse(reg))
}

// POST /api/workspaces/{ws}/pos/registers/{rid}/checkout
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	t, err := s.POS.Checkout(r.Context(), r.PathValue("ws"), r.PathValue("rid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
