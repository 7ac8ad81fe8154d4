package server

import "net/http"

type tierRequest struct {
	Tier string `json:"tier" validate:"required,max=32"`
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	ov, err := s.subscriptions.Overview(r.Context(), session(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) changeSubscription(w http.ResponseWriter, r *http.Request) {
	var req tierRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ov, err := s.subscriptions.ChangeTier(r.Context(), session(r).UserID, req.Tier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	ov, err := s.subscriptions.Cancel(r.Context(), session(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) listCheckoutLinks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.subscriptions.CheckoutLinks(session(r).UserID))
}

func (s *Server) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req tierRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	link, err := s.subscriptions.Checkout(session(r).UserID, req.Tier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) syncKofi(w http.ResponseWriter, r *http.Request) {
	ov, err := s.subscriptions.SyncKofi(r.Context(), session(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}
