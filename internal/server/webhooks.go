package server

import (
	"net/http"
	"valorant-missions/internal/kofi"
)

func (s *Server) kofiWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.webhooks.HandleKofi(r.Context(), body, r.Header.Get(kofi.SignatureHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) clerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.webhooks.HandleClerk(r.Context(), body, r.Header)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
