package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type riotIDRequest struct {
	Name string `json:"name" validate:"required,max=16"`
	Tag  string `json:"tag" validate:"required,max=6"`
}

func (s *Server) verifyRiotID(w http.ResponseWriter, r *http.Request) {
	var req riotIDRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := s.riot.Verify(r.Context(), req.Name, req.Tag)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) linkRiotID(w http.ResponseWriter, r *http.Request) {
	var req riotIDRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.riot.Link(r.Context(), session(r).UserID, req.Name, req.Tag)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.riot.Verify(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.progress.Matches(r.Context(), session(r).UserID, queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}
