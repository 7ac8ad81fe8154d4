package server

import (
	"net/http"
	"strconv"
)

type saveUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Username string `json:"username" validate:"omitempty,max=64"`
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	u, err := s.users.Ensure(r.Context(), sess.UserID, sess.Email, sess.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) saveUser(w http.ResponseWriter, r *http.Request) {
	var req saveUserRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess := session(r)
	if req.Email == "" {
		req.Email = sess.Email
	}
	if req.Username == "" {
		req.Username = sess.Username
	}

	u, err := s.users.UpdateProfile(r.Context(), sess.UserID, req.Email, req.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	d, err := s.dashboard.Get(r.Context(), sess.UserID, sess.Email, sess.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
