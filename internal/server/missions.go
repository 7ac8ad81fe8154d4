package server

import (
	"net/http"
	"strconv"
)

type acceptMissionRequest struct {
	MissionID string `json:"missionId" validate:"required,max=64"`
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	missions, err := s.missions.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) listUserMissions(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	missions, err := s.missions.List(r.Context(), session(r).UserID, activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) acceptMission(w http.ResponseWriter, r *http.Request) {
	var req acceptMissionRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	um, err := s.missions.Accept(r.Context(), session(r).UserID, req.MissionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, um)
}

func (s *Server) refreshProgress(w http.ResponseWriter, r *http.Request) {
	res, err := s.progress.Refresh(r.Context(), session(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getDailyMissions(w http.ResponseWriter, r *http.Request) {
	d, err := s.daily.Get(r.Context(), session(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
