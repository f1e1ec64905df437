package server

import (
	"encoding/json"
	"net/http"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request, sess *Session) {
	pos, err := s.backend.GetPosition(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"position": pos,
	})
}

type learningSaveRequest struct {
	RoutineName string             `json:"routineName"`
	Description string             `json:"description"`
	Movements   []backend.Movement `json:"movements"`
}

func (s *Server) handleLearningSave(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req learningSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apierr.New(apierr.KindValidation, "malformed JSON body", err))
		return
	}

	gen, err := s.learning.Save(r.Context(), sess.Token, req.RoutineName, req.Description, req.Movements)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"routine": gen,
	})
}
