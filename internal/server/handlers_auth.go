package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.writeError(w, apierr.New(apierr.KindValidation, "username and password are required", nil))
		return
	}

	login, err := s.backend.Login(r.Context(), username, password, backend.LoginMeta{
		ClientAddress: r.RemoteAddr,
		UserAgent:     r.UserAgent(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.Create(w, r, login)
	if err != nil {
		s.writeError(w, apierr.New(apierr.KindAuth, "failed to establish session", err))
		return
	}

	s.logger.Info("user logged in",
		zap.String("username", sess.Username),
		zap.String("remote", r.RemoteAddr),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    login.User,
		"roles":   login.Roles,
	})
}

// handleLogout tears down the local session no matter what the remote
// side says about the token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *Session) {
	if err := s.backend.Logout(r.Context(), sess.Token); err != nil {
		s.logger.Warn("remote logout failed", zap.String("username", sess.Username), zap.Error(err))
	}
	s.sessions.Destroy(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, sess *Session) {
	status, err := s.backend.MyStatus(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  status,
	})
}
