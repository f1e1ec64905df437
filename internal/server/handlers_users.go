package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

func parseRole(value string) (backend.Role, error) {
	switch backend.Role(strings.ToUpper(strings.TrimSpace(value))) {
	case backend.RoleAdmin:
		return backend.RoleAdmin, nil
	case backend.RoleOperator:
		return backend.RoleOperator, nil
	}
	return "", apierr.Newf(apierr.KindValidation, "role must be ADMIN or OPERATOR, got %q", value)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request, sess *Session) {
	users, err := s.backend.UserList(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request, sess *Session) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.writeError(w, apierr.New(apierr.KindValidation, "username and password are required", nil))
		return
	}
	role, err := parseRole(r.PostFormValue("role"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.backend.UserCreate(r.Context(), sess.Token, username, password, role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      id,
	})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request, sess *Session) {
	user, err := s.backend.UserInfo(r.Context(), sess.Token, mux.Vars(r)["username"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request, sess *Session) {
	update := backend.UserUpdate{
		Password:    r.PostFormValue("password"),
		NewUsername: r.PostFormValue("newUsername"),
	}
	if raw := r.PostFormValue("role"); raw != "" {
		role, err := parseRole(raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		update.Role = role
	}
	if update == (backend.UserUpdate{}) {
		s.writeError(w, apierr.New(apierr.KindValidation, "no fields to update", nil))
		return
	}

	if err := s.backend.UserUpdate(r.Context(), sess.Token, mux.Vars(r)["username"], update); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request, sess *Session) {
	if err := s.backend.UserDelete(r.Context(), sess.Token, mux.Vars(r)["username"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
