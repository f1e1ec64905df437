package server

import (
	"net/http"

	"github.com/armgate-dev/armgate/pkg/gateway/backend"
	"github.com/armgate-dev/armgate/pkg/gateway/params"
)

// writeCommand renders a robot command outcome. A rejection by the robot
// is a normal 200 response with ok=false, not an HTTP error.
func (s *Server) writeCommand(w http.ResponseWriter, res *backend.CommandResult) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"ok":      res.OK,
		"message": res.Message,
		"payload": res.Payload,
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, sess *Session) {
	x, err := params.Float("x", r.PostFormValue("x"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	y, err := params.Float("y", r.PostFormValue("y"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	z, err := params.Float("z", r.PostFormValue("z"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	feed, err := params.Float("feed", r.PostFormValue("feed"), backend.DefaultMoveFeed)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.backend.Move(r.Context(), sess.Token, x, y, z, feed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}

func (s *Server) handleMoveLinear(w http.ResponseWriter, r *http.Request, sess *Session) {
	x, err := params.Float("x", r.PostFormValue("x"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	y, err := params.Float("y", r.PostFormValue("y"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	z, err := params.Float("z", r.PostFormValue("z"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	feed, err := params.Float("feed", r.PostFormValue("feed"), backend.DefaultLinearMoveFeed)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.backend.MoveLinear(r.Context(), sess.Token, backend.MoveRequest{X: x, Y: y, Z: z, Feed: feed})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, sess *Session) {
	res, err := s.backend.Home(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}

func (s *Server) handleMotors(w http.ResponseWriter, r *http.Request, sess *Session) {
	on, err := params.Bool("enable", r.PostFormValue("enable"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.backend.EnableMotors(r.Context(), sess.Token, on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}

func (s *Server) handleGripper(w http.ResponseWriter, r *http.Request, sess *Session) {
	on, err := params.Bool("enable", r.PostFormValue("enable"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.backend.SetGripper(r.Context(), sess.Token, on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request, sess *Session) {
	port := r.PostFormValue("port")
	if port == "" {
		port = backend.DefaultSerialPort
	}
	baudrate, err := params.Int("baudrate", r.PostFormValue("baudrate"), backend.DefaultBaudrate)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.backend.ConnectRobot(r.Context(), sess.Token, port, baudrate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request, sess *Session) {
	res, err := s.backend.DisconnectRobot(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCommand(w, res)
}
