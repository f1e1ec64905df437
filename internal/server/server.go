// Package server exposes the gateway as a JSON API. Handlers receive an
// authenticated session, coerce primitive arguments, pass the role gate
// and dispatch to the command facade; they never render UI.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/internal/config"
	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/authz"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
	"github.com/armgate-dev/armgate/pkg/gateway/learning"
	"github.com/armgate-dev/armgate/pkg/gateway/routines"
)

// Server wires the gateway components behind an HTTP router.
type Server struct {
	backend  backend.Backend
	routines *routines.Manager
	learning *learning.Recorder
	sessions *SessionStore
	logger   *zap.Logger
	router   *mux.Router
	http     *http.Server
}

// New assembles the server. registry, when non-nil, is served at /metrics.
func New(cfg *config.Config, b backend.Backend, logger *zap.Logger, registry *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		backend:  b,
		routines: routines.NewManager(b, logger),
		learning: learning.NewRecorder(b, logger),
		sessions: NewSessionStore(cfg.Session.Secret, cfg.Session.TTL),
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes(registry)

	s.http = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      s.loggingMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) routes(registry *prometheus.Registry) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.protected(authz.OpLogout, s.handleLogout)).Methods(http.MethodPost)
	api.HandleFunc("/status", s.protected(authz.OpMyStatus, s.handleStatus)).Methods(http.MethodGet)

	robot := api.PathPrefix("/robot").Subrouter()
	robot.HandleFunc("/move", s.protected(authz.OpMove, s.handleMove)).Methods(http.MethodPost)
	robot.HandleFunc("/linear", s.protected(authz.OpMoveLinear, s.handleMoveLinear)).Methods(http.MethodPost)
	robot.HandleFunc("/home", s.protected(authz.OpHome, s.handleHome)).Methods(http.MethodPost)
	robot.HandleFunc("/motors", s.protected(authz.OpEnableMotors, s.handleMotors)).Methods(http.MethodPost)
	robot.HandleFunc("/gripper", s.protected(authz.OpGripper, s.handleGripper)).Methods(http.MethodPost)
	robot.HandleFunc("/connect", s.protected(authz.OpConnectRobot, s.handleConnect)).Methods(http.MethodPost)
	robot.HandleFunc("/disconnect", s.protected(authz.OpDisconnectRobot, s.handleDisconnect)).Methods(http.MethodPost)

	api.HandleFunc("/routines", s.protected(authz.OpRoutineList, s.handleRoutineList)).Methods(http.MethodGet)
	api.HandleFunc("/routines", s.protected(authz.OpRoutineCreate, s.handleRoutineCreate)).Methods(http.MethodPost)
	api.HandleFunc("/routines/{id}", s.protected(authz.OpRoutineGet, s.handleRoutineGet)).Methods(http.MethodGet)
	api.HandleFunc("/routines/{id}", s.protected(authz.OpRoutineUpdate, s.handleRoutineUpdate)).Methods(http.MethodPut)
	api.HandleFunc("/routines/{id}", s.protected(authz.OpRoutineDelete, s.handleRoutineDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/routines/{id}/execute", s.protected(authz.OpRoutineExecute, s.handleRoutineExecute)).Methods(http.MethodPost)
	api.HandleFunc("/routines/{id}/download", s.protected(authz.OpRoutineDownload, s.handleRoutineDownload)).Methods(http.MethodGet)

	learningAPI := api.PathPrefix("/learning").Subrouter()
	learningAPI.HandleFunc("/position", s.protected(authz.OpGetPosition, s.handlePosition)).Methods(http.MethodGet)
	learningAPI.HandleFunc("/routine", s.protected(authz.OpLearningSave, s.handleLearningSave)).Methods(http.MethodPost)

	api.HandleFunc("/users", s.protected(authz.OpUserList, s.handleUserList)).Methods(http.MethodGet)
	api.HandleFunc("/users", s.protected(authz.OpUserCreate, s.handleUserCreate)).Methods(http.MethodPost)
	api.HandleFunc("/users/{username}", s.protected(authz.OpUserInfo, s.handleUserInfo)).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}", s.protected(authz.OpUserUpdate, s.handleUserUpdate)).Methods(http.MethodPut)
	api.HandleFunc("/users/{username}", s.protected(authz.OpUserDelete, s.handleUserDelete)).Methods(http.MethodDelete)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the HTTP server until the listener fails or Shutdown
// is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// protected resolves the caller's session and passes the role gate before
// the handler runs. Rejections happen before any facade call.
func (s *Server) protected(op authz.Operation, h func(http.ResponseWriter, *http.Request, *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r)
		if !ok {
			s.writeError(w, apierr.New(apierr.KindAuth, "authentication required", nil))
			return
		}
		if err := authz.Check(sess.Roles, op); err != nil {
			s.writeError(w, err)
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  apierr.Message(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
