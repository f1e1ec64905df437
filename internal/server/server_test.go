package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armgate-dev/armgate/internal/config"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

// countingBackend tallies facade calls so tests can assert an operation
// was rejected before reaching it.
type countingBackend struct {
	backend.Backend
	calls atomic.Int64
}

func (c *countingBackend) UserList(ctx context.Context, token string) ([]backend.User, error) {
	c.calls.Add(1)
	return c.Backend.UserList(ctx, token)
}

func (c *countingBackend) Move(ctx context.Context, token string, x, y, z, feed float64) (*backend.CommandResult, error) {
	c.calls.Add(1)
	return c.Backend.Move(ctx, token, x, y, z, feed)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Session.Secret = "test-secret"
	cfg.Session.TTL = time.Hour
	return cfg
}

func newTestServer(t *testing.T) (*Server, *countingBackend) {
	t.Helper()
	b := &countingBackend{Backend: backend.NewMock()}
	return New(testConfig(), b, nil, nil), b
}

func login(t *testing.T, s *Server, username, password string) []*http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func do(s *Server, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := login(t, s, "admin", "Admin123!")
	assert.Equal(t, 1, s.sessions.Count())

	rec := do(s, http.MethodGet, "/api/status", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool            `json:"success"`
		Status  *backend.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Status.Connected)
}

func TestLogin_BadCredentials(t *testing.T) {
	s, _ := newTestServer(t)
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	rec := do(s, http.MethodPost, "/api/login", form, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, s.sessions.Count())
}

func TestProtected_NoSession(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/status", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperator_CannotManageUsers(t *testing.T) {
	s, b := newTestServer(t)
	cookies := login(t, s, "operador", "Operador123!")

	rec := do(s, http.MethodGet, "/api/users", nil, cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, b.calls.Load(), "rejection must precede any facade call")
}

func TestAdmin_ListsUsers(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := login(t, s, "admin", "Admin123!")

	rec := do(s, http.MethodGet, "/api/users", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Users []backend.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
}

func TestMove_CoercesStringNumerics(t *testing.T) {
	s, b := newTestServer(t)
	cookies := login(t, s, "operador", "Operador123!")

	form := url.Values{"x": {"3"}, "y": {"4"}, "z": {"5"}, "feed": {"100"}}
	rec := do(s, http.MethodPost, "/api/robot/move", form, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), b.calls.Load())

	var body struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
}

func TestMove_RejectsGarbageBeforeDispatch(t *testing.T) {
	s, b := newTestServer(t)
	cookies := login(t, s, "operador", "Operador123!")

	form := url.Values{"x": {"x"}, "y": {"4"}, "z": {"5"}}
	rec := do(s, http.MethodPost, "/api/robot/move", form, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, b.calls.Load())
}

func TestLogout_InvalidatesSession(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := login(t, s, "admin", "Admin123!")

	rec := do(s, http.MethodPost, "/api/logout", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.sessions.Count())

	rec = do(s, http.MethodGet, "/api/status", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutineLifecycleOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := login(t, s, "admin", "Admin123!")

	form := url.Values{
		"filename": {"square.gcode"},
		"content":  {"G28\nG1 X10 Y10 Z0 F100\n"},
	}
	rec := do(s, http.MethodPost, "/api/routines", form, cookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Positive(t, created.ID)

	rec = do(s, http.MethodGet, "/api/routines", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodPost, "/api/routines/1/execute", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(s, http.MethodGet, "/api/routines/1/download", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "square.gcode")
	assert.Contains(t, rec.Body.String(), "G28")

	rec = do(s, http.MethodDelete, "/api/routines/1", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/routines/1", nil, cookies)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRoutineGet_BadID(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := login(t, s, "admin", "Admin123!")

	rec := do(s, http.MethodGet, "/api/routines/zero", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLearningSave(t *testing.T) {
	s, _ := newTestServer(t)
	cookies := login(t, s, "operador", "Operador123!")

	payload := `{"routineName":"learned_path","movements":[{"x":1,"y":2,"z":3,"feedrate":500}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/learning/routine", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Routine *backend.GeneratedRoutine `json:"routine"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Positive(t, body.Routine.RoutineID)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
