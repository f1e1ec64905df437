package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
)

type mockUser struct {
	id       int
	username string
	password string
	role     Role
	active   bool
	created  int64
}

// Mock is the in-memory backend for offline development. It seeds two
// accounts, keeps robot flags and a routine table under one mutex, and
// mimics the remote server's acceptance/rejection behavior closely enough
// that handlers and tests cannot tell the difference. Nothing survives a
// process restart.
type Mock struct {
	mu sync.Mutex

	users      map[string]*mockUser
	nextUserID int
	tokens     map[string]string // token -> username

	connected bool
	motorsOn  bool
	gripperOn bool
	lastMove  *MoveRequest

	routines      map[int]Routine
	nextRoutineID int
}

// NewMock creates a Mock seeded with the standard development accounts
// (admin/Admin123!, operador/Operador123!). The simulated robot starts
// connected.
func NewMock() *Mock {
	now := time.Now().Unix()
	return &Mock{
		users: map[string]*mockUser{
			"admin":    {id: 1, username: "admin", password: "Admin123!", role: RoleAdmin, active: true, created: now},
			"operador": {id: 2, username: "operador", password: "Operador123!", role: RoleOperator, active: true, created: now},
		},
		nextUserID:    3,
		tokens:        make(map[string]string),
		connected:     true,
		routines:      make(map[int]Routine),
		nextRoutineID: 1,
	}
}

func (m *Mock) Login(_ context.Context, username, password string, _ LoginMeta) (*LoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok || u.password != password || !u.active {
		return nil, apierr.New(apierr.KindAuth, "invalid credentials", nil)
	}

	token := uuid.NewString()
	m.tokens[token] = u.username

	return &LoginResult{
		Token: token,
		User:  UserRef{ID: u.id, Username: u.username},
		Roles: []Role{u.role},
	}, nil
}

func (m *Mock) Logout(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

// userByToken must be called with the mutex held.
func (m *Mock) userByToken(token string) (*mockUser, error) {
	username, ok := m.tokens[token]
	if !ok {
		return nil, apierr.New(apierr.KindDomain, "invalid token", nil)
	}
	u, ok := m.users[username]
	if !ok {
		return nil, apierr.New(apierr.KindDomain, "user not found", nil)
	}
	return u, nil
}

func (m *Mock) MyStatus(_ context.Context, token string) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return nil, err
	}

	status := &Status{
		Mode:      "ABS",
		MotorsOn:  m.motorsOn,
		GripperOn: m.gripperOn,
		Connected: m.connected,
		Info:      "mock status; no control server attached",
		Timestamp: time.Now().UTC(),
	}
	if m.lastMove != nil {
		status.Position = Position{X: m.lastMove.X, Y: m.lastMove.Y, Z: m.lastMove.Z}
	}
	return status, nil
}

func (m *Mock) GetPosition(_ context.Context, _ string) (*Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, apierr.New(apierr.KindDomain, "robot not connected", nil)
	}
	if m.lastMove == nil {
		return &Position{}, nil
	}
	return &Position{X: m.lastMove.X, Y: m.lastMove.Y, Z: m.lastMove.Z}, nil
}

func (m *Mock) Move(_ context.Context, _ string, x, y, z, feed float64) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return &CommandResult{OK: false, Message: "robot not connected"}, nil
	}
	m.lastMove = &MoveRequest{X: x, Y: y, Z: z, Feed: feed}
	return &CommandResult{
		OK:      true,
		Message: fmt.Sprintf("mock move to X%g Y%g Z%g F%g", x, y, z, feed),
	}, nil
}

func (m *Mock) MoveLinear(_ context.Context, _ string, req MoveRequest) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return &CommandResult{OK: false, Message: "robot not connected"}, nil
	}
	if req.Feed == 0 {
		req.Feed = DefaultLinearMoveFeed
	}
	m.lastMove = &req
	return &CommandResult{
		OK:      true,
		Message: fmt.Sprintf("mock G1 to X%g Y%g Z%g F%g", req.X, req.Y, req.Z, req.Feed),
	}, nil
}

func (m *Mock) Home(_ context.Context, _ string) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return &CommandResult{OK: false, Message: "robot not connected"}, nil
	}
	m.lastMove = &MoveRequest{}
	return &CommandResult{OK: true, Message: "mock G28 homing"}, nil
}

func (m *Mock) EnableMotors(_ context.Context, _ string, on bool) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return &CommandResult{OK: false, Message: "robot not connected"}, nil
	}
	m.motorsOn = on
	msg := "motors off"
	if on {
		msg = "motors on"
	}
	return &CommandResult{OK: true, Message: msg}, nil
}

func (m *Mock) SetGripper(_ context.Context, _ string, on bool) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return &CommandResult{OK: false, Message: "robot not connected"}, nil
	}
	m.gripperOn = on
	msg := "gripper released"
	if on {
		msg = "gripper engaged"
	}
	return &CommandResult{OK: true, Message: msg}, nil
}

func (m *Mock) ConnectRobot(_ context.Context, _ string, port string, baudrate int) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if port == "" {
		port = DefaultSerialPort
	}
	if baudrate == 0 {
		baudrate = DefaultBaudrate
	}
	m.connected = true
	return &CommandResult{OK: true, Message: fmt.Sprintf("connected to %s @ %d", port, baudrate)}, nil
}

func (m *Mock) DisconnectRobot(_ context.Context, _ string) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.motorsOn = false
	m.gripperOn = false
	return &CommandResult{OK: true, Message: "disconnected"}, nil
}

func (m *Mock) RoutineList(_ context.Context, token string) ([]Routine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return nil, err
	}

	routines := make([]Routine, 0, len(m.routines))
	for _, r := range m.routines {
		r.GcodeContent = "" // list omits bodies, like the real server
		routines = append(routines, r)
	}
	sort.Slice(routines, func(i, j int) bool { return routines[i].ID < routines[j].ID })
	return routines, nil
}

func (m *Mock) RoutineGet(_ context.Context, token string, id int) (*Routine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return nil, err
	}
	r, ok := m.routines[id]
	if !ok {
		return nil, apierr.New(apierr.KindDomain, "routine not found", nil)
	}
	return &r, nil
}

func (m *Mock) RoutineCreate(_ context.Context, token, filename, originalFilename, description, content string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.userByToken(token)
	if err != nil {
		return 0, err
	}

	id := m.nextRoutineID
	m.nextRoutineID++
	m.routines[id] = Routine{
		ID:               id,
		Filename:         filename,
		OriginalFilename: originalFilename,
		Description:      description,
		GcodeContent:     content,
		FileSize:         len(content),
		UserID:           u.id,
		CreatedAt:        time.Now().Unix(),
	}
	return id, nil
}

func (m *Mock) RoutineUpdate(_ context.Context, token string, id int, filename, description, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return err
	}
	r, ok := m.routines[id]
	if !ok {
		return apierr.New(apierr.KindDomain, "routine not found", nil)
	}

	// Full replace, not a merge.
	r.Filename = filename
	r.Description = description
	r.GcodeContent = content
	r.FileSize = len(content)
	m.routines[id] = r
	return nil
}

func (m *Mock) RoutineDelete(_ context.Context, token string, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return err
	}
	if _, ok := m.routines[id]; !ok {
		return apierr.New(apierr.KindDomain, "routine not found", nil)
	}
	delete(m.routines, id)
	return nil
}

func (m *Mock) ExecuteGcode(_ context.Context, content string) (*ExecuteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, apierr.New(apierr.KindDomain, "robot not connected", nil)
	}

	// Same line accounting as the real server: drop ';' comments, trim,
	// skip blanks.
	total, processed, skipped := 0, 0, 0
	for _, line := range strings.Split(content, "\n") {
		total++
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			skipped++
			continue
		}
		processed++
	}

	return &ExecuteResult{
		Message:        "G-code executed",
		LinesProcessed: processed,
		LinesTotal:     total,
		LinesSkipped:   skipped,
	}, nil
}

func (m *Mock) GenerateGcodeFromMovements(ctx context.Context, token, name, description string, movements []Movement) (*GeneratedRoutine, error) {
	var gcode strings.Builder
	gcode.WriteString("; learned trajectory: " + name + "\n")
	for _, mv := range movements {
		fmt.Fprintf(&gcode, "G1 X%.3f Y%.3f Z%.3f F%.0f\n", mv.X, mv.Y, mv.Z, mv.Feedrate)
	}

	filename := name + ".gcode"
	id, err := m.RoutineCreate(ctx, token, filename, filename, description, gcode.String())
	if err != nil {
		return nil, err
	}
	return &GeneratedRoutine{
		RoutineID:    id,
		Filename:     filename,
		GcodeContent: gcode.String(),
		Message:      "trajectory saved as routine",
	}, nil
}

func (m *Mock) UserList(_ context.Context, token string) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return nil, err
	}

	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, User{ID: u.id, Username: u.username, Role: u.role, Active: u.active, CreatedAt: u.created})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *Mock) UserInfo(_ context.Context, token, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return nil, err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, apierr.New(apierr.KindDomain, "user not found", nil)
	}
	return &User{ID: u.id, Username: u.username, Role: u.role, Active: u.active, CreatedAt: u.created}, nil
}

func (m *Mock) UserCreate(_ context.Context, token, username, password string, role Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return 0, err
	}
	if _, exists := m.users[username]; exists {
		return 0, apierr.New(apierr.KindDomain, "user already exists", nil)
	}

	id := m.nextUserID
	m.nextUserID++
	m.users[username] = &mockUser{
		id:       id,
		username: username,
		password: password,
		role:     role,
		active:   true,
		created:  time.Now().Unix(),
	}
	return id, nil
}

func (m *Mock) UserUpdate(_ context.Context, token, username string, update UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return err
	}
	if username == "admin" {
		return apierr.New(apierr.KindDomain, "the admin account cannot be modified", nil)
	}
	u, ok := m.users[username]
	if !ok {
		return apierr.New(apierr.KindDomain, "user not found", nil)
	}

	if update.Password != "" {
		u.password = update.Password
	}
	if update.Role != "" {
		u.role = update.Role
	}
	if update.NewUsername != "" && update.NewUsername != username {
		delete(m.users, username)
		u.username = update.NewUsername
		m.users[update.NewUsername] = u
	}
	return nil
}

func (m *Mock) UserDelete(_ context.Context, token, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.userByToken(token); err != nil {
		return err
	}
	if username == "admin" {
		return apierr.New(apierr.KindDomain, "the admin account cannot be deleted", nil)
	}
	if _, ok := m.users[username]; !ok {
		return apierr.New(apierr.KindDomain, "user not found", nil)
	}
	delete(m.users, username)
	return nil
}

func (m *Mock) Ping(_ context.Context) error {
	return nil
}
