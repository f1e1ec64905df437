package backend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/rpc"
)

// Live delegates every facade operation to the remote control server
// through the XML-RPC transport. It holds no state of its own.
type Live struct {
	caller rpc.Caller
	logger *zap.Logger
}

// NewLive creates a Live backend on top of caller.
func NewLive(caller rpc.Caller, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Live{caller: caller, logger: logger}
}

// Reply envelopes mirror the remote server's result structs. Robot
// commands report acceptance as "ok"; everything else reports protocol
// success as "success" plus a message on failure.

type statusEnvelope struct {
	Success bool   `xmlrpc:"success"`
	Message string `xmlrpc:"message"`
}

type commandEnvelope struct {
	OK      bool   `xmlrpc:"ok"`
	Message string `xmlrpc:"message"`
}

type loginReply struct {
	Success bool   `xmlrpc:"success"`
	Message string `xmlrpc:"message"`
	Token   string `xmlrpc:"token"`
	User    struct {
		ID       int    `xmlrpc:"id"`
		Username string `xmlrpc:"username"`
		Role     string `xmlrpc:"role"`
		Active   bool   `xmlrpc:"active"`
	} `xmlrpc:"user"`
}

type positionRec struct {
	X float64 `xmlrpc:"x"`
	Y float64 `xmlrpc:"y"`
	Z float64 `xmlrpc:"z"`
}

type robotStatusReply struct {
	Success   bool        `xmlrpc:"success"`
	Message   string      `xmlrpc:"message"`
	Connected bool        `xmlrpc:"connected"`
	MotorsOn  bool        `xmlrpc:"motorsOn"`
	GripperOn bool        `xmlrpc:"gripperOn"`
	Position  positionRec `xmlrpc:"position"`
}

type getPositionReply struct {
	Success  bool   `xmlrpc:"success"`
	Message  string `xmlrpc:"message"`
	Position struct {
		X                 float64 `xmlrpc:"x"`
		Y                 float64 `xmlrpc:"y"`
		Z                 float64 `xmlrpc:"z"`
		Feedrate          float64 `xmlrpc:"feedrate"`
		EndEffectorActive bool    `xmlrpc:"endEffectorActive"`
	} `xmlrpc:"position"`
}

type routineRec struct {
	ID               int    `xmlrpc:"id"`
	Filename         string `xmlrpc:"filename"`
	OriginalFilename string `xmlrpc:"originalFilename"`
	Description      string `xmlrpc:"description"`
	GcodeContent     string `xmlrpc:"gcodeContent"`
	FileSize         int    `xmlrpc:"fileSize"`
	UserID           int    `xmlrpc:"userId"`
	CreatedAt        int64  `xmlrpc:"createdAt"`
}

type routineListReply struct {
	Success  bool         `xmlrpc:"success"`
	Message  string       `xmlrpc:"message"`
	Routines []routineRec `xmlrpc:"routines"`
}

type routineGetReply struct {
	Success bool       `xmlrpc:"success"`
	Message string     `xmlrpc:"message"`
	Routine routineRec `xmlrpc:"routine"`
}

type routineCreateReply struct {
	Success   bool   `xmlrpc:"success"`
	Message   string `xmlrpc:"message"`
	RoutineID int    `xmlrpc:"routineId"`
}

type executeReply struct {
	Success        bool     `xmlrpc:"success"`
	Message        string   `xmlrpc:"message"`
	LinesProcessed int      `xmlrpc:"linesProcessed"`
	LinesTotal     int      `xmlrpc:"linesTotal"`
	LinesSkipped   int      `xmlrpc:"linesSkipped"`
	Warnings       []string `xmlrpc:"warnings"`
}

type generateReply struct {
	Success      bool   `xmlrpc:"success"`
	Message      string `xmlrpc:"message"`
	RoutineID    int    `xmlrpc:"routineId"`
	Filename     string `xmlrpc:"filename"`
	GcodeContent string `xmlrpc:"gcodeContent"`
}

type userRec struct {
	ID        int    `xmlrpc:"id"`
	Username  string `xmlrpc:"username"`
	Role      string `xmlrpc:"role"`
	Active    bool   `xmlrpc:"active"`
	CreatedAt int64  `xmlrpc:"createdAt"`
}

type userListReply struct {
	Success bool      `xmlrpc:"success"`
	Message string    `xmlrpc:"message"`
	Users   []userRec `xmlrpc:"users"`
}

type userInfoReply struct {
	Success bool    `xmlrpc:"success"`
	Message string  `xmlrpc:"message"`
	User    userRec `xmlrpc:"user"`
}

type userCreateReply struct {
	Success bool   `xmlrpc:"success"`
	Message string `xmlrpc:"message"`
	UserID  int    `xmlrpc:"userId"`
}

func domainErr(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return apierr.New(apierr.KindDomain, message, nil)
}

func (l *Live) Login(ctx context.Context, username, password string, meta LoginMeta) (*LoginResult, error) {
	var reply loginReply
	if err := l.caller.Call(ctx, "authLogin", []any{username, password}, &reply); err != nil {
		return nil, apierr.New(apierr.KindAuth, "login failed", err)
	}
	if !reply.Success {
		// The message stays the server's opaque one so the response
		// never reveals whether the username exists.
		return nil, authErr(reply.Message)
	}

	l.logger.Info("login accepted",
		zap.String("username", reply.User.Username),
		zap.String("client_address", meta.ClientAddress),
		zap.String("user_agent", meta.UserAgent),
	)

	return &LoginResult{
		Token: reply.Token,
		User:  UserRef{ID: reply.User.ID, Username: reply.User.Username},
		Roles: []Role{Role(reply.User.Role)},
	}, nil
}

func authErr(message string) error {
	if message == "" {
		message = "login rejected"
	}
	return apierr.New(apierr.KindAuth, message, nil)
}

func (l *Live) Logout(ctx context.Context, token string) error {
	var reply statusEnvelope
	if err := l.caller.Call(ctx, "authLogout", []any{token}, &reply); err != nil {
		// Best effort: a dead server must not block local teardown.
		l.logger.Warn("logout call failed", zap.Error(err))
		return nil
	}
	if !reply.Success {
		l.logger.Warn("logout rejected", zap.String("message", reply.Message))
	}
	return nil
}

func (l *Live) MyStatus(ctx context.Context, token string) (*Status, error) {
	var reply robotStatusReply
	if err := l.caller.Call(ctx, "getRobotStatus", nil, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "status query failed")
	}

	status := &Status{
		Mode:      "ABS",
		MotorsOn:  reply.MotorsOn,
		GripperOn: reply.GripperOn,
		Connected: reply.Connected,
		Position:  Position{X: reply.Position.X, Y: reply.Position.Y, Z: reply.Position.Z},
		Timestamp: time.Now().UTC(),
	}

	if reply.Connected {
		// Optional enrichment. The coarse position from the status
		// reply stands when this call fails.
		if pos, err := l.GetPosition(ctx, token); err == nil {
			status.Position = *pos
		} else {
			l.logger.Debug("position refinement failed", zap.Error(err))
		}
	}
	return status, nil
}

func (l *Live) GetPosition(ctx context.Context, _ string) (*Position, error) {
	var reply getPositionReply
	if err := l.caller.Call(ctx, "getPosition", nil, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "position query failed")
	}
	return &Position{X: reply.Position.X, Y: reply.Position.Y, Z: reply.Position.Z}, nil
}

func (l *Live) command(ctx context.Context, method string, args []any) (*CommandResult, error) {
	var reply commandEnvelope
	if err := l.caller.Call(ctx, method, args, &reply); err != nil {
		return nil, err
	}
	return &CommandResult{OK: reply.OK, Message: reply.Message}, nil
}

func (l *Live) Move(ctx context.Context, _ string, x, y, z, feed float64) (*CommandResult, error) {
	return l.command(ctx, "move", []any{x, y, z, feed})
}

func (l *Live) MoveLinear(ctx context.Context, _ string, req MoveRequest) (*CommandResult, error) {
	feed := req.Feed
	if feed == 0 {
		feed = DefaultLinearMoveFeed
	}
	return l.command(ctx, "moveLinear", []any{req.X, req.Y, req.Z, feed})
}

func (l *Live) Home(ctx context.Context, _ string) (*CommandResult, error) {
	return l.command(ctx, "home", nil)
}

func (l *Live) EnableMotors(ctx context.Context, _ string, on bool) (*CommandResult, error) {
	return l.command(ctx, "enableMotors", []any{on})
}

func (l *Live) SetGripper(ctx context.Context, _ string, on bool) (*CommandResult, error) {
	return l.command(ctx, "endEffector", []any{on})
}

func (l *Live) ConnectRobot(ctx context.Context, _ string, port string, baudrate int) (*CommandResult, error) {
	if port == "" {
		port = DefaultSerialPort
	}
	if baudrate == 0 {
		baudrate = DefaultBaudrate
	}
	return l.command(ctx, "connectRobot", []any{port, baudrate})
}

func (l *Live) DisconnectRobot(ctx context.Context, _ string) (*CommandResult, error) {
	return l.command(ctx, "disconnectRobot", nil)
}

func (l *Live) RoutineList(ctx context.Context, token string) ([]Routine, error) {
	var reply routineListReply
	if err := l.caller.Call(ctx, "routineList", []any{token}, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "listing routines failed")
	}

	routines := make([]Routine, 0, len(reply.Routines))
	for _, rec := range reply.Routines {
		routines = append(routines, routineFromRec(rec))
	}
	return routines, nil
}

func routineFromRec(rec routineRec) Routine {
	return Routine{
		ID:               rec.ID,
		Filename:         rec.Filename,
		OriginalFilename: rec.OriginalFilename,
		Description:      rec.Description,
		GcodeContent:     rec.GcodeContent,
		FileSize:         rec.FileSize,
		UserID:           rec.UserID,
		CreatedAt:        rec.CreatedAt,
	}
}

func (l *Live) RoutineGet(ctx context.Context, token string, id int) (*Routine, error) {
	var reply routineGetReply
	if err := l.caller.Call(ctx, "routineGet", []any{token, id}, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "routine not found")
	}
	routine := routineFromRec(reply.Routine)
	return &routine, nil
}

func (l *Live) RoutineCreate(ctx context.Context, token, filename, originalFilename, description, content string) (int, error) {
	var reply routineCreateReply
	args := []any{token, filename, originalFilename, description, content}
	if err := l.caller.Call(ctx, "routineCreate", args, &reply); err != nil {
		return 0, err
	}
	if !reply.Success {
		return 0, domainErr(reply.Message, "creating routine failed")
	}
	return reply.RoutineID, nil
}

func (l *Live) RoutineUpdate(ctx context.Context, token string, id int, filename, description, content string) error {
	var reply statusEnvelope
	args := []any{token, id, filename, description, content}
	if err := l.caller.Call(ctx, "routineUpdate", args, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return domainErr(reply.Message, "updating routine failed")
	}
	return nil
}

func (l *Live) RoutineDelete(ctx context.Context, token string, id int) error {
	var reply statusEnvelope
	if err := l.caller.Call(ctx, "routineDelete", []any{token, id}, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return domainErr(reply.Message, "deleting routine failed")
	}
	return nil
}

func (l *Live) ExecuteGcode(ctx context.Context, content string) (*ExecuteResult, error) {
	var reply executeReply
	if err := l.caller.Call(ctx, "executeGcode", []any{content}, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "executing G-code failed")
	}
	return &ExecuteResult{
		Message:        reply.Message,
		LinesProcessed: reply.LinesProcessed,
		LinesTotal:     reply.LinesTotal,
		LinesSkipped:   reply.LinesSkipped,
		Warnings:       reply.Warnings,
	}, nil
}

func (l *Live) GenerateGcodeFromMovements(ctx context.Context, token, name, description string, movements []Movement) (*GeneratedRoutine, error) {
	moves := make([]any, 0, len(movements))
	for _, m := range movements {
		moves = append(moves, map[string]any{
			"x": m.X, "y": m.Y, "z": m.Z, "feedrate": m.Feedrate,
		})
	}

	var reply generateReply
	args := []any{token, name, description, moves}
	if err := l.caller.Call(ctx, "generateGcodeFromMovements", args, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "saving learned routine failed")
	}
	return &GeneratedRoutine{
		RoutineID:    reply.RoutineID,
		Filename:     reply.Filename,
		GcodeContent: reply.GcodeContent,
		Message:      reply.Message,
	}, nil
}

func (l *Live) UserList(ctx context.Context, token string) ([]User, error) {
	var reply userListReply
	if err := l.caller.Call(ctx, "userList", []any{token}, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "listing users failed")
	}

	users := make([]User, 0, len(reply.Users))
	for _, rec := range reply.Users {
		users = append(users, userFromRec(rec))
	}
	return users, nil
}

func userFromRec(rec userRec) User {
	return User{
		ID:        rec.ID,
		Username:  rec.Username,
		Role:      Role(rec.Role),
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt,
	}
}

func (l *Live) UserInfo(ctx context.Context, token, username string) (*User, error) {
	var reply userInfoReply
	if err := l.caller.Call(ctx, "userInfo", []any{token, username}, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, domainErr(reply.Message, "user not found")
	}
	user := userFromRec(reply.User)
	return &user, nil
}

func (l *Live) UserCreate(ctx context.Context, token, username, password string, role Role) (int, error) {
	var reply userCreateReply
	args := []any{token, username, password, string(role)}
	if err := l.caller.Call(ctx, "userCreate", args, &reply); err != nil {
		return 0, err
	}
	if !reply.Success {
		return 0, domainErr(reply.Message, "creating user failed")
	}
	return reply.UserID, nil
}

func (l *Live) UserUpdate(ctx context.Context, token, username string, update UserUpdate) error {
	updates := map[string]any{}
	if update.Password != "" {
		updates["password"] = update.Password
	}
	if update.NewUsername != "" {
		updates["newUsername"] = update.NewUsername
	}
	if update.Role != "" {
		updates["role"] = string(update.Role)
	}

	var reply statusEnvelope
	if err := l.caller.Call(ctx, "userUpdate", []any{token, username, updates}, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return domainErr(reply.Message, "updating user failed")
	}
	return nil
}

func (l *Live) UserDelete(ctx context.Context, token, username string) error {
	var reply statusEnvelope
	if err := l.caller.Call(ctx, "userDelete", []any{token, username}, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return domainErr(reply.Message, "deleting user failed")
	}
	return nil
}

func (l *Live) Ping(ctx context.Context) error {
	var reply string
	return l.caller.Call(ctx, "ServerTest", nil, &reply)
}
