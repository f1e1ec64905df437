// Package backend defines the robot command facade: one capability
// interface covering every remote operation, implemented by a Live backend
// that speaks XML-RPC to the control server and a Mock backend for offline
// development. The implementation is chosen once at startup; call sites
// never branch on it.
package backend

import "context"

// Backend is the command facade contract. Every method is a single
// request/response exchange that resumes exactly once. Remote rejections
// surface as domain errors (or OK=false for robot commands); transport
// failures surface as transport errors so callers can tell the two apart.
type Backend interface {
	// Login authenticates against the remote server and returns the
	// bearer token used on every privileged call. Failures are reported
	// as auth errors carrying the server's opaque message.
	Login(ctx context.Context, username, password string, meta LoginMeta) (*LoginResult, error)

	// Logout invalidates token remotely. Best effort: callers tear down
	// their local session regardless of the outcome.
	Logout(ctx context.Context, token string) error

	// MyStatus composes the robot status with a position refinement: one
	// mandatory status call, then, only while connected, an optional
	// position call whose failure is swallowed in favor of the coarse
	// position already reported.
	MyStatus(ctx context.Context, token string) (*Status, error)

	Move(ctx context.Context, token string, x, y, z, feed float64) (*CommandResult, error)
	MoveLinear(ctx context.Context, token string, req MoveRequest) (*CommandResult, error)
	Home(ctx context.Context, token string) (*CommandResult, error)
	EnableMotors(ctx context.Context, token string, on bool) (*CommandResult, error)
	SetGripper(ctx context.Context, token string, on bool) (*CommandResult, error)
	ConnectRobot(ctx context.Context, token, port string, baudrate int) (*CommandResult, error)
	DisconnectRobot(ctx context.Context, token string) (*CommandResult, error)
	GetPosition(ctx context.Context, token string) (*Position, error)

	RoutineList(ctx context.Context, token string) ([]Routine, error)
	RoutineGet(ctx context.Context, token string, id int) (*Routine, error)
	RoutineCreate(ctx context.Context, token, filename, originalFilename, description, content string) (int, error)
	RoutineUpdate(ctx context.Context, token string, id int, filename, description, content string) error
	RoutineDelete(ctx context.Context, token string, id int) error

	// ExecuteGcode streams a program body to the robot and reports how
	// many lines it processed.
	ExecuteGcode(ctx context.Context, content string) (*ExecuteResult, error)

	// GenerateGcodeFromMovements converts a captured jog sequence into a
	// persisted routine.
	GenerateGcodeFromMovements(ctx context.Context, token, name, description string, movements []Movement) (*GeneratedRoutine, error)

	UserList(ctx context.Context, token string) ([]User, error)
	UserInfo(ctx context.Context, token, username string) (*User, error)
	UserCreate(ctx context.Context, token, username, password string, role Role) (int, error)
	UserUpdate(ctx context.Context, token, username string, update UserUpdate) error
	UserDelete(ctx context.Context, token, username string) error

	// Ping checks the remote server is reachable.
	Ping(ctx context.Context) error
}
