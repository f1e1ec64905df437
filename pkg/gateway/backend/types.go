package backend

import "time"

// Role is an authorization tag attached to a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
)

// Defaults applied when a caller omits optional command arguments.
const (
	DefaultMoveFeed       = 100.0
	DefaultLinearMoveFeed = 1000.0
	DefaultSerialPort     = "/dev/ttyUSB0"
	DefaultBaudrate       = 115200
)

// LoginMeta carries request context forwarded with a login attempt.
type LoginMeta struct {
	ClientAddress string
	UserAgent     string
}

// UserRef identifies the authenticated user in a login result.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// LoginResult is the outcome of a successful login.
//
// The remote server models a single role per user; the facade widens it to
// a role set of size one so authorization checks stay uniform even if a
// future backend supplies genuine multi-role users.
type LoginResult struct {
	Token string  `json:"token"`
	User  UserRef `json:"user"`
	Roles []Role  `json:"roles"`
}

// Position is a cartesian robot position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Status is the unified robot status produced by MyStatus.
type Status struct {
	Mode      string    `json:"mode"`
	MotorsOn  bool      `json:"motorsOn"`
	GripperOn bool      `json:"gripperOn"`
	Connected bool      `json:"connected"`
	Position  Position  `json:"position"`
	Info      string    `json:"info,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CommandResult is the outcome of a robot command. A remote rejection is
// OK=false plus a message, not an error; errors are reserved for transport
// and protocol failure.
type CommandResult struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
}

// MoveRequest is a linear move with an optional feedrate.
type MoveRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Feed float64 `json:"feed"`
}

// Routine is a stored G-code motion program. The remote server is the
// single source of truth for its existence and content.
type Routine struct {
	ID               int    `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"originalFilename,omitempty"`
	Description      string `json:"description"`
	GcodeContent     string `json:"gcodeContent,omitempty"`
	FileSize         int    `json:"fileSize,omitempty"`
	UserID           int    `json:"userId,omitempty"`
	CreatedAt        int64  `json:"createdAt,omitempty"`
}

// ExecuteResult is the outcome of streaming G-code to the robot.
type ExecuteResult struct {
	Message        string   `json:"message"`
	LinesProcessed int      `json:"linesProcessed"`
	LinesTotal     int      `json:"linesTotal"`
	LinesSkipped   int      `json:"linesSkipped"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Movement is one captured jog step of a learned trajectory.
type Movement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Feedrate float64 `json:"feedrate"`
}

// GeneratedRoutine is the routine persisted from a learned trajectory.
type GeneratedRoutine struct {
	RoutineID    int    `json:"routineId"`
	Filename     string `json:"filename"`
	GcodeContent string `json:"gcodeContent,omitempty"`
	Message      string `json:"message"`
}

// User is an account as reported by the remote server.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// UserUpdate names the account fields an admin may change. Empty fields
// are left untouched by the remote server.
type UserUpdate struct {
	Password    string `json:"password,omitempty"`
	NewUsername string `json:"newUsername,omitempty"`
	Role        Role   `json:"role,omitempty"`
}
