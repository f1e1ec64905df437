// Package authz is the role gate in front of the command facade. Each
// operation declares, statically, which role tags may invoke it; the check
// is a pure pre-dispatch test with no side effects on rejection.
package authz

import (
	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

// Operation names a gated facade operation.
type Operation string

const (
	OpLogout          Operation = "logout"
	OpMyStatus        Operation = "myStatus"
	OpMove            Operation = "move"
	OpMoveLinear      Operation = "moveLinear"
	OpHome            Operation = "home"
	OpEnableMotors    Operation = "enableMotors"
	OpGripper         Operation = "gripper"
	OpConnectRobot    Operation = "connectRobot"
	OpDisconnectRobot Operation = "disconnectRobot"
	OpGetPosition     Operation = "getPosition"

	OpRoutineList     Operation = "routineList"
	OpRoutineGet      Operation = "routineGet"
	OpRoutineCreate   Operation = "routineCreate"
	OpRoutineUpdate   Operation = "routineUpdate"
	OpRoutineDelete   Operation = "routineDelete"
	OpRoutineExecute  Operation = "routineExecute"
	OpRoutineDownload Operation = "routineDownload"

	OpLearningSave Operation = "learningSave"

	OpUserList   Operation = "userList"
	OpUserInfo   Operation = "userInfo"
	OpUserCreate Operation = "userCreate"
	OpUserUpdate Operation = "userUpdate"
	OpUserDelete Operation = "userDelete"
)

// anyAuthenticated is the role set admitting every logged-in operator.
var anyAuthenticated = []backend.Role{backend.RoleAdmin, backend.RoleOperator}

var adminOnly = []backend.Role{backend.RoleAdmin}

// requirements maps every gated operation to the exact role tags admitted.
// There is no hierarchy: a role satisfies a check only by being listed.
var requirements = map[Operation][]backend.Role{
	OpLogout:          anyAuthenticated,
	OpMyStatus:        anyAuthenticated,
	OpMove:            anyAuthenticated,
	OpMoveLinear:      anyAuthenticated,
	OpHome:            anyAuthenticated,
	OpEnableMotors:    anyAuthenticated,
	OpGripper:         anyAuthenticated,
	OpConnectRobot:    anyAuthenticated,
	OpDisconnectRobot: anyAuthenticated,
	OpGetPosition:     anyAuthenticated,

	OpRoutineList:     anyAuthenticated,
	OpRoutineGet:      anyAuthenticated,
	OpRoutineCreate:   anyAuthenticated,
	OpRoutineUpdate:   anyAuthenticated,
	OpRoutineDelete:   anyAuthenticated,
	OpRoutineExecute:  anyAuthenticated,
	OpRoutineDownload: anyAuthenticated,

	OpLearningSave: anyAuthenticated,

	OpUserList:   adminOnly,
	OpUserInfo:   adminOnly,
	OpUserCreate: adminOnly,
	OpUserUpdate: adminOnly,
	OpUserDelete: adminOnly,
}

// Operations returns every operation with a declared requirement.
func Operations() []Operation {
	ops := make([]Operation, 0, len(requirements))
	for op := range requirements {
		ops = append(ops, op)
	}
	return ops
}

// Check admits the call iff roles contains one of the role tags declared
// for op. It never dispatches anything and mutates no state; a rejection
// is only the returned error.
func Check(roles []backend.Role, op Operation) error {
	required, ok := requirements[op]
	if !ok {
		return apierr.Newf(apierr.KindAuthorization, "operation %q has no declared role requirement", op)
	}
	for _, have := range roles {
		for _, want := range required {
			if have == want {
				return nil
			}
		}
	}
	return apierr.Newf(apierr.KindAuthorization, "operation %q requires one of %v", op, required)
}
