package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
)

func loginAdmin(t *testing.T, m *Mock) string {
	t.Helper()
	res, err := m.Login(context.Background(), "admin", "Admin123!", LoginMeta{})
	require.NoError(t, err)
	return res.Token
}

func TestMock_LoginRoles(t *testing.T) {
	m := NewMock()

	res, err := m.Login(context.Background(), "admin", "Admin123!", LoginMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin", res.User.Username)
	assert.Equal(t, []Role{RoleAdmin}, res.Roles)

	res, err = m.Login(context.Background(), "operador", "Operador123!", LoginMeta{})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleOperator}, res.Roles)
}

func TestMock_LoginRejected(t *testing.T) {
	m := NewMock()

	_, err := m.Login(context.Background(), "admin", "wrong", LoginMeta{})
	require.Error(t, err)
	assert.True(t, apierr.IsAuth(err))

	_, err = m.Login(context.Background(), "nobody", "Admin123!", LoginMeta{})
	require.Error(t, err)
	assert.True(t, apierr.IsAuth(err))
}

func TestMock_MotorsVisibleInStatus(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	res, err := m.EnableMotors(ctx, token, true)
	require.NoError(t, err)
	assert.True(t, res.OK)

	status, err := m.MyStatus(ctx, token)
	require.NoError(t, err)
	assert.True(t, status.MotorsOn)
	assert.True(t, status.Connected)
	assert.Equal(t, "ABS", status.Mode)

	_, err = m.SetGripper(ctx, token, true)
	require.NoError(t, err)
	status, err = m.MyStatus(ctx, token)
	require.NoError(t, err)
	assert.True(t, status.GripperOn)
}

func TestMock_LogoutInvalidatesToken(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	require.NoError(t, m.Logout(ctx, token))

	_, err := m.MyStatus(ctx, token)
	require.Error(t, err)
	assert.True(t, apierr.IsDomain(err))
}

func TestMock_MoveTracksPosition(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	res, err := m.Move(ctx, token, 3, 4, 5, 100)
	require.NoError(t, err)
	assert.True(t, res.OK)

	pos, err := m.GetPosition(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &Position{X: 3, Y: 4, Z: 5}, pos)
}

func TestMock_CommandsRejectedWhenDisconnected(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	_, err := m.DisconnectRobot(ctx, token)
	require.NoError(t, err)

	res, err := m.Move(ctx, token, 1, 2, 3, 100)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "not connected")

	res, err = m.ConnectRobot(ctx, token, "", 0)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, DefaultSerialPort)
}

func TestMock_RoutineRoundTrip(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	id, err := m.RoutineCreate(ctx, token, "square.gcode", "square.gcode", "a square", "G28\nG1 X10 Y0 Z0 F100\n")
	require.NoError(t, err)
	require.GreaterOrEqual(t, id, 1)

	got, err := m.RoutineGet(ctx, token, id)
	require.NoError(t, err)
	assert.Equal(t, "square.gcode", got.Filename)
	assert.Equal(t, "a square", got.Description)
	assert.Equal(t, "G28\nG1 X10 Y0 Z0 F100\n", got.GcodeContent)
}

func TestMock_RoutineUpdateIsFullReplace(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	id, err := m.RoutineCreate(ctx, token, "a.gcode", "a.gcode", "first", "G28\n")
	require.NoError(t, err)

	require.NoError(t, m.RoutineUpdate(ctx, token, id, "b.gcode", "second", "G1 X1 Y1 Z1 F50\n"))

	got, err := m.RoutineGet(ctx, token, id)
	require.NoError(t, err)
	assert.Equal(t, "b.gcode", got.Filename)
	assert.Equal(t, "second", got.Description)
	assert.Equal(t, "G1 X1 Y1 Z1 F50\n", got.GcodeContent)
}

func TestMock_RoutineDelete(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	id, err := m.RoutineCreate(ctx, token, "a.gcode", "a.gcode", "d", "G28\n")
	require.NoError(t, err)
	require.NoError(t, m.RoutineDelete(ctx, token, id))

	_, err = m.RoutineGet(ctx, token, id)
	require.Error(t, err)
	assert.True(t, apierr.IsDomain(err))
}

func TestMock_ExecuteGcodeLineAccounting(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	res, err := m.ExecuteGcode(ctx, "G28\n; pure comment\nG1 X1 Y2 Z3 F100 ; trailing\n\n")
	require.NoError(t, err)
	assert.Equal(t, 2, res.LinesProcessed)
	assert.Equal(t, 5, res.LinesTotal)
	assert.Equal(t, 3, res.LinesSkipped)
}

func TestMock_ExecuteGcodeDisconnected(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	_, err := m.DisconnectRobot(ctx, token)
	require.NoError(t, err)

	_, err = m.ExecuteGcode(ctx, "G28\n")
	require.Error(t, err)
	assert.True(t, apierr.IsDomain(err))
}

func TestMock_GenerateGcodeFromMovements(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	moves := []Movement{
		{X: 0, Y: 0, Z: 10, Feedrate: 1000},
		{X: 5, Y: 5, Z: 10, Feedrate: 1000},
	}
	gen, err := m.GenerateGcodeFromMovements(ctx, token, "wave", "learned", moves)
	require.NoError(t, err)
	assert.Equal(t, "wave.gcode", gen.Filename)
	assert.Contains(t, gen.GcodeContent, "G1 X5.000 Y5.000 Z10.000 F1000")

	got, err := m.RoutineGet(ctx, token, gen.RoutineID)
	require.NoError(t, err)
	assert.Equal(t, gen.GcodeContent, got.GcodeContent)
}

func TestMock_UserAdministration(t *testing.T) {
	m := NewMock()
	token := loginAdmin(t, m)
	ctx := context.Background()

	id, err := m.UserCreate(ctx, token, "carla", "Carla123!", RoleOperator)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id, 3)

	users, err := m.UserList(ctx, token)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	require.NoError(t, m.UserUpdate(ctx, token, "carla", UserUpdate{Role: RoleAdmin}))
	info, err := m.UserInfo(ctx, token, "carla")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, info.Role)

	err = m.UserDelete(ctx, token, "admin")
	require.Error(t, err)
	assert.True(t, apierr.IsDomain(err))

	require.NoError(t, m.UserDelete(ctx, token, "carla"))
	_, err = m.UserInfo(ctx, token, "carla")
	require.Error(t, err)
}
