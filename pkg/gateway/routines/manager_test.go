package routines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

// spyBackend counts routine-related facade calls on the way to the mock.
type spyBackend struct {
	backend.Backend
	calls int
}

func (s *spyBackend) RoutineList(ctx context.Context, token string) ([]backend.Routine, error) {
	s.calls++
	return s.Backend.RoutineList(ctx, token)
}

func (s *spyBackend) RoutineGet(ctx context.Context, token string, id int) (*backend.Routine, error) {
	s.calls++
	return s.Backend.RoutineGet(ctx, token, id)
}

func (s *spyBackend) RoutineCreate(ctx context.Context, token, filename, originalFilename, description, content string) (int, error) {
	s.calls++
	return s.Backend.RoutineCreate(ctx, token, filename, originalFilename, description, content)
}

func (s *spyBackend) RoutineUpdate(ctx context.Context, token string, id int, filename, description, content string) error {
	s.calls++
	return s.Backend.RoutineUpdate(ctx, token, id, filename, description, content)
}

func (s *spyBackend) RoutineDelete(ctx context.Context, token string, id int) error {
	s.calls++
	return s.Backend.RoutineDelete(ctx, token, id)
}

func (s *spyBackend) ExecuteGcode(ctx context.Context, content string) (*backend.ExecuteResult, error) {
	s.calls++
	return s.Backend.ExecuteGcode(ctx, content)
}

func newFixture(t *testing.T) (*Manager, *spyBackend, *backend.Mock, string) {
	t.Helper()
	mock := backend.NewMock()
	res, err := mock.Login(context.Background(), "admin", "Admin123!", backend.LoginMeta{})
	require.NoError(t, err)
	spy := &spyBackend{Backend: mock}
	return NewManager(spy, nil), spy, mock, res.Token
}

func TestCreate_RequiresFilenameAndContent(t *testing.T) {
	mgr, spy, _, token := newFixture(t)

	_, err := mgr.Create(context.Background(), token, SaveInput{Description: "only a description"})
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))
	// Both missing fields are reported at once.
	assert.Contains(t, err.Error(), "filename is required")
	assert.Contains(t, err.Error(), "G-code content is required")
	assert.Zero(t, spy.calls)
}

func TestCreate_UploadTakesPrecedence(t *testing.T) {
	mgr, _, _, token := newFixture(t)
	ctx := context.Background()

	id, err := mgr.Create(ctx, token, SaveInput{
		Filename:   "typed.gcode",
		Content:    "G0 X0\n",
		UploadName: "uploaded.gcode",
		UploadData: []byte("G28\nG1 X5 Y5 Z5 F100\n"),
	})
	require.NoError(t, err)

	got, err := mgr.Get(ctx, token, "1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "uploaded.gcode", got.Filename)
	assert.Equal(t, "G28\nG1 X5 Y5 Z5 F100\n", got.GcodeContent)
	assert.Equal(t, DefaultDescription, got.Description)
}

func TestCreate_RejectsBinaryUpload(t *testing.T) {
	mgr, spy, _, token := newFixture(t)

	_, err := mgr.Create(context.Background(), token, SaveInput{
		Filename:   "blob.gcode",
		UploadData: []byte{0xff, 0xfe, 0x00, 0x80},
	})
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))
	assert.Zero(t, spy.calls)
}

func TestGet_InvalidIDFailsFast(t *testing.T) {
	mgr, spy, _, token := newFixture(t)

	for _, bad := range []string{"", "abc", "0", "-1"} {
		_, err := mgr.Get(context.Background(), token, bad)
		require.Error(t, err, "id %q", bad)
		assert.True(t, apierr.IsValidation(err))
	}
	assert.Zero(t, spy.calls)
}

func TestUpdate_KeepsFormFilename(t *testing.T) {
	mgr, _, _, token := newFixture(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, token, SaveInput{Filename: "a.gcode", Content: "G28\n"})
	require.NoError(t, err)

	err = mgr.Update(ctx, token, "1", SaveInput{
		Filename:    "renamed.gcode",
		Description: "new words",
		UploadName:  "ignored.gcode",
		UploadData:  []byte("G1 X9 Y9 Z9 F50\n"),
	})
	require.NoError(t, err)

	got, err := mgr.Get(ctx, token, "1")
	require.NoError(t, err)
	assert.Equal(t, "renamed.gcode", got.Filename)
	assert.Equal(t, "G1 X9 Y9 Z9 F50\n", got.GcodeContent)
}

func TestExecute_DistinguishesLookupFromRobotRejection(t *testing.T) {
	mgr, _, mock, token := newFixture(t)
	ctx := context.Background()

	// Lookup failure: id that does not exist.
	_, err := mgr.Execute(ctx, token, "99")
	require.Error(t, err)
	assert.True(t, apierr.IsDomain(err))
	assert.False(t, IsExecutionError(err))

	// Robot rejection of a found routine: disconnect, then execute.
	_, err = mgr.Create(ctx, token, SaveInput{Filename: "a.gcode", Content: "G28\n"})
	require.NoError(t, err)
	_, err = mock.DisconnectRobot(ctx, token)
	require.NoError(t, err)

	_, err = mgr.Execute(ctx, token, "1")
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))
	assert.True(t, apierr.IsDomain(err)) // kind survives the wrap
	assert.Contains(t, err.Error(), "executing routine")
}

func TestExecute_ReportsLinesProcessed(t *testing.T) {
	mgr, _, _, token := newFixture(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, token, SaveInput{
		Filename: "square.gcode",
		Content:  "G28\nG1 X10 Y0 Z0 F100\nG1 X10 Y10 Z0 F100\n",
	})
	require.NoError(t, err)

	outcome, err := mgr.Execute(ctx, token, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Result.LinesProcessed)
	assert.Contains(t, outcome.Message, "3 lines processed")
	assert.Contains(t, outcome.Message, "square.gcode")
}

func TestDelete_InvalidID(t *testing.T) {
	mgr, spy, _, token := newFixture(t)

	err := mgr.Delete(context.Background(), token, "nope")
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))
	assert.Zero(t, spy.calls)
}

func TestDownload(t *testing.T) {
	mgr, _, _, token := newFixture(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, token, SaveInput{Filename: "dl.gcode", Content: "G28\n"})
	require.NoError(t, err)

	name, data, err := mgr.Download(ctx, token, "1")
	require.NoError(t, err)
	assert.Equal(t, "dl.gcode", name)
	assert.Equal(t, []byte("G28\n"), data)
}
