// Package routines manages the lifecycle of stored G-code routines on top
// of the command facade. The manager is stateless: the remote server is
// the single source of truth for routine existence and content, and every
// operation re-fetches what it needs.
package routines

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
	"github.com/armgate-dev/armgate/pkg/gateway/params"
)

// DefaultDescription is stored when a routine is saved without one.
const DefaultDescription = "No description provided"

// SaveInput is the raw create/update payload from the web tier. Content
// may arrive inline or as uploaded file bytes; the upload wins when both
// are present.
type SaveInput struct {
	Filename    string
	Description string
	Content     string
	UploadName  string
	UploadData  []byte
}

// ExecutionError marks a failure of the robot while running a routine that
// was found and fetched, as opposed to the lookup itself failing.
type ExecutionError struct {
	Filename string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing routine %q on robot: %v", e.Filename, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsExecutionError reports whether err is a robot-side execution failure.
func IsExecutionError(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e)
}

// ExecuteOutcome reports a completed routine execution.
type ExecuteOutcome struct {
	Routine *backend.Routine       `json:"routine"`
	Result  *backend.ExecuteResult `json:"result"`
	Message string                 `json:"message"`
}

// Manager validates inbound routine operations and drives them through
// the facade.
type Manager struct {
	backend backend.Backend
	logger  *zap.Logger
}

// NewManager creates a Manager over b.
func NewManager(b backend.Backend, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{backend: b, logger: logger}
}

// resolve applies upload precedence and validates the payload. All field
// problems are collected so one response names every bad field.
func (in SaveInput) resolve(allowUploadName bool) (filename, description, content string, err error) {
	filename = in.Filename
	content = in.Content

	if len(in.UploadData) > 0 {
		if !utf8.Valid(in.UploadData) {
			return "", "", "", apierr.New(apierr.KindValidation, "uploaded file is not valid UTF-8 text", nil)
		}
		content = string(in.UploadData)
		if allowUploadName && in.UploadName != "" {
			filename = in.UploadName
		}
	}

	var merr *multierror.Error
	if filename == "" {
		merr = multierror.Append(merr, errors.New("filename is required"))
	}
	if content == "" {
		merr = multierror.Append(merr, errors.New("G-code content is required"))
	}
	if verr := merr.ErrorOrNil(); verr != nil {
		return "", "", "", apierr.New(apierr.KindValidation, verr.Error(), verr)
	}

	description = in.Description
	if description == "" {
		description = DefaultDescription
	}
	return filename, description, content, nil
}

// List returns the caller's routines without their program bodies.
func (m *Manager) List(ctx context.Context, token string) ([]backend.Routine, error) {
	return m.backend.RoutineList(ctx, token)
}

// Get fetches one routine. id is coerced from its inbound string form and
// must be a positive integer; anything else fails before a remote call.
func (m *Manager) Get(ctx context.Context, token, id string) (*backend.Routine, error) {
	routineID, err := params.ID("id", id)
	if err != nil {
		return nil, err
	}
	return m.backend.RoutineGet(ctx, token, routineID)
}

// Create validates the payload and persists a new routine, returning the
// id the remote server assigned.
func (m *Manager) Create(ctx context.Context, token string, in SaveInput) (int, error) {
	filename, description, content, err := in.resolve(true)
	if err != nil {
		return 0, err
	}

	id, err := m.backend.RoutineCreate(ctx, token, filename, filename, description, content)
	if err != nil {
		return 0, err
	}
	m.logger.Info("routine created",
		zap.Int("id", id),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)),
	)
	return id, nil
}

// Update replaces a routine in full; it is not a patch.
func (m *Manager) Update(ctx context.Context, token, id string, in SaveInput) error {
	routineID, err := params.ID("id", id)
	if err != nil {
		return err
	}
	filename, description, content, err := in.resolve(false)
	if err != nil {
		return err
	}

	if err := m.backend.RoutineUpdate(ctx, token, routineID, filename, description, content); err != nil {
		return err
	}
	m.logger.Info("routine updated", zap.Int("id", routineID), zap.String("filename", filename))
	return nil
}

// Delete removes a routine unconditionally; there is no dependency check
// against in-flight executions.
func (m *Manager) Delete(ctx context.Context, token, id string) error {
	routineID, err := params.ID("id", id)
	if err != nil {
		return err
	}
	if err := m.backend.RoutineDelete(ctx, token, routineID); err != nil {
		return err
	}
	m.logger.Info("routine deleted", zap.Int("id", routineID))
	return nil
}

// Execute fetches a routine and streams its body to the robot. A lookup
// failure propagates as-is; a robot rejection of the fetched program is
// wrapped as an ExecutionError so callers can tell the two apart.
func (m *Manager) Execute(ctx context.Context, token, id string) (*ExecuteOutcome, error) {
	routineID, err := params.ID("id", id)
	if err != nil {
		return nil, err
	}

	routine, err := m.backend.RoutineGet(ctx, token, routineID)
	if err != nil {
		return nil, err
	}

	result, err := m.backend.ExecuteGcode(ctx, routine.GcodeContent)
	if err != nil {
		return nil, &ExecutionError{Filename: routine.Filename, Err: err}
	}

	outcome := &ExecuteOutcome{
		Routine: routine,
		Result:  result,
		Message: fmt.Sprintf("routine %q executed, %d lines processed", routine.Filename, result.LinesProcessed),
	}
	m.logger.Info("routine executed",
		zap.Int("id", routineID),
		zap.String("filename", routine.Filename),
		zap.Int("lines_processed", result.LinesProcessed),
	)
	return outcome, nil
}

// Download fetches a routine body for file delivery.
func (m *Manager) Download(ctx context.Context, token, id string) (string, []byte, error) {
	routine, err := m.Get(ctx, token, id)
	if err != nil {
		return "", nil, err
	}
	return routine.Filename, []byte(routine.GcodeContent), nil
}
