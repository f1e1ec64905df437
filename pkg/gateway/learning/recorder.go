// Package learning converts a captured sequence of jog movements into a
// persisted routine. The movement sequence lives in the caller's tier; the
// recorder only ever sees the completed capture and holds no state of its
// own.
package learning

import (
	"context"

	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

// DefaultDescription is stored when a learned routine is saved without one.
const DefaultDescription = "Trajectory captured in learning mode"

// Recorder finalizes learned trajectories through the facade.
type Recorder struct {
	backend backend.Backend
	logger  *zap.Logger
}

// NewRecorder creates a Recorder over b.
func NewRecorder(b backend.Backend, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{backend: b, logger: logger}
}

// Save converts movements into one persisted routine. It requires a
// non-empty target name and a non-empty sequence, and issues exactly one
// facade call.
func (r *Recorder) Save(ctx context.Context, token, name, description string, movements []backend.Movement) (*backend.GeneratedRoutine, error) {
	if name == "" {
		return nil, apierr.New(apierr.KindValidation, "routine name is required", nil)
	}
	if len(movements) == 0 {
		return nil, apierr.New(apierr.KindValidation, "at least one captured movement is required", nil)
	}
	if description == "" {
		description = DefaultDescription
	}

	gen, err := r.backend.GenerateGcodeFromMovements(ctx, token, name, description, movements)
	if err != nil {
		return nil, err
	}
	r.logger.Info("learned routine saved",
		zap.String("name", name),
		zap.Int("movements", len(movements)),
		zap.Int("routine_id", gen.RoutineID),
	)
	return gen, nil
}
