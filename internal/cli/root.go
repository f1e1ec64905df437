// Package cli implements the armgate command tree: the gateway service
// under "serve" and a small operator client that talks to the control
// server directly for smoke checks.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRootCmd creates the root armgate command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "armgate",
		Short: "Robot command gateway",
		Long: `armgate bridges web sessions to a robot control server.

The gateway authenticates users against the control server over XML-RPC,
holds the issued bearer token in a server-side session and exposes robot
commands, routine management and learning capture as a JSON API.

Examples:
  armgate serve --config config/armgate.yaml
  armgate ping --endpoint http://localhost:8081/RPC2
  armgate routines list --username admin --password Admin123!`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewPingCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewRoutinesCmd())

	return cmd
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
