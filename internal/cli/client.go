package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/backend"
	"github.com/armgate-dev/armgate/pkg/gateway/routines"
)

// clientOptions are the flags shared by the operator client commands.
type clientOptions struct {
	Endpoint string
	Username string
	Password string
	Timeout  time.Duration
}

func (o *clientOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Endpoint, "endpoint", "http://localhost:8081/RPC2", "Control server XML-RPC endpoint")
	cmd.Flags().StringVar(&o.Username, "username", "", "Username for the control server")
	cmd.Flags().StringVar(&o.Password, "password", "", "Password for the control server")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 10*time.Second, "Per-call timeout")
}

func (o *clientOptions) backend() (backend.Backend, error) {
	return backend.New(backend.Config{Endpoint: o.Endpoint, Timeout: o.Timeout}, zap.NewNop(), nil)
}

// withSession logs in, runs fn with the issued token and logs out again.
func (o *clientOptions) withSession(ctx context.Context, fn func(context.Context, backend.Backend, string) error) error {
	if o.Username == "" || o.Password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	b, err := o.backend()
	if err != nil {
		return err
	}

	login, err := b.Login(ctx, o.Username, o.Password, backend.LoginMeta{UserAgent: "armgate-cli"})
	if err != nil {
		return err
	}
	defer b.Logout(ctx, login.Token) //nolint:errcheck

	return fn(ctx, b, login.Token)
}

// NewLoginCmd creates the login command. It verifies credentials against
// the control server and reports the granted roles; the token is released
// right away.
func NewLoginCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials against the control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Username == "" || opts.Password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			b, err := opts.backend()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			login, err := b.Login(ctx, opts.Username, opts.Password, backend.LoginMeta{UserAgent: "armgate-cli"})
			if err != nil {
				color.Red("login failed: %v", err)
				return err
			}
			defer b.Logout(ctx, login.Token) //nolint:errcheck

			color.Green("authenticated as %s (roles: %v)", login.User.Username, login.Roles)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// NewPingCmd creates the ping command.
func NewPingCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the control server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend()
			if err != nil {
				return err
			}
			if err := b.Ping(cmd.Context()); err != nil {
				color.Red("control server unreachable: %v", err)
				return err
			}
			color.Green("control server is up at %s", opts.Endpoint)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the unified robot status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), func(ctx context.Context, b backend.Backend, token string) error {
				status, err := b.MyStatus(ctx, token)
				if err != nil {
					return err
				}

				onOff := func(v bool) string {
					if v {
						return color.GreenString("on")
					}
					return color.RedString("off")
				}

				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendRows([]table.Row{
					{"connected", onOff(status.Connected)},
					{"motors", onOff(status.MotorsOn)},
					{"gripper", onOff(status.GripperOn)},
					{"mode", status.Mode},
					{"position", fmt.Sprintf("X%.3f Y%.3f Z%.3f", status.Position.X, status.Position.Y, status.Position.Z)},
				})
				t.Render()
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

// NewRoutinesCmd creates the routines command group.
func NewRoutinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routines",
		Short: "Inspect and run stored G-code routines",
	}
	cmd.AddCommand(newRoutinesListCmd())
	cmd.AddCommand(newRoutinesGetCmd())
	cmd.AddCommand(newRoutinesExecuteCmd())
	return cmd
}

func newRoutinesListCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored routines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), func(ctx context.Context, b backend.Backend, token string) error {
				list, err := routines.NewManager(b, nil).List(ctx, token)
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"ID", "Filename", "Description", "Size"})
				for _, r := range list {
					t.AppendRow(table.Row{r.ID, r.Filename, r.Description, r.FileSize})
				}
				t.Render()
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newRoutinesGetCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Print a routine's G-code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), func(ctx context.Context, b backend.Backend, token string) error {
				routine, err := routines.NewManager(b, nil).Get(ctx, token, args[0])
				if err != nil {
					return err
				}
				color.Cyan("; %s (id %d) - %s", routine.Filename, routine.ID, routine.Description)
				fmt.Println(routine.GcodeContent)
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newRoutinesExecuteCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "execute [id]",
		Short: "Run a stored routine on the robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), func(ctx context.Context, b backend.Backend, token string) error {
				outcome, err := routines.NewManager(b, nil).Execute(ctx, token, args[0])
				if err != nil {
					if routines.IsExecutionError(err) {
						color.Red("robot rejected the routine: %v", err)
					}
					return err
				}
				color.Green("%s", outcome.Message)
				fmt.Printf("lines: %d processed, %d skipped, %d total\n",
					outcome.Result.LinesProcessed, outcome.Result.LinesSkipped, outcome.Result.LinesTotal)
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}
