package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// StartOptions — флаги команды start.
type StartOptions struct {
	// ConfigPath — TOML-файл с настройками runtime.
	ConfigPath string

	// WorkingDir — рабочая директория runtime.
	WorkingDir string

	// Addr — адрес HTTP unit.
	Addr string

	// Standalone отключает кластерный режим.
	Standalone bool

	// ReadyTimeout — предел ожидания готовности unit (0 — без предела).
	ReadyTimeout time.Duration

	// ShutdownTimeout — предел остановки runtime.
	ShutdownTimeout time.Duration
}

// NewStartCmd создаёт команду start. Запуск выполняет runFn.
func NewStartCmd(runFn func(ctx context.Context, opts StartOptions) error) *cobra.Command {
	var opts StartOptions

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a runtime and deploy the HTTP unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFn(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Path to TOML config file")
	cmd.Flags().StringVar(&opts.WorkingDir, "cwd", "", "Working directory (default: current directory)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (default: $KOVERT_ADDR or :8080)")
	cmd.Flags().BoolVar(&opts.Standalone, "standalone", false, "Run without joining a cluster")
	cmd.Flags().DurationVar(&opts.ReadyTimeout, "ready-timeout", 0, "Fail if the unit is not ready in time (0 waits forever)")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	return cmd
}
