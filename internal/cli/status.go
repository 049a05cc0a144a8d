package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт команду status.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show runtime and deployments of a running node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			health, err := client.Health()
			if err != nil {
				return err
			}
			info, err := client.Deployment()
			if err != nil {
				return err
			}

			out.Success(strings.TrimSpace(health))
			headers := []string{"RUNTIME_ID", "DEPLOYMENT_ID", "CLUSTERED", "ADDR", "WORKERS", "DEPLOYMENTS"}
			rows := [][]string{{
				info.RuntimeID,
				info.DeploymentID,
				strconv.FormatBool(info.Clustered),
				info.Addr,
				strconv.Itoa(info.WorkerPoolSize),
				strconv.Itoa(len(info.Deployments)),
			}}
			return out.Print(headers, rows, info)
		},
	}
}
