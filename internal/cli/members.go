package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/spf13/cobra"
)

// MemberLister — источник участников группы.
type MemberLister interface {
	ListMembers(ctx context.Context, group string) ([]domain.Member, error)
}

// NewMembersCmd создаёт команду members.
//
// listerFn открывает реестр и возвращает функцию его закрытия.
func NewMembersCmd(
	listerFn func(ctx context.Context) (MemberLister, func(), error),
	outputFn func() *Output,
) *cobra.Command {
	var group string
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List members of a cluster group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if group == "" {
				return fmt.Errorf("--group is required")
			}
			out := outputFn()

			lister, closeFn, err := listerFn(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			members, err := lister.ListMembers(cmd.Context(), group)
			if err != nil {
				return err
			}

			now := time.Now()
			headers := []string{"NODE_ID", "HOST", "JOINED", "LAST_SEEN", "STATE"}
			rows := make([][]string, len(members))
			for i, m := range members {
				state := "alive"
				if staleAfter > 0 && m.IsStale(now, staleAfter) {
					state = "stale"
				}
				rows[i] = []string{
					m.NodeID.String(),
					m.Host,
					m.JoinedAt.Format(time.RFC3339),
					m.LastSeenAt.Format(time.RFC3339),
					state,
				}
			}

			return out.Print(headers, rows, members)
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Cluster group name")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 30*time.Second, "Mark members without heartbeat for this long as stale (0 disables)")

	return cmd
}
