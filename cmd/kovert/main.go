// kovert — запуск кластерного runtime с HTTP unit и инструменты узла.
//
// Использование:
//
//	kovert [--json] [--node-url URL] <command> [flags]
//
// Команды:
//
//	start    Запустить runtime и развернуть HTTP unit
//	members  Показать участников кластерной группы
//	status   Показать состояние запущенного узла
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cybernetics/kovert/internal/cli"
	"github.com/cybernetics/kovert/internal/repo"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var nodeURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "kovert",
		Short:         "kovert — clustered runtime bootstrap",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&nodeURL, "node-url", "http://localhost:8080", "Node HTTP API URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(nodeURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewStartCmd(runStart),
		cli.NewMembersCmd(openMemberRegistry, outputFn),
		cli.NewStatusCmd(clientFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.NewOutput(jsonOutput).Error(err.Error())
		cancel()
		os.Exit(1)
	}
}

// openMemberRegistry подключается к реестру участников в PostgreSQL.
func openMemberRegistry(ctx context.Context) (cli.MemberLister, func(), error) {
	pool, err := repo.NewPool(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return repo.NewClusterRepo(pool), pool.Close, nil
}
