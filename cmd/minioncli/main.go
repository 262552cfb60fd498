// minioncli queries a minion combination dataset from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/explorer"
	"github.com/ruslano69/minionview/pkg/retry"
)

// app holds the dataset flags shared by every command.
type app struct {
	cfg     dataset.Config
	verbose bool
}

// open loads the dataset. The caller closes the returned store.
func (a *app) open(ctx context.Context) (*explorer.Service, *dataset.Store, error) {
	store, err := dataset.Open(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	return explorer.New(store, nil), store, nil
}

func newCLI() *cobra.Command {
	a := &app{}
	a.cfg.Retry = retry.DefaultConfig()

	root := &cobra.Command{
		Use:           "minioncli",
		Short:         "Query simulated minion combinations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if a.verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			if env := os.Getenv("MINIONVIEW_DATASET"); env != "" && !cmd.Flags().Changed("dataset") {
				a.cfg.Location = env
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfg.Location, "dataset", "d", "data/sheep_minion_combinations.db", "dataset path, http(s):// or s3:// URL")
	pf.StringVar(&a.cfg.Type, "type", "", "dataset type: sqlite, json, postgres, mysql, mssql (default: detect)")
	pf.StringVar(&a.cfg.DSN, "dsn", "", "connection string for postgres, mysql or mssql")
	pf.StringVar(&a.cfg.Checksum, "checksum", "", "expected xxh3 of the asset")
	pf.DurationVar(&a.cfg.Timeout, "timeout", 60*time.Second, "remote fetch timeout")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		queryCommand(a),
		bestCommand(a),
		exportCommand(a),
		convertCommand(a),
		infoCommand(a),
	)
	return root
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := newCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
