package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruslano69/minionview/pkg/core/format"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/xlsx"
)

func bestCommand(a *app) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Print the best combination for every budget and frequency",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, store, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			cells, err := svc.Grid(cmd.Context(), types)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprint(tw, "Budget")
			for _, f := range minion.Frequencies {
				fmt.Fprint(tw, "\t"+f.Label)
			}
			fmt.Fprintln(tw)
			for _, budget := range minion.Budgets {
				fmt.Fprint(tw, format.Money(float64(budget)))
				for _, f := range minion.Frequencies {
					fmt.Fprint(tw, "\t")
					if b := cells[minion.CellID(budget, f.Seconds)]; b != nil {
						fmt.Fprintf(tw, "%s %s/day", b.Title(), format.Money(b.DailyProfit))
					}
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "minion types, e.g. Sheep-t11,Slime (default: all)")
	return cmd
}

func exportCommand(a *app) *cobra.Command {
	var ff filterFlags
	var output string
	var limit int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching combinations to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, store, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			layout, f, err := ff.collect(cmd, svc)
			if err != nil {
				return err
			}
			b, err := store.Builder()
			if err != nil {
				return err
			}
			stmt, err := b.Select(f, 1, limit)
			if err != nil {
				return err
			}
			results, err := svc.Results(cmd.Context(), stmt)
			if err != nil {
				return err
			}

			if output == "" {
				output = "minions-" + layout.Name + ".xlsx"
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := xlsx.Write(file, layout, results); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(results), output)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: minions-<layout>.xlsx)")
	cmd.Flags().IntVar(&limit, "limit", 100_000, "maximum rows")
	return cmd
}

func convertCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input.json[.gz|.zst]> <output.db>",
		Short: "Convert a JSON dataset into a SQLite database file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := &dataset.Source{Location: args[0], Retry: a.cfg.Retry, Timeout: a.cfg.Timeout, S3: a.cfg.S3}
			payload, err := src.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			if payload.Format != dataset.FormatJSON {
				return fmt.Errorf("%s is not a JSON dataset", args[0])
			}
			rows, err := dataset.DecodeJSON(payload.Data)
			if err != nil {
				return err
			}
			if err := dataset.WriteSQLite(cmd.Context(), args[1], rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(rows), args[1])
			return nil
		},
	}
}

func infoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show row count, checksum and minions of the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			info, err := store.Info()
			if err != nil {
				return err
			}
			minions, err := store.Distinct(cmd.Context(), "minion")
			if err != nil {
				return err
			}
			sort.Strings(minions)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Type:     %s (%s)\n", info.Type, info.Dialect)
			fmt.Fprintf(w, "Location: %s\n", info.Location)
			if info.Checksum != "" {
				fmt.Fprintf(w, "Checksum: %s\n", info.Checksum)
			}
			fmt.Fprintf(w, "Rows:     %d\n", info.Rows)
			fmt.Fprintf(w, "Minions:  %v\n", minions)
			return nil
		},
	}
}
