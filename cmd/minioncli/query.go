package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/format"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/explorer"
)

// filterFlags mirror the explorer form controls.
type filterFlags struct {
	layout   string
	minion   string
	sort     string
	asc      bool
	seconds  []int
	upgrades []string
	fuels    []string
	storages []string
	exclude  []string
	minCost  float64
	maxCost  float64
	page     int
	pageSize int
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&ff.layout, "layout", "l", "table", "column layout: table or upgrades")
	f.StringVarP(&ff.minion, "minion", "m", "", "minion name substring")
	f.StringVarP(&ff.sort, "sort", "s", "", "sort column (default: layout default)")
	f.BoolVar(&ff.asc, "asc", false, "sort ascending")
	f.IntSliceVar(&ff.seconds, "seconds", nil, "timescales in seconds, e.g. 86400,604800")
	f.StringSliceVar(&ff.upgrades, "upgrade", nil, "allowed upgrades: mithril_infusion, free_will, postcard")
	f.StringSliceVar(&ff.fuels, "fuel", nil, "fuels to include")
	f.StringSliceVar(&ff.storages, "storage", nil, "storage types to include")
	f.StringSliceVar(&ff.exclude, "exclude-item", nil, "items to exclude")
	f.Float64Var(&ff.minCost, "min-cost", 0, "minimum total cost")
	f.Float64Var(&ff.maxCost, "max-cost", 0, "maximum total cost")
	f.IntVar(&ff.page, "page", 1, "page number")
	f.IntVar(&ff.pageSize, "page-size", 20, "rows per page")
}

// values encodes the flags as form values. Only flags the user set count as
// touched controls, so unset checkbox groups add no clause.
func (ff *filterFlags) values(cmd *cobra.Command) url.Values {
	v := url.Values{}
	changed := cmd.Flags().Changed
	if ff.minion != "" {
		v.Set(filter.ParamMinion, ff.minion)
	}
	if ff.sort != "" {
		v.Set(filter.ParamSortColumn, ff.sort)
	}
	if ff.asc {
		v.Set(filter.ParamSortOrder, "asc")
	}
	for _, s := range ff.seconds {
		v.Add(filter.ParamSeconds, strconv.Itoa(s))
	}
	for param, list := range map[string][]string{
		filter.ParamUpgrade: ff.upgrades,
		filter.ParamFuel:    ff.fuels,
		filter.ParamStorage: ff.storages,
		filter.ParamExclude: ff.exclude,
	} {
		for _, s := range list {
			v.Add(param, s)
		}
	}
	if changed("min-cost") {
		v.Set(filter.ParamMinCost, strconv.FormatFloat(ff.minCost, 'f', -1, 64))
	}
	if changed("max-cost") {
		v.Set(filter.ParamMaxCost, strconv.FormatFloat(ff.maxCost, 'f', -1, 64))
	}
	v.Set(filter.ParamPage, strconv.Itoa(ff.page))
	v.Set(filter.ParamPageSize, strconv.Itoa(ff.pageSize))
	return v
}

// collect turns the flags into a Filter for the chosen layout. Checkbox
// groups the user did not pass stay nil, i.e. unrestricted.
func (ff *filterFlags) collect(cmd *cobra.Command, svc *explorer.Service) (minion.Layout, filter.Filter, error) {
	layout, err := minion.LayoutByName(ff.layout)
	if err != nil {
		return layout, filter.Filter{}, err
	}
	d := filter.Defaults{Layout: layout, PageSize: ff.pageSize}
	if layout.CostRange {
		lo, hi, err := svc.Store().Bounds(cmd.Context(), explorer.CostColumn)
		if err != nil {
			return layout, filter.Filter{}, err
		}
		d.CostMin, d.CostMax = lo, hi
	}
	f, err := filter.Collect(ff.values(cmd), d)
	return layout, f, err
}

func queryCommand(a *app) *cobra.Command {
	var ff filterFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print one page of combinations",
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
			page, err := svc.Page(cmd.Context(), f)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(page)
			}
			if err := printTable(cmd.OutOrStdout(), layout, page.Results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s, %d rows\n", page.Pager.Label(), page.Pager.Total)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// printTable writes results aligned in columns, blobs left out.
func printTable(w io.Writer, layout minion.Layout, results []minion.Result) error {
	var columns []minion.Column
	for _, c := range layout.ColumnDefs() {
		if c.Kind != minion.KindBlob {
			columns = append(columns, c)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Label)
	}
	fmt.Fprintln(tw)
	for i := range results {
		r := &results[i]
		for j, c := range columns {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}
			value, _ := r.Value(c.Name)
			fmt.Fprint(tw, format.Cell(c.Kind, value))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
