package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/stats"
)

func newDescribeCommand(opts *loadOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Show shape, column types and summary statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := opts.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := svc.Stats(cmd.Context(), id)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return renderJSON(cmd.OutOrStdout(), res)
			case "table":
				renderDescribe(cmd.OutOrStdout(), res)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderDescribe(w io.Writer, res *core.StatsResult) {
	info := res.Info
	fmt.Fprintf(w, "%s: %d rows x %d columns, %d missing values, %.2f MB\n\n",
		res.DatasetID, info.Shape[0], info.Shape[1], res.Summary.TotalMissing, res.Summary.MemoryUsageMB)

	cols := newTable(w)
	cols.SetTitle("Columns")
	cols.AppendHeader(table.Row{"Column", "Type", "Missing"})
	for _, f := range info.DTypes {
		missing, _ := info.MissingValues.Get(f.Key)
		cols.AppendRow(table.Row{f.Key, f.Value, missing})
	}
	cols.Render()

	if len(res.Statistics.Numeric) > 0 {
		fmt.Fprintln(w)
		t := newTable(w)
		t.SetTitle("Numeric")
		t.AppendHeader(table.Row{"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"})
		for _, f := range res.Statistics.Numeric {
			n := f.Value.(stats.Numeric)
			t.AppendRow(table.Row{f.Key, n.Count,
				formatStat(n.Mean), formatStat(n.Std), formatStat(n.Min),
				formatStat(n.Q25), formatStat(n.Q50), formatStat(n.Q75), formatStat(n.Max)})
		}
		alignRight(t, 2, 9)
		t.Render()
	}

	if len(res.Statistics.Categorical) > 0 {
		fmt.Fprintln(w)
		t := newTable(w)
		t.SetTitle("Categorical")
		t.AppendHeader(table.Row{"Column", "Unique", "Top value", "Top count", "Missing"})
		for _, f := range res.Statistics.Categorical {
			c := f.Value.(stats.Categorical)
			top, count := "", any("")
			if len(c.TopValues) > 0 {
				top, count = c.TopValues[0].Key, c.TopValues[0].Value
			}
			t.AppendRow(table.Row{f.Key, c.UniqueCount, top, count, c.MissingCount})
		}
		t.Render()
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// alignRight right-aligns columns from..to (1-based, inclusive).
func alignRight(t table.Writer, from, to int) {
	var configs []table.ColumnConfig
	for i := from; i <= to; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
}

func formatStat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', 6, 64)
}
