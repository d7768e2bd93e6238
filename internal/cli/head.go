package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/dataset"
)

func newHeadCommand(opts *loadOptions) *cobra.Command {
	var (
		rows   int
		offset int
		format string
	)

	cmd := &cobra.Command{
		Use:   "head FILE",
		Short: "Print a page of rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows <= 0 {
				return fmt.Errorf("-n must be > 0, got %d", rows)
			}
			if offset < 0 {
				return fmt.Errorf("--offset must be >= 0, got %d", offset)
			}

			svc, id, err := opts.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			page, err := svc.Data(cmd.Context(), id, offset, rows)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return renderJSON(cmd.OutOrStdout(), page)
			case "table":
				renderPage(cmd.OutOrStdout(), page)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "Number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "First row to print")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json)")
	return cmd
}

func renderPage(w io.Writer, page *core.DataPage) {
	if len(page.Data) == 0 {
		fmt.Fprintf(w, "(0 rows of %d)\n", page.TotalRows)
		return
	}

	t := newTable(w)
	header := make(table.Row, len(page.Columns))
	for i, c := range page.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, rec := range page.Data {
		row := make(table.Row, len(rec))
		for i, f := range rec {
			row[i] = dataset.FormatCell(f.Value)
		}
		t.AppendRow(row)
	}
	t.SetCaption("rows %d-%d of %d", page.Pagination.Offset+1, page.Pagination.Offset+page.Pagination.Count, page.TotalRows)
	t.Render()
}
