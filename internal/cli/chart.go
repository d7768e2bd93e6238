package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvviz/internal/chart"
	"github.com/JonMunkholm/csvviz/internal/core"
)

func newChartCommand(opts *loadOptions) *cobra.Command {
	var req chart.Request

	cmd := &cobra.Command{
		Use:   "chart FILE",
		Short: "Print the chart figure JSON for a file",
		Long: `Builds the same Plotly-compatible figure as POST /api/visualize and
prints the response document as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := opts.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := svc.Visualize(cmd.Context(), core.VisualizeRequest{DatasetID: id, Request: req})
			if err != nil {
				return err
			}
			return renderJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", chart.DefaultType, "Chart type")
	cmd.Flags().StringVar(&req.X, "x", "", "X axis column")
	cmd.Flags().StringVar(&req.Y, "y", "", "Y axis column")
	cmd.Flags().StringVar(&req.Color, "color", "", "Column to group and color by")
	cmd.Flags().StringVar(&req.Title, "title", "", "Chart title")
	cmd.Flags().StringVar(&req.XLabel, "x-label", "", "X axis label")
	cmd.Flags().StringVar(&req.YLabel, "y-label", "", "Y axis label")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return chart.Types(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
