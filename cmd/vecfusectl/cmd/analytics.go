package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecfuse/internal/app"
	analyticsuc "github.com/kailas-cloud/vecfuse/internal/usecase/analytics"
)

func newAnalyticsCmd(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print catalog statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), global, func(ctx context.Context, a *app.App) error {
				ov, err := a.Analytics.Overview(ctx)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), ov)
				}
				printOverview(cmd.OutOrStdout(), ov)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func printOverview(w io.Writer, ov analyticsuc.Overview) {
	fmt.Fprintf(w, "Products: %d\n", ov.TotalProducts)
	if ov.TotalProducts == 0 {
		return
	}
	fmt.Fprintf(w, "Average price %.2f, average rating %.2f\n", ov.AvgPrice, ov.AvgRating)

	fmt.Fprintln(w, "\nCategories:")
	for _, c := range ov.CategoryStats {
		fmt.Fprintf(w, "  %-30s %6d  avg %.2f\n", c.Category, c.Count, c.AvgPrice)
	}
	printCounts(w, "Top brands", ov.TopBrands)
	printCounts(w, "Stock", ov.Stock)
	printBuckets(w, "Price", ov.PriceHistogram)
	printBuckets(w, "Rating", ov.RatingDistribution)
}
