package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecfuse/internal/app"
)

func newImportCmd(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Import products from a JSON file",
		Long: `Validate, embed and store products from a JSON file holding an array of
products or an object with a "products" array.

Items that fail validation or embedding are reported and skipped; the rest
of the file is still imported. With the local backend the result only lives
for the duration of the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.ReadCatalog(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), global, func(ctx context.Context, a *app.App) error {
				status, err := a.Catalog.Import(ctx, items)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d of %d products (%d failed)\n", status.Succeeded, status.Total, status.Failed)
				for _, e := range status.Errors {
					fmt.Fprintf(out, "  %s\n", e)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
