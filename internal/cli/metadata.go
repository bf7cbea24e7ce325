package cli

import (
	"github.com/aussiebroadwan/shoppinghelp/internal/app"
	"github.com/spf13/cobra"
)

func (e *env) newMetadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata RECIPE_URL",
		Short: "Fetch recipe metadata scraped from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				meta, err := a.API.RecipeMetadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), meta)
			})
		},
	}
}
