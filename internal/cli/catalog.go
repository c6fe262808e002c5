package cli

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List selectable civilizations and colors",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "civs",
		Short: "List civilizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Catalog
			if err := client.Get("/api/v1/catalog/civilizations", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "colors",
		Short: "List colors",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Catalog
			if err := client.Get("/api/v1/catalog/colors", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}
