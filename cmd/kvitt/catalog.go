package main

import (
	"fmt"

	"github.com/Veraticus/kvittering/internal/catalog"
	"github.com/Veraticus/kvittering/internal/cli"
	"github.com/Veraticus/kvittering/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the merchants kvitt recognizes",
		Long: `List every merchant profile in the active catalog: the built-in Norwegian
catalog, or the YAML file given by --catalog / catalog.path.`,
		Args: cobra.NoArgs,
		RunE: runCatalog,
	}

	cmd.Flags().Bool("json", false, "print JSON instead of a table")

	return cmd
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cat, err := catalog.FromConfig(config.ExpandPath(viper.GetString("catalog.path")))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), cat.All())
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatCatalog(cat.All()))
	return err
}
