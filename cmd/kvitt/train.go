package main

import (
	"fmt"

	"github.com/Veraticus/kvittering/internal/cli"
	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a fine-tuning pass over submitted corrections",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}

	cmd.Flags().Bool("json", false, "print JSON instead of a formatted report")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	metrics, err := a.engine.Train(ctx)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), metrics)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTraining(metrics))
	return err
}
