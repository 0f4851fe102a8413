package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/Veraticus/kvittering/internal/cli"
	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/ofx"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import purchase history from OFX/QFX files",
		Long: `Import card and account purchases from OFX or QFX files exported from your
bank. Merchants are matched against the catalog and each purchase is tagged with
its season and cultural event. Imported history feeds 'kvitt predict --from-db'.

Examples:
  kvitt import-ofx ~/Downloads/dnb_2024.qfx
  kvitt import-ofx ~/Downloads/*.qfx --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "preview import without saving")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	txns, err := parseOFXFiles(ctx, ofx.NewParser(a.engine), args)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		common.LogWarn("No purchases found in any file", nil)
		return nil
	}

	writeImportSummary(cmd.OutOrStdout(), txns)

	if dryRun {
		common.LogInfo("Dry run complete, no data saved", common.Fields{"transactions": len(txns)})
		return nil
	}

	inserted, err := a.store.SaveHistoricalTransactions(ctx, txns)
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	common.LogInfo("Imported purchase history", common.Fields{
		"parsed":     len(txns),
		"inserted":   inserted,
		"duplicates": len(txns) - inserted,
	})
	return nil
}

// writeImportSummary prints spend per category, largest first.
func writeImportSummary(w io.Writer, txns []model.HistoricalTransaction) {
	totals := make(map[string]float64)
	for _, tx := range txns {
		category := tx.Category
		if category == "" {
			category = "uncategorized"
		}
		totals[category] += tx.Amount
	}

	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if totals[categories[i]] != totals[categories[j]] {
			return totals[categories[i]] > totals[categories[j]]
		}
		return categories[i] < categories[j]
	})

	_, _ = fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("%d purchases", len(txns))))
	for _, category := range categories {
		_, _ = fmt.Fprintf(w, "  %-24s %12.2f kr\n", category, totals[category])
	}
}
