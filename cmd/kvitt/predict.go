package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/kvittering/internal/cli"
	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/config"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/ofx"
	"github.com/Veraticus/kvittering/internal/service"
	"github.com/Veraticus/kvittering/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast spend from transaction history",
		Long: `Forecast spend per category from historical transactions, with seasonal
insights and budget recommendations.

History comes from exactly one source:
  --input history.json   JSON array of {date, merchant, category, amount}
  --ofx statements...    OFX/QFX bank exports
  --from-db              transactions saved with 'kvitt import-ofx'

Examples:
  kvitt predict --from-db --timeframe next_quarter
  kvitt predict --ofx ~/Downloads/*.qfx --analysis-type budget_forecast --export-sheets`,
		RunE: runPredict,
	}

	cmd.Flags().String("input", "", "JSON file with historical transactions")
	cmd.Flags().StringSlice("ofx", nil, "OFX/QFX files or globs")
	cmd.Flags().Bool("from-db", false, "use transactions stored in the database")
	cmd.Flags().String("since", "", "with --from-db, only use transactions on or after this date")
	cmd.Flags().String("category", "", "with --from-db, only use this category")
	cmd.Flags().String("org-type", "association", "organization type (association, band, other)")
	cmd.Flags().String("timeframe", model.TimeframeNextMonth, "next_month, next_quarter or next_year")
	cmd.Flags().String("analysis-type", "", "seasonal_trends or budget_forecast")
	cmd.Flags().Bool("export-sheets", false, "export the forecast to Google Sheets")
	cmd.Flags().Bool("json", false, "print JSON instead of a formatted report")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	orgType, _ := flags.GetString("org-type")
	timeframe, _ := flags.GetString("timeframe")
	analysisType, _ := flags.GetString("analysis-type")
	exportSheets, _ := flags.GetBool("export-sheets")
	asJSON, _ := flags.GetBool("json")

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	txns, err := loadHistory(ctx, cmd, a)
	if err != nil {
		return err
	}

	result, err := a.engine.Predict(ctx, txns, orgType, timeframe, analysisType)
	if err != nil {
		if common.IsInputValidation(err) {
			return common.NewUserError("nothing to forecast", err)
		}
		return err
	}

	if exportSheets {
		writer, writerErr := newSheetsWriter(ctx)
		if writerErr != nil {
			return writerErr
		}
		if err := exportPrediction(ctx, writer, result); err != nil {
			return err
		}
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatPrediction(result))
	return err
}

// loadHistory reads transactions from the single source selected by flags.
func loadHistory(ctx context.Context, cmd *cobra.Command, a *app) ([]model.HistoricalTransaction, error) {
	flags := cmd.Flags()
	input, _ := flags.GetString("input")
	ofxFiles, _ := flags.GetStringSlice("ofx")
	fromDB, _ := flags.GetBool("from-db")

	sources := 0
	for _, set := range []bool{input != "", len(ofxFiles) > 0, fromDB} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, common.NewUserError("provide exactly one of: --input, --ofx or --from-db", common.ErrInvalidInput)
	}

	switch {
	case input != "":
		f, err := os.Open(input) //nolint:gosec // user-selected history file
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", input, err)
		}
		defer func() { _ = f.Close() }()
		return loadTransactionsJSON(f)

	case len(ofxFiles) > 0:
		return parseOFXFiles(ctx, ofx.NewParser(a.engine), ofxFiles)

	default:
		filter := service.HistoryFilter{}
		if since, _ := flags.GetString("since"); since != "" {
			start, err := parseDate(since, time.Time{})
			if err != nil {
				return nil, err
			}
			filter.StartDate = &start
		}
		filter.Category, _ = flags.GetString("category")
		return a.store.GetHistoricalTransactions(ctx, filter)
	}
}

// parseOFXFiles parses every matching file, skipping ones that fail.
func parseOFXFiles(ctx context.Context, parser *ofx.Parser, patterns []string) ([]model.HistoricalTransaction, error) {
	files, err := expandFiles(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.NewUserError("no OFX files found", common.ErrInvalidInput)
	}

	var all []model.HistoricalTransaction
	for _, path := range files {
		f, err := os.Open(path) //nolint:gosec // user-selected statement
		if err != nil {
			common.LogError(err, "Failed to open file", common.Fields{"file": path})
			continue
		}

		txns, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			common.LogError(err, "Failed to parse OFX file", common.Fields{"file": path})
			continue
		}

		slog.Debug("Parsed statement", "file", filepath.Base(path), "transactions", len(txns))
		all = append(all, txns...)
	}
	return all, nil
}

func newSheetsWriter(ctx context.Context) (*sheets.Writer, error) {
	sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured (see 'kvitt auth --help')", err)
	}
	return sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
}

// exportPrediction writes result through any report writer.
func exportPrediction(ctx context.Context, writer service.ReportWriter, result *model.PredictiveAnalysisResult) error {
	if err := writer.Write(ctx, result); err != nil {
		return fmt.Errorf("failed to export forecast: %w", err)
	}
	common.LogInfo("Exported forecast", common.Fields{"predictions": len(result.Predictions)})
	return nil
}
