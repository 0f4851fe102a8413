package main

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/Veraticus/kvittering/internal/cli"
	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/engine"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/ocr"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [receipt text]",
		Short: "Classify a receipt",
		Long: `Classify a receipt given as text, as a file (plain text or PDF), or every
receipt in a directory.

Examples:
  kvitt classify "REMA 1000 Storgata 63,40 kr"
  kvitt classify --file kvittering.pdf --org-type forening
  kvitt classify --dir ~/kvitteringer --date 2025-12-20`,
		Args: cobra.MaximumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("file", "", "receipt file (.txt or .pdf)")
	cmd.Flags().String("dir", "", "directory of receipts to classify in parallel")
	cmd.Flags().String("org-type", "association", "organization type (association, band, other)")
	cmd.Flags().String("date", "", "purchase date for seasonal context (default: today)")
	cmd.Flags().Int("workers", engine.DefaultBatchOptions().ParallelWorkers, "parallel workers for --dir")
	cmd.Flags().Bool("json", false, "print JSON instead of a formatted report")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	dir, _ := cmd.Flags().GetString("dir")
	orgType, _ := cmd.Flags().GetString("org-type")
	dateFlag, _ := cmd.Flags().GetString("date")
	asJSON, _ := cmd.Flags().GetBool("json")

	sources := 0
	for _, set := range []bool{len(args) == 1, file != "", dir != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return common.NewUserError("provide exactly one of: receipt text, --file or --dir", common.ErrInvalidInput)
	}

	date, err := parseDate(dateFlag, time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	if dir != "" {
		workers, _ := cmd.Flags().GetInt("workers")
		summary, err := classifyDirectory(cmd, a, dir, orgType, date, workers)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, batchReport(summary))
		}
		_, err = fmt.Fprintln(out, cli.FormatBatchSummary(summary))
		return err
	}

	var analysis *model.NorwegianAnalysis
	if file != "" {
		if _, err := ocr.ForFile(file); err != nil {
			return common.NewUserError("cannot read this receipt", err)
		}
		blob, readErr := os.ReadFile(file) //nolint:gosec // user-selected receipt
		if readErr != nil {
			return fmt.Errorf("failed to read receipt: %w", readErr)
		}
		analysis, err = a.engine.ClassifyDocument(ctx, blob, orgType, date)
	} else {
		analysis, err = a.engine.Classify(ctx, args[0], orgType, date)
	}
	if err != nil {
		if errors.Is(err, common.ErrEmptyText) {
			return common.NewUserError("the receipt has no readable text", err)
		}
		return err
	}

	if asJSON {
		return printJSON(out, analysis)
	}
	_, err = fmt.Fprintln(out, cli.FormatAnalysis(analysis))
	return err
}

func classifyDirectory(cmd *cobra.Command, a *app, dir, orgType string, date time.Time, workers int) (*engine.BatchSummary, error) {
	docs, err := readDocuments(dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("no receipts found in %s", dir), common.ErrInvalidInput)
	}

	errOut := cmd.ErrOrStderr()
	var classified atomic.Int64
	handler := cli.NewInterruptHandler(errOut)
	ctx := handler.HandleInterrupts(cmd.Context(), func() int { return int(classified.Load()) })

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying receipts...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(errOut)
		}),
	)

	opts := engine.BatchOptions{
		ParallelWorkers: workers,
		OnProgress: func(done int) {
			classified.Store(int64(done))
			if err := bar.Set(done); err != nil {
				common.LogWarn("Failed to update progress bar", common.Fields{"error": err.Error()})
			}
		},
	}

	summary := a.engine.ClassifyBatch(ctx, docs, orgType, date, opts)
	if handler.WasInterrupted() {
		return summary, common.NewUserError("batch classification interrupted", ctx.Err())
	}
	return summary, nil
}

type batchItem struct {
	Analysis *model.NorwegianAnalysis `json:"analysis,omitempty"`
	Name     string                   `json:"name"`
	Error    string                   `json:"error,omitempty"`
}

type batchOutput struct {
	Results        []batchItem `json:"results"`
	Classified     int         `json:"classified"`
	Failed         int         `json:"failed"`
	ProcessingTime string      `json:"processing_time"`
}

// batchReport flattens errors to strings for JSON output.
func batchReport(summary *engine.BatchSummary) batchOutput {
	out := batchOutput{
		Results:        make([]batchItem, 0, len(summary.Results)),
		Classified:     summary.Classified,
		Failed:         summary.Failed,
		ProcessingTime: summary.ProcessingTime.String(),
	}
	for _, r := range summary.Results {
		item := batchItem{Name: r.Name, Analysis: r.Analysis}
		if r.Error != nil {
			item.Error = r.Error.Error()
		}
		out.Results = append(out.Results, item)
	}
	return out
}
