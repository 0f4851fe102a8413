package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/kvittering/internal/cli"
	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func correctCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Submit a correction for a classified receipt",
		Long: `Tell kvitt what a receipt really was. Ratings above 7 raise confidence in
the corrected merchant; lower ratings reduce it.

Example:
  kvitt correct --text "REMA 1000 63,40" --merchant "REMA 1000" --rating 9`,
		RunE: runCorrect,
	}

	cmd.Flags().String("text", "", "original receipt text")
	cmd.Flags().String("merchant", "", "correct merchant name")
	cmd.Flags().Float64("amount", 0, "correct amount in kroner")
	cmd.Flags().Int("vat", 0, "correct VAT rate (0, 12, 15 or 25)")
	cmd.Flags().String("category", "", "correct category")
	cmd.Flags().String("feedback", "", "free-form feedback")
	cmd.Flags().Int("rating", 0, "confidence rating from 1 to 10")
	cmd.Flags().Bool("json", false, "print JSON instead of a formatted report")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}

func runCorrect(cmd *cobra.Command, _ []string) error {
	correction, err := correctionFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var outcome *model.CorrectionOutcome
	err = common.WithRetry(ctx, func() error {
		var submitErr error
		outcome, submitErr = a.engine.SubmitCorrection(ctx, correction)
		return submitErr
	}, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	})
	if err != nil {
		if common.IsInputValidation(err) {
			return common.NewUserError("correction rejected", err)
		}
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), outcome)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatCorrection(outcome))
	return err
}

// correctionFromFlags builds a correction with a stable ID so retries replay
// the same journal entry.
func correctionFromFlags(cmd *cobra.Command) (model.Correction, error) {
	flags := cmd.Flags()
	text, _ := flags.GetString("text")
	merchant, _ := flags.GetString("merchant")
	category, _ := flags.GetString("category")
	feedback, _ := flags.GetString("feedback")
	rating, _ := flags.GetInt("rating")

	correction := model.Correction{
		ID:                uuid.NewString(),
		OriginalText:      text,
		CorrectedMerchant: merchant,
		CorrectedCategory: category,
		Feedback:          feedback,
		ConfidenceRating:  rating,
		CreatedAt:         time.Now().UTC(),
	}

	if flags.Changed("amount") {
		amount, _ := flags.GetFloat64("amount")
		correction.CorrectedAmount = &amount
	}
	if flags.Changed("vat") {
		rate, _ := flags.GetInt("vat")
		if !model.IsVatBracket(rate) {
			return model.Correction{}, common.NewUserError(fmt.Sprintf("VAT rate %d%% is not a Norwegian bracket", rate), common.ErrInvalidInput)
		}
		correction.CorrectedVatRate = &rate
	}

	return correction, nil
}
