package sheets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/sheets/v4"
)

type fakeAPI struct {
	getErr       error
	formatErr    error
	updates      map[string][][]any
	created      *sheets.Spreadsheet
	clears       int
	batchUpdates int
	failUpdates  int
	mu           sync.Mutex
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(map[string][][]any)}
}

func (f *fakeAPI) Get(_ context.Context, _ string) error {
	return f.getErr
}

func (f *fakeAPI) Create(_ context.Context, spreadsheet *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = spreadsheet
	return &sheets.Spreadsheet{SpreadsheetId: "new-sheet", SpreadsheetUrl: "https://example.invalid/new-sheet"}, nil
}

func (f *fakeAPI) Clear(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeAPI) Update(_ context.Context, _, rangeStr string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdates > 0 {
		f.failUpdates--
		return errors.New("rate limited")
	}
	f.updates[rangeStr] = values
	return nil
}

func (f *fakeAPI) BatchUpdate(_ context.Context, _ string, _ []*sheets.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchUpdates++
	return f.formatErr
}

func testResult() *model.PredictiveAnalysisResult {
	return &model.PredictiveAnalysisResult{
		OrganizationType: "association",
		Timeframe:        model.TimeframeNextQuarter,
		Predictions: []model.SpendPrediction{
			{Category: "alcohol", Period: "next quarter", PredictedAmount: 900, Confidence: 0.7, Trend: model.TrendStable, Factors: []string{"Vinmonopolet"}},
			{Category: "grocery", Period: "next quarter", PredictedAmount: 1320, Confidence: 0.72, Trend: model.TrendStable, Factors: []string{"REMA 1000", "KIWI"}},
		},
		SeasonalInsights: []model.SeasonalInsight{
			{Event: "Jul", Period: "December", ExpectedIncrease: 1.8, Categories: []string{"grocery", "gifts"}, Recommendation: "Reserve extra"},
		},
		BudgetRecommendations: []model.BudgetRecommendation{
			{Name: "Emergency reserve", RiskLevel: "low", RecommendedAmount: 333},
			{Name: "Seasonal events", RiskLevel: "medium", RecommendedAmount: 555},
		},
		TransactionsAnalyzed: 12,
		TotalPredictedSpend:  2220,
	}
}

func testConfig() Config {
	config := DefaultConfig()
	config.ServiceAccountPath = "/path/to/key.json"
	config.RetryDelay = time.Millisecond
	return config
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(testResult())

	require.Len(t, report.Predictions, 2)
	assert.Equal(t, "grocery", report.Predictions[0].Category, "largest prediction first")
	assert.Equal(t, "REMA 1000, KIWI", report.Predictions[0].Factors)
	assert.Equal(t, "888", report.TotalBudget.String())
	assert.Equal(t, "2220", report.TotalPredicted.String())
	require.Len(t, report.Insights, 1)
	assert.Equal(t, "grocery, gifts", report.Insights[0].Categories)
}

func TestPrepareReportData(t *testing.T) {
	values := prepareReportData(BuildReport(testResult()))

	assert.Equal(t, "Budget forecast", values[0][0])
	assert.Equal(t, "association, next_quarter", values[0][1])
	assert.Equal(t, []any{"Transactions analyzed", 12}, values[3])
	assert.Equal(t, []any{"Total predicted spend", 2220.0}, values[4])

	header := values[8]
	assert.Equal(t, "Category", header[0])
	assert.Equal(t, "grocery", values[9][0])
	assert.Equal(t, 1320.0, values[9][2])
	assert.Equal(t, "alcohol", values[10][0])

	assert.Equal(t, "Budget", values[12][0])
	assert.Equal(t, "Emergency reserve", values[14][0])
	assert.Equal(t, 333.0, values[14][2])

	last := values[len(values)-1]
	assert.Equal(t, "Jul", last[0])
	assert.Equal(t, 1.8, last[2])
}

func TestWriterWrite(t *testing.T) {
	t.Run("creates spreadsheet and writes in batches", func(t *testing.T) {
		api := newFakeAPI()
		config := testConfig()
		config.BatchSize = 10
		writer := newWriter(api, config, quietLogger())

		require.NoError(t, writer.Write(context.Background(), testResult()))

		require.NotNil(t, api.created)
		assert.Equal(t, DefaultSpreadsheetName, api.created.Properties.Title)
		assert.Equal(t, "Europe/Oslo", api.created.Properties.TimeZone)
		assert.Equal(t, 1, api.clears)
		assert.Len(t, api.updates["A1"], 10)
		assert.Contains(t, api.updates, "A11")
		assert.Equal(t, 1, api.batchUpdates)
	})

	t.Run("retries transient write failures", func(t *testing.T) {
		api := newFakeAPI()
		api.failUpdates = 2
		writer := newWriter(api, testConfig(), quietLogger())

		require.NoError(t, writer.Write(context.Background(), testResult()))
		assert.Contains(t, api.updates, "A1")
	})

	t.Run("gives up after retry attempts", func(t *testing.T) {
		api := newFakeAPI()
		api.failUpdates = 10
		writer := newWriter(api, testConfig(), quietLogger())

		err := writer.Write(context.Background(), testResult())
		require.ErrorIs(t, err, common.ErrMaxRetries)
	})

	t.Run("formatting failure is not fatal", func(t *testing.T) {
		api := newFakeAPI()
		api.formatErr = errors.New("bad request")
		writer := newWriter(api, testConfig(), quietLogger())

		require.NoError(t, writer.Write(context.Background(), testResult()))
	})

	t.Run("inaccessible configured spreadsheet", func(t *testing.T) {
		api := newFakeAPI()
		api.getErr = errors.New("not found")
		config := testConfig()
		config.SpreadsheetID = "missing"
		writer := newWriter(api, config, quietLogger())

		err := writer.Write(context.Background(), testResult())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to access spreadsheet missing")
		assert.Nil(t, api.created)
	})

	t.Run("nil result", func(t *testing.T) {
		writer := newWriter(newFakeAPI(), testConfig(), quietLogger())
		require.ErrorIs(t, writer.Write(context.Background(), nil), common.ErrInvalidInput)
	})
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	require.NoError(t, mock.Write(context.Background(), testResult()))
	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, "association", mock.LastResult.OrganizationType)

	mock.SetWriteError(errors.New("offline"))
	require.Error(t, mock.Write(context.Background(), testResult()))
	assert.Equal(t, 2, mock.Calls())
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "sheets.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
