package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/kvittering/internal/catalog"
	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/config"
	"github.com/Veraticus/kvittering/internal/engine"
	"github.com/Veraticus/kvittering/internal/learning"
	"github.com/Veraticus/kvittering/internal/metrics"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/storage"
	"github.com/spf13/viper"
)

// app bundles the collaborators a command needs.
type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStorage
	engine  *engine.Engine
	metrics *metrics.Metrics
}

// openApp loads configuration, opens the journal and restores learned state.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	cat, err := catalog.FromConfig(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	learned := learning.NewStore(cfg.Learning, store)
	if err := learned.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to restore corrections: %w", err)
	}

	m := metrics.New()
	engineCfg := engine.DefaultConfig()
	engineCfg.Metrics = m
	engineCfg.DefaultAmount = cfg.DefaultAmount

	return &app{
		cfg:     cfg,
		store:   store,
		engine:  engine.NewWithConfig(cat, learned, engineCfg),
		metrics: m,
	}, nil
}

// Close flushes metrics and closes the database.
func (a *app) Close() {
	if path := config.ExpandPath(viper.GetString("metrics.textfile")); path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			common.LogError(err, "Failed to write metrics textfile", common.Fields{"path": path})
		}
	}
	if err := a.store.Close(); err != nil {
		common.LogError(err, "Failed to close database", nil)
	}
}

// initStorage opens the SQLite journal and applies migrations.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	if dbPath == "" {
		dbPath = config.ExpandPath(config.DefaultDatabasePath)
	}

	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return store, nil
}

// parseDate reads the --date flag; empty means now.
func parseDate(value string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return now, nil
	}
	parsed, ok := model.ParseDate(value)
	if !ok {
		return time.Time{}, common.NewUserError(fmt.Sprintf("could not read date %q (use YYYY-MM-DD or DD.MM.YYYY)", value), common.ErrInvalidInput)
	}
	return parsed, nil
}

// expandFiles resolves glob patterns and plain paths into a sorted file list.
func expandFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr != nil {
				common.LogWarn("No files found matching pattern", common.Fields{"pattern": pattern})
				continue
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// readDocuments loads every regular file directly inside dir.
func readDocuments(dir string) ([]engine.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var docs []engine.Document
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		blob, err := os.ReadFile(path) //nolint:gosec // user-selected receipt directory
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, engine.Document{Name: entry.Name(), Blob: blob})
	}
	return docs, nil
}

// loadTransactionsJSON reads a JSON array of historical transactions.
func loadTransactionsJSON(r io.Reader) ([]model.HistoricalTransaction, error) {
	var txns []model.HistoricalTransaction
	if err := json.NewDecoder(r).Decode(&txns); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txns, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
