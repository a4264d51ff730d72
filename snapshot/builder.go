package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoProviders is returned when a scope has nothing meaningful to export.
// It is one of the two fatal conditions of the engine (the other being a
// parse failure).
var ErrNoProviders = errors.New("scope has no providers to export")

// BuildSnapshot reads every table for the scope and serializes the rows
// into one versioned document. Tables missing from the backend yield empty
// row sets rather than an error.
func BuildSnapshot(ctx context.Context, store ScopeStore, scope Scope, source string) (*Document, error) {
	if scope.IsZero() {
		return nil, errors.New("source scope is required")
	}

	doc := &Document{
		Version:    DocumentVersion,
		ExportedAt: time.Now().UTC(),
		Source:     source,
	}

	filter := scopeFilter(scope)
	load := func(table string, dest any) error {
		err := store.Select(ctx, table, filter, dest)
		if err != nil && !errors.Is(err, ErrMissingTable) {
			return fmt.Errorf("export %s: %w", table, err)
		}
		return nil
	}

	for _, step := range []struct {
		key  string
		dest any
	}{
		{TableProviders.Key, &doc.Tables.Providers},
		{TableWeeks.Key, &doc.Tables.Weeks},
		{TableWeekProviderLinks.Key, &doc.Tables.WeekProviderLinks},
		{TableWeekStates.Key, &doc.Tables.WeekStates},
		{TableOrders.Key, &doc.Tables.Orders},
		{TableOrderItems.Key, &doc.Tables.OrderItems},
		{TableOrderSnapshots.Key, &doc.Tables.OrderSnapshots},
		{TableOrderUiStates.Key, &doc.Tables.OrderUiStates},
		{TableOrderSummaries.Key, &doc.Tables.OrderSummaries},
		{TableOrderSummariesWeek.Key, &doc.Tables.OrderSummariesWeek},
		{TableAppSettings.Key, &doc.Tables.AppSettings},
	} {
		if err := load(step.key, step.dest); err != nil {
			return nil, err
		}
	}

	if len(doc.Tables.Providers) == 0 {
		return nil, ErrNoProviders
	}

	for i := range doc.Tables.Providers {
		doc.Tables.Providers[i].Name = StripBranchSuffix(doc.Tables.Providers[i].Name)
	}

	// Backup slots are not part of a scope's exportable state: carrying
	// them along would nest full snapshots inside snapshots.
	settings := doc.Tables.AppSettings[:0]
	for _, row := range doc.Tables.AppSettings {
		if strings.HasPrefix(row.Key, BackupKeyPrefix+":") {
			continue
		}
		settings = append(settings, row)
	}
	doc.Tables.AppSettings = settings

	return doc, nil
}
