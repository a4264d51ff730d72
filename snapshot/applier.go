package snapshot

import (
	"context"
	"errors"
	"sync"

	"bitbucket.org/surdata/pedidos_backend/config"
)

// ApplyRowSets writes the reconciled rows in parent-first order using
// chunked conflict-key upserts. A failing chunk skips the table's remaining
// chunks but never stops the other tables, and nothing is rolled back:
// partial applies are reported through diagnostics, not unwound.
func ApplyRowSets(ctx context.Context, store ScopeStore, rows *Tables, diags *Diagnostics) {

	for _, spec := range applyOrder {
		switch spec.Key {
		case TableProviders.Key:
			applyTable(ctx, store, spec, rows.Providers, diags)
		case TableWeeks.Key:
			applyTable(ctx, store, spec, rows.Weeks, diags)
		case TableWeekProviderLinks.Key:
			applyTable(ctx, store, spec, rows.WeekProviderLinks, diags)
		case TableWeekStates.Key:
			applyTable(ctx, store, spec, rows.WeekStates, diags)
		case TableOrders.Key:
			applyTable(ctx, store, spec, rows.Orders, diags)
		case TableOrderItems.Key:
			applyTable(ctx, store, spec, rows.OrderItems, diags)
		case TableOrderSnapshots.Key:
			applyTable(ctx, store, spec, rows.OrderSnapshots, diags)
		case TableOrderUiStates.Key:
			applyTable(ctx, store, spec, rows.OrderUiStates, diags)
		case TableOrderSummaries.Key:
			applyTable(ctx, store, spec, rows.OrderSummaries, diags)
		case TableOrderSummariesWeek.Key:
			applyTable(ctx, store, spec, rows.OrderSummariesWeek, diags)
		case TableAppSettings.Key:
			applyTable(ctx, store, spec, rows.AppSettings, diags)
		}
	}
}

func applyTable[T any](ctx context.Context, store ScopeStore, spec TableSpec, rows []T, diags *Diagnostics) {

	if len(rows) == 0 {
		return
	}

	size := config.SnapshotChunkSize()
	if config.SnapshotParallelChunks() {
		applyChunksParallel(ctx, store, spec, rows, size, diags)
		return
	}

	for start, chunk := 0, 1; start < len(rows); start, chunk = start+size, chunk+1 {
		end := min(start+size, len(rows))
		if err := store.Upsert(ctx, spec.Key, rows[start:end], spec.ConflictCols); err != nil {
			if errors.Is(err, ErrMissingTable) {
				return
			}
			diags.Addf("apply %s: chunk %d failed, remaining chunks skipped: %v", spec.Key, chunk, err)
			return
		}
	}
}

// applyChunksParallel upserts all chunks of one table concurrently. Chunks
// of one table never overlap rows, so ordering within the table does not
// matter; failures are collected and reported after the table completes.
func applyChunksParallel[T any](ctx context.Context, store ScopeStore, spec TableSpec, rows []T, size int, diags *Diagnostics) {

	chunks := (len(rows) + size - 1) / size
	errs := make([]error, chunks)

	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		start := i * size
		end := min(start+size, len(rows))
		wg.Add(1)
		go func(i int, chunk []T) {
			defer wg.Done()
			errs[i] = store.Upsert(ctx, spec.Key, chunk, spec.ConflictCols)
		}(i, rows[start:end])
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrMissingTable) {
			return
		}
		diags.Addf("apply %s: chunk %d failed: %v", spec.Key, i+1, err)
	}
}
