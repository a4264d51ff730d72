package snapshot

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bitbucket.org/surdata/pedidos_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testEngine(store ScopeStore) *Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEngine(store, logger, nil)
}

// seedSourceScope loads a small but fully linked scope: two providers, one
// week with links and states, one order with items, a capture, ui state,
// summaries and settings.
func seedSourceScope(store *memStore) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	store.seed(TableProviders.Key,
		models.Provider{ID: "p1", TenantId: "t1", BranchId: "b1", Name: "Lácteos SA (Sucursal Centro)"},
		models.Provider{ID: "p2", TenantId: "t1", BranchId: "b1", Name: "Panadería Sur"},
	)
	store.seed(TableWeeks.Key,
		models.Week{ID: "w1", TenantId: "t1", BranchId: "b1", WeekStart: monday, Label: "Semana del 02/03/2026"},
	)
	store.seed(TableWeekProviderLinks.Key,
		models.WeekProviderLink{WeekId: "w1", ProviderId: "p1", TenantId: "t1", BranchId: "b1"},
		models.WeekProviderLink{WeekId: "w1", ProviderId: "p2", TenantId: "t1", BranchId: "b1"},
	)
	store.seed(TableWeekStates.Key,
		models.WeekState{WeekId: "w1", ProviderId: "p1", TenantId: "t1", BranchId: "b1", Status: models.WeekProviderStatusDone, UpdatedAt: now},
	)
	store.seed(TableOrders.Key,
		models.Order{ID: "o1", TenantId: "t1", BranchId: "b1", ProviderId: "p1"},
	)
	store.seed(TableOrderItems.Key,
		models.OrderItem{ID: "i1", TenantId: "t1", BranchId: "b1", OrderId: "o1", Product: "Leche", Qty: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(3), Amount: decimal.NewFromInt(30)},
		models.OrderItem{ID: "i2", TenantId: "t1", BranchId: "b1", OrderId: "o1", Product: "Queso", Qty: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(8), Amount: decimal.NewFromInt(16)},
	)
	store.seed(TableOrderSnapshots.Key,
		models.OrderSnapshot{ID: "s1", TenantId: "t1", BranchId: "b1", OrderId: "o1", Payload: []byte(`{"total":46}`)},
	)
	store.seed(TableOrderUiStates.Key,
		models.OrderUiState{OrderId: "o1", TenantId: "t1", BranchId: "b1", Value: []byte(`{"collapsed":false}`)},
	)
	store.seed(TableOrderSummaries.Key,
		models.OrderSummary{ProviderId: "p1", TenantId: "t1", BranchId: "b1", Total: decimal.NewFromInt(46), Items: 2, UpdatedAt: &now},
	)
	store.seed(TableOrderSummariesWeek.Key,
		models.OrderSummaryWeek{WeekId: "w1", ProviderId: "p1", TenantId: "t1", BranchId: "b1", Total: decimal.NewFromInt(46), Items: 2, UpdatedAt: &now},
	)
	store.seed(TableAppSettings.Key,
		models.AppSetting{Key: models.SalesSourceKey("t1", "b1"), TenantId: "t1", BranchId: "b1", Value: []byte(`{"db":"sales"}`)},
	)
}

func destCounts(store *memStore) map[string]int {
	counts := map[string]int{}
	for _, spec := range applyOrder {
		switch spec.Key {
		case TableProviders.Key:
			counts[spec.Key] = len(selectScope[models.Provider](store, spec.Key, destScope))
		case TableWeeks.Key:
			counts[spec.Key] = len(selectScope[models.Week](store, spec.Key, destScope))
		case TableWeekProviderLinks.Key:
			counts[spec.Key] = len(selectScope[models.WeekProviderLink](store, spec.Key, destScope))
		case TableWeekStates.Key:
			counts[spec.Key] = len(selectScope[models.WeekState](store, spec.Key, destScope))
		case TableOrders.Key:
			counts[spec.Key] = len(selectScope[models.Order](store, spec.Key, destScope))
		case TableOrderItems.Key:
			counts[spec.Key] = len(selectScope[models.OrderItem](store, spec.Key, destScope))
		case TableOrderSnapshots.Key:
			counts[spec.Key] = len(selectScope[models.OrderSnapshot](store, spec.Key, destScope))
		case TableOrderUiStates.Key:
			counts[spec.Key] = len(selectScope[models.OrderUiState](store, spec.Key, destScope))
		case TableOrderSummaries.Key:
			counts[spec.Key] = len(selectScope[models.OrderSummary](store, spec.Key, destScope))
		case TableOrderSummariesWeek.Key:
			counts[spec.Key] = len(selectScope[models.OrderSummaryWeek](store, spec.Key, destScope))
		case TableAppSettings.Key:
			counts[spec.Key] = len(selectScope[models.AppSetting](store, spec.Key, destScope))
		}
	}
	return counts
}

func TestCopyScopeRoundTrip(t *testing.T) {
	store := newMemStore()
	seedSourceScope(store)
	engine := testEngine(store)

	result, err := engine.CopyScope(context.Background(), srcScope, destScope, CopyOptions{})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("want success, got %s: %s", result.Status, result.Report)
	}

	want := map[string]int{
		TableProviders.Key:          2,
		TableWeeks.Key:              1,
		TableWeekProviderLinks.Key:  2,
		TableWeekStates.Key:         1,
		TableOrders.Key:             1,
		TableOrderItems.Key:         2,
		TableOrderSnapshots.Key:     1,
		TableOrderUiStates.Key:      1,
		TableOrderSummaries.Key:     1,
		TableOrderSummariesWeek.Key: 1,
		TableAppSettings.Key:        1,
	}
	got := destCounts(store)
	for table, n := range want {
		if got[table] != n {
			t.Errorf("%s: want %d rows, got %d", table, n, got[table])
		}
	}

	providers := selectScope[models.Provider](store, TableProviders.Key, destScope)
	for _, p := range providers {
		if p.Name == "Lácteos SA (Sucursal Centro)" {
			t.Error("branch suffix must be stripped on export")
		}
	}

	settings := selectScope[models.AppSetting](store, TableAppSettings.Key, destScope)
	if len(settings) != 1 || settings[0].Key != models.SalesSourceKey("t2", "b2") {
		t.Errorf("sales source key not re-qualified: %s", settings[0].Key)
	}

	// the source scope is untouched
	if n := len(selectScope[models.Provider](store, TableProviders.Key, srcScope)); n != 2 {
		t.Errorf("source providers disturbed: %d", n)
	}
}

func TestCopyScopeIsIdempotentOnCounts(t *testing.T) {
	store := newMemStore()
	seedSourceScope(store)
	engine := testEngine(store)

	if _, err := engine.CopyScope(context.Background(), srcScope, destScope, CopyOptions{}); err != nil {
		t.Fatalf("first copy: %v", err)
	}
	first := destCounts(store)

	// the cleanup pass wipes the destination, so re-running lands on the
	// same counts even though orders mint fresh ids each time
	if _, err := engine.CopyScope(context.Background(), srcScope, destScope, CopyOptions{}); err != nil {
		t.Fatalf("second copy: %v", err)
	}
	second := destCounts(store)

	for table, n := range first {
		if second[table] != n {
			t.Errorf("%s: counts drifted %d -> %d", table, n, second[table])
		}
	}
}

func TestCopyScopeRejectsSameScope(t *testing.T) {
	engine := testEngine(newMemStore())
	if _, err := engine.CopyScope(context.Background(), srcScope, srcScope, CopyOptions{}); err == nil {
		t.Fatal("copying a scope onto itself must fail")
	}
}

func TestExportScopeWithoutProviders(t *testing.T) {
	engine := testEngine(newMemStore())
	_, err := engine.ExportScope(context.Background(), srcScope, "test")
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("want ErrNoProviders, got %v", err)
	}
}

func TestExportScopeExcludesBackupSlot(t *testing.T) {
	store := newMemStore()
	seedSourceScope(store)
	store.seed(TableAppSettings.Key,
		models.AppSetting{Key: BackupKey(srcScope), TenantId: "t1", BranchId: "b1", Value: []byte(`{}`)},
	)
	engine := testEngine(store)

	doc, err := engine.ExportScope(context.Background(), srcScope, "test")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, s := range doc.Tables.AppSettings {
		if s.Key == BackupKey(srcScope) {
			t.Fatal("backup slot must not be exported")
		}
	}
}

func TestImportDataParseFailureTouchesNothing(t *testing.T) {
	store := newMemStore()
	store.seed(TableProviders.Key,
		models.Provider{ID: "p", TenantId: "t2", BranchId: "b2", Name: "Keep"},
	)
	engine := testEngine(store)

	_, err := engine.ImportData(context.Background(), []byte(`{"version": 9}`), destScope, ImportOptions{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if got := len(selectScope[models.Provider](store, TableProviders.Key, destScope)); got != 1 {
		t.Fatal("a parse failure must leave the destination untouched")
	}
}

func TestImportMissingDestinationTableCompletes(t *testing.T) {
	store := newMemStore()
	seedSourceScope(store)
	store.missing[TableOrderUiStates.Key] = true
	engine := testEngine(store)

	result, err := engine.CopyScope(context.Background(), srcScope, destScope, CopyOptions{})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("missing table must stay silent, got %s: %s", result.Status, result.Report)
	}
	if got := len(selectScope[models.Order](store, TableOrders.Key, destScope)); got != 1 {
		t.Fatal("other tables must still apply")
	}
}

func TestBackupSaveAndRestore(t *testing.T) {
	store := newMemStore()
	seedSourceScope(store)
	engine := testEngine(store)

	if at, err := engine.LastBackupAt(context.Background(), srcScope); err != nil || at != nil {
		t.Fatalf("fresh scope must have no backup, got %v / %v", at, err)
	}

	if err := engine.SaveBackup(context.Background(), srcScope); err != nil {
		t.Fatalf("save backup: %v", err)
	}
	if at, err := engine.LastBackupAt(context.Background(), srcScope); err != nil || at == nil {
		t.Fatalf("backup timestamp missing: %v / %v", at, err)
	}

	// wreck the scope, then restore it
	diags := &Diagnostics{}
	CleanScope(context.Background(), store, srcScope, diags)
	if got := len(selectScope[models.Provider](store, TableProviders.Key, srcScope)); got != 0 {
		t.Fatal("cleanup should have emptied the scope")
	}

	if err := engine.RestoreBackup(context.Background(), srcScope); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := len(selectScope[models.Provider](store, TableProviders.Key, srcScope)); got != 2 {
		t.Fatalf("providers not restored, got %d", got)
	}
	if got := len(selectScope[models.OrderItem](store, TableOrderItems.Key, srcScope)); got != 2 {
		t.Fatalf("order items not restored, got %d", got)
	}
}

func TestRestoreWithoutBackup(t *testing.T) {
	store := newMemStore()
	seedSourceScope(store)
	engine := testEngine(store)

	err := engine.RestoreBackup(context.Background(), srcScope)
	if !errors.Is(err, ErrNoBackup) {
		t.Fatalf("want ErrNoBackup, got %v", err)
	}
}
