package snapshot

import (
	"context"
	"testing"

	"bitbucket.org/surdata/pedidos_backend/models"
)

func TestCleanScopeRemovesOnlyTargetScope(t *testing.T) {
	store := newMemStore()
	store.seed(TableProviders.Key,
		models.Provider{ID: "p1", TenantId: "t2", BranchId: "b2", Name: "A"},
		models.Provider{ID: "p2", TenantId: "t2", BranchId: "other", Name: "B"},
		models.Provider{ID: "p3", TenantId: "t9", BranchId: "b2", Name: "C"},
	)
	store.seed(TableOrders.Key,
		models.Order{ID: "o1", TenantId: "t2", BranchId: "b2", ProviderId: "p1"},
	)

	diags := &Diagnostics{}
	CleanScope(context.Background(), store, destScope, diags)

	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics: %s", diags.Report())
	}
	if got := store.count(TableProviders.Key); got != 2 {
		t.Fatalf("other scopes must survive, got %d providers", got)
	}
	if got := store.count(TableOrders.Key); got != 0 {
		t.Fatalf("scope orders must be purged, got %d", got)
	}
}

func TestCleanScopePreservesBackupSlot(t *testing.T) {
	store := newMemStore()
	store.seed(TableAppSettings.Key,
		models.AppSetting{Key: BackupKey(destScope), TenantId: "t2", BranchId: "b2", Value: []byte(`{}`)},
		models.AppSetting{Key: "theme", TenantId: "t2", BranchId: "b2", Value: []byte(`"dark"`)},
		models.AppSetting{Key: models.SalesSourceKey("t2", "b2"), TenantId: "t2", BranchId: "b2", Value: []byte(`{}`)},
	)

	diags := &Diagnostics{}
	CleanScope(context.Background(), store, destScope, diags)

	left := selectScope[models.AppSetting](store, TableAppSettings.Key, destScope)
	if len(left) != 1 || left[0].Key != BackupKey(destScope) {
		t.Fatalf("only the backup slot should survive cleanup: %+v", left)
	}
}

func TestCleanScopeToleratesMissingTables(t *testing.T) {
	store := newMemStore()
	store.missing[TableOrderSummariesWeek.Key] = true
	store.seed(TableProviders.Key,
		models.Provider{ID: "p1", TenantId: "t2", BranchId: "b2", Name: "A"},
	)

	diags := &Diagnostics{}
	CleanScope(context.Background(), store, destScope, diags)

	if !diags.Empty() {
		t.Fatalf("missing table must not be diagnosed: %s", diags.Report())
	}
	if got := store.count(TableProviders.Key); got != 0 {
		t.Fatal("remaining tables must still be cleaned")
	}
}
