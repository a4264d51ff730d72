package snapshot

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/surdata/pedidos_backend/models"
)

var (
	srcScope  = Scope{TenantId: "t1", BranchId: "b1"}
	destScope = Scope{TenantId: "t2", BranchId: "b2"}
)

func mustReconcile(t *testing.T, store *memStore, doc *Document) (*Tables, *Diagnostics) {
	t.Helper()
	diags := &Diagnostics{}
	rows, err := Reconcile(context.Background(), store, doc, destScope, diags)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	return rows, diags
}

func TestReconcileMergesProviderByName(t *testing.T) {
	store := newMemStore()
	store.seed(TableProviders.Key, models.Provider{
		ID: "dest-p", TenantId: "t2", BranchId: "b2", Name: "Lácteos SA",
	})

	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{
		{ID: "src-p", TenantId: "t1", BranchId: "b1", Name: "lácteos sa (Sucursal Centro)"},
	}
	doc.Tables.Orders = []models.Order{
		{ID: "src-o", TenantId: "t1", BranchId: "b1", ProviderId: "src-p"},
	}

	rows, diags := mustReconcile(t, store, doc)
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics: %s", diags.Report())
	}

	if len(rows.Providers) != 1 {
		t.Fatalf("want 1 provider, got %d", len(rows.Providers))
	}
	p := rows.Providers[0]
	if p.ID != "dest-p" {
		t.Fatalf("provider should merge onto destination id, got %s", p.ID)
	}
	if p.TenantId != "t2" || p.BranchId != "b2" {
		t.Fatalf("provider not forced onto destination scope: %+v", p)
	}
	if p.Name != "lácteos sa" {
		t.Fatalf("branch suffix not stripped: %q", p.Name)
	}

	if len(rows.Orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(rows.Orders))
	}
	o := rows.Orders[0]
	if o.ProviderId != "dest-p" {
		t.Fatalf("order not remapped onto merged provider: %s", o.ProviderId)
	}
	if o.ID == "src-o" {
		t.Fatal("order must mint a fresh id")
	}
}

func TestReconcileMergesDuplicateProvidersWithinDocument(t *testing.T) {
	store := newMemStore()
	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{
		{ID: "a", Name: "Acme"},
		{ID: "b", Name: "ACME (Norte)"},
	}

	rows, _ := mustReconcile(t, store, doc)
	if len(rows.Providers) != 1 {
		t.Fatalf("duplicates should collapse, got %d providers", len(rows.Providers))
	}
}

func TestReconcileMergesWeekByStart(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.seed(TableWeeks.Key, models.Week{
		ID: "dest-w", TenantId: "t2", BranchId: "b2", WeekStart: monday,
	})

	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{{ID: "p", Name: "Acme"}}
	doc.Tables.Weeks = []models.Week{
		{ID: "src-w", WeekStart: monday, Label: "Semana del 02/03/2026"},
	}
	doc.Tables.WeekProviderLinks = []models.WeekProviderLink{
		{WeekId: "src-w", ProviderId: "p"},
	}

	rows, diags := mustReconcile(t, store, doc)
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics: %s", diags.Report())
	}
	if len(rows.Weeks) != 1 || rows.Weeks[0].ID != "dest-w" {
		t.Fatalf("week should merge onto destination id: %+v", rows.Weeks)
	}
	if len(rows.WeekProviderLinks) != 1 || rows.WeekProviderLinks[0].WeekId != "dest-w" {
		t.Fatalf("link not remapped: %+v", rows.WeekProviderLinks)
	}
}

func TestReconcileDropsUnresolvedReferences(t *testing.T) {
	store := newMemStore()
	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{{ID: "p", Name: "Acme"}}
	doc.Tables.Orders = []models.Order{
		{ID: "o-ok", ProviderId: "p"},
		{ID: "o-bad", ProviderId: "ghost"},
	}
	doc.Tables.OrderItems = []models.OrderItem{
		{ID: "i-ok", OrderId: "o-ok"},
		{ID: "i-bad", OrderId: "o-bad"},
	}
	doc.Tables.WeekStates = []models.WeekState{
		{WeekId: "nowhere", ProviderId: "p"},
	}

	rows, diags := mustReconcile(t, store, doc)
	if len(rows.Orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(rows.Orders))
	}
	if len(rows.OrderItems) != 1 || rows.OrderItems[0].ID != "i-ok" {
		t.Fatalf("item of dropped order must drop too: %+v", rows.OrderItems)
	}
	if len(rows.WeekStates) != 0 {
		t.Fatalf("state for unknown week must drop")
	}
	if len(diags.Entries()) != 3 {
		t.Fatalf("want 3 diagnostics, got %d: %s", len(diags.Entries()), diags.Report())
	}
}

func TestReconcileAlreadyResolvedIdsPassThrough(t *testing.T) {
	// a document re-exported from the destination itself carries resolved
	// ids already; binding resolved->resolved keeps the remap a no-op
	store := newMemStore()
	store.seed(TableProviders.Key, models.Provider{
		ID: "dest-p", TenantId: "t2", BranchId: "b2", Name: "Acme",
	})

	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{{ID: "dest-p", Name: "Acme"}}
	doc.Tables.Orders = []models.Order{{ID: "o", ProviderId: "dest-p"}}

	rows, diags := mustReconcile(t, store, doc)
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics: %s", diags.Report())
	}
	if rows.Providers[0].ID != "dest-p" || rows.Orders[0].ProviderId != "dest-p" {
		t.Fatalf("resolved ids should survive: %+v", rows.Orders)
	}
}

func TestReconcileWeekStatesLatestWins(t *testing.T) {
	store := newMemStore()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{{ID: "p", Name: "Acme"}}
	doc.Tables.Weeks = []models.Week{{ID: "w", WeekStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}}
	doc.Tables.WeekStates = []models.WeekState{
		{WeekId: "w", ProviderId: "p", Status: models.WeekProviderStatusDone, UpdatedAt: newer},
		{WeekId: "w", ProviderId: "p", Status: models.WeekProviderStatusPending, UpdatedAt: older},
	}

	rows, _ := mustReconcile(t, store, doc)
	if len(rows.WeekStates) != 1 {
		t.Fatalf("duplicate states should collapse, got %d", len(rows.WeekStates))
	}
	if rows.WeekStates[0].Status != models.WeekProviderStatusDone {
		t.Fatalf("newest state must win, got %s", rows.WeekStates[0].Status)
	}
}

func TestReconcileSummaryMissingTimestampLoses(t *testing.T) {
	store := newMemStore()
	old := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{{ID: "p", Name: "Acme"}}
	doc.Tables.OrderSummaries = []models.OrderSummary{
		{ProviderId: "p", Items: 7, UpdatedAt: nil},
		{ProviderId: "p", Items: 3, UpdatedAt: &old},
	}

	rows, _ := mustReconcile(t, store, doc)
	if len(rows.OrderSummaries) != 1 {
		t.Fatalf("want 1 summary, got %d", len(rows.OrderSummaries))
	}
	// a row without a timestamp counts as oldest: even an ancient stamped
	// row beats it
	if rows.OrderSummaries[0].Items != 3 {
		t.Fatalf("stamped summary must win, got %+v", rows.OrderSummaries[0])
	}
}

func TestReconcileScrubsAuditFields(t *testing.T) {
	store := newMemStore()
	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{
		{ID: "p", Name: "Acme", CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	rows, _ := mustReconcile(t, store, doc)
	if !rows.Providers[0].CreatedAt.IsZero() {
		t.Fatalf("created_at must be scrubbed, got %v", rows.Providers[0].CreatedAt)
	}
}

func TestReconcileRewritesSalesSourceKey(t *testing.T) {
	store := newMemStore()
	doc := &Document{Version: 1}
	doc.Tables.Providers = []models.Provider{{ID: "p", Name: "Acme"}}
	doc.Tables.AppSettings = []models.AppSetting{
		{Key: models.SalesSourceKey("t1", "b1"), TenantId: "t1", BranchId: "b1", Value: []byte(`{"db":"sales"}`)},
		{Key: "theme", TenantId: "t1", BranchId: "b1", Value: []byte(`"dark"`)},
	}

	rows, _ := mustReconcile(t, store, doc)
	if len(rows.AppSettings) != 2 {
		t.Fatalf("want 2 settings, got %d", len(rows.AppSettings))
	}
	byKey := map[string]models.AppSetting{}
	for _, s := range rows.AppSettings {
		byKey[s.Key] = s
	}
	if _, ok := byKey[models.SalesSourceKey("t2", "b2")]; !ok {
		t.Fatalf("sales source key not re-qualified: %v", byKey)
	}
	if s, ok := byKey["theme"]; !ok || s.TenantId != "t2" {
		t.Fatalf("plain setting must pass through onto destination scope: %+v", s)
	}
}
