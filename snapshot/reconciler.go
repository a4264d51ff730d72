package snapshot

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"bitbucket.org/surdata/pedidos_backend/models"
	"github.com/google/uuid"
)

// idMap tracks how source ids resolve into destination ids. Every binding
// also maps the resolved id onto itself, so a document that already carries
// destination ids reconciles to a no-op remap.
type idMap struct {
	m map[string]string
}

func newIdMap() *idMap {
	return &idMap{m: map[string]string{}}
}

func (m *idMap) bind(originalId string, resolvedId string) {
	if originalId != "" {
		m.m[originalId] = resolvedId
	}
	m.m[resolvedId] = resolvedId
}

func (m *idMap) resolve(id string) (string, bool) {
	resolved, ok := m.m[id]
	return resolved, ok
}

// Reconcile maps a source document onto the destination scope's id space:
// providers merge by normalized name, weeks merge by week start, orders
// always mint fresh ids, and every child row is remapped through its
// parents. Rows whose references never resolve are dropped with a
// diagnostic. The destination is read to seed the natural-key indexes but
// nothing is written here.
func Reconcile(ctx context.Context, store ScopeStore, doc *Document, dest Scope, diags *Diagnostics) (*Tables, error) {

	out := &Tables{}

	providerIds, err := reconcileProviders(ctx, store, doc, dest, out)
	if err != nil {
		return nil, err
	}
	weekIds, err := reconcileWeeks(ctx, store, doc, dest, out)
	if err != nil {
		return nil, err
	}
	reconcileWeekLinks(doc, dest, providerIds, weekIds, out, diags)
	reconcileWeekStates(doc, dest, providerIds, weekIds, out, diags)

	orderIds := reconcileOrders(doc, dest, providerIds, out, diags)
	reconcileOrderChildren(doc, dest, orderIds, out, diags)

	reconcileSummaries(doc, dest, providerIds, weekIds, out, diags)
	reconcileAppSettings(doc, dest, out)

	return out, nil
}

func reconcileProviders(ctx context.Context, store ScopeStore, doc *Document, dest Scope, out *Tables) (*idMap, error) {

	var existing []models.Provider
	err := store.Select(ctx, TableProviders.Key, scopeFilter(dest), &existing)
	if err != nil && !errors.Is(err, ErrMissingTable) {
		return nil, fmt.Errorf("load destination providers: %w", err)
	}

	byNameKey := make(map[string]string, len(existing))
	for _, p := range existing {
		byNameKey[ProviderNameKey(p.Name)] = p.ID
	}

	ids := newIdMap()
	emitted := map[string]bool{}
	for _, src := range doc.Tables.Providers {
		key := ProviderNameKey(src.Name)
		resolved, ok := byNameKey[key]
		if !ok {
			resolved = uuid.NewString()
			// register so later duplicates in the same document merge too
			byNameKey[key] = resolved
		}
		ids.bind(src.ID, resolved)

		if emitted[resolved] {
			continue
		}
		emitted[resolved] = true

		row := src
		row.ID = resolved
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		row.Name = StripBranchSuffix(src.Name)
		scrubRow(&row, dropFields[TableProviders.Key])
		out.Providers = append(out.Providers, row)
	}
	return ids, nil
}

func reconcileWeeks(ctx context.Context, store ScopeStore, doc *Document, dest Scope, out *Tables) (*idMap, error) {

	var existing []models.Week
	err := store.Select(ctx, TableWeeks.Key, scopeFilter(dest), &existing)
	if err != nil && !errors.Is(err, ErrMissingTable) {
		return nil, fmt.Errorf("load destination weeks: %w", err)
	}

	byStart := make(map[string]string, len(existing))
	for _, w := range existing {
		byStart[weekKey(w.WeekStart)] = w.ID
	}

	ids := newIdMap()
	emitted := map[string]bool{}
	for _, src := range doc.Tables.Weeks {
		key := weekKey(src.WeekStart)
		resolved, ok := byStart[key]
		if !ok {
			resolved = uuid.NewString()
			byStart[key] = resolved
		}
		ids.bind(src.ID, resolved)

		if emitted[resolved] {
			continue
		}
		emitted[resolved] = true

		row := src
		row.ID = resolved
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		scrubRow(&row, dropFields[TableWeeks.Key])
		out.Weeks = append(out.Weeks, row)
	}
	return ids, nil
}

func reconcileWeekLinks(doc *Document, dest Scope, providerIds *idMap, weekIds *idMap, out *Tables, diags *Diagnostics) {

	seen := map[string]bool{}
	for _, src := range doc.Tables.WeekProviderLinks {
		weekId, ok := weekIds.resolve(src.WeekId)
		if !ok {
			diags.Addf("%s: dropped link to unresolved week %s", TableWeekProviderLinks.Key, src.WeekId)
			continue
		}
		providerId, ok := providerIds.resolve(src.ProviderId)
		if !ok {
			diags.Addf("%s: dropped link to unresolved provider %s", TableWeekProviderLinks.Key, src.ProviderId)
			continue
		}
		key := weekId + "|" + providerId
		if seen[key] {
			continue
		}
		seen[key] = true

		row := src
		row.WeekId = weekId
		row.ProviderId = providerId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		out.WeekProviderLinks = append(out.WeekProviderLinks, row)
	}
}

func reconcileWeekStates(doc *Document, dest Scope, providerIds *idMap, weekIds *idMap, out *Tables, diags *Diagnostics) {

	remapped := make([]models.WeekState, 0, len(doc.Tables.WeekStates))
	for _, src := range doc.Tables.WeekStates {
		weekId, ok := weekIds.resolve(src.WeekId)
		if !ok {
			diags.Addf("%s: dropped state for unresolved week %s", TableWeekStates.Key, src.WeekId)
			continue
		}
		providerId, ok := providerIds.resolve(src.ProviderId)
		if !ok {
			diags.Addf("%s: dropped state for unresolved provider %s", TableWeekStates.Key, src.ProviderId)
			continue
		}

		row := src
		row.WeekId = weekId
		row.ProviderId = providerId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		remapped = append(remapped, row)
	}

	out.WeekStates = latestWins(remapped,
		func(s models.WeekState) string { return s.WeekId + "|" + s.ProviderId },
		func(s models.WeekState) time.Time { return s.UpdatedAt },
	)
}

func reconcileOrders(doc *Document, dest Scope, providerIds *idMap, out *Tables, diags *Diagnostics) *idMap {

	ids := newIdMap()
	for _, src := range doc.Tables.Orders {
		providerId, ok := providerIds.resolve(src.ProviderId)
		if !ok {
			diags.Addf("%s: dropped order %s for unresolved provider %s", TableOrders.Key, src.ID, src.ProviderId)
			continue
		}

		row := src
		row.ID = uuid.NewString()
		row.ProviderId = providerId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		scrubRow(&row, dropFields[TableOrders.Key])
		ids.bind(src.ID, row.ID)
		out.Orders = append(out.Orders, row)
	}
	return ids
}

func reconcileOrderChildren(doc *Document, dest Scope, orderIds *idMap, out *Tables, diags *Diagnostics) {

	for _, src := range doc.Tables.OrderItems {
		orderId, ok := orderIds.resolve(src.OrderId)
		if !ok {
			diags.Addf("%s: dropped item %s for unresolved order %s", TableOrderItems.Key, src.ID, src.OrderId)
			continue
		}
		row := src
		row.OrderId = orderId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		out.OrderItems = append(out.OrderItems, row)
	}

	for _, src := range doc.Tables.OrderSnapshots {
		orderId, ok := orderIds.resolve(src.OrderId)
		if !ok {
			diags.Addf("%s: dropped capture %s for unresolved order %s", TableOrderSnapshots.Key, src.ID, src.OrderId)
			continue
		}
		row := src
		row.OrderId = orderId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		out.OrderSnapshots = append(out.OrderSnapshots, row)
	}

	for _, src := range doc.Tables.OrderUiStates {
		orderId, ok := orderIds.resolve(src.OrderId)
		if !ok {
			diags.Addf("%s: dropped ui state for unresolved order %s", TableOrderUiStates.Key, src.OrderId)
			continue
		}
		row := src
		row.OrderId = orderId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		out.OrderUiStates = append(out.OrderUiStates, row)
	}
}

func reconcileSummaries(doc *Document, dest Scope, providerIds *idMap, weekIds *idMap, out *Tables, diags *Diagnostics) {

	perProvider := make([]models.OrderSummary, 0, len(doc.Tables.OrderSummaries))
	for _, src := range doc.Tables.OrderSummaries {
		providerId, ok := providerIds.resolve(src.ProviderId)
		if !ok {
			diags.Addf("%s: dropped summary for unresolved provider %s", TableOrderSummaries.Key, src.ProviderId)
			continue
		}
		row := src
		row.ProviderId = providerId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		perProvider = append(perProvider, row)
	}
	out.OrderSummaries = latestWins(perProvider,
		func(s models.OrderSummary) string { return s.ProviderId },
		summaryTime(func(s models.OrderSummary) *time.Time { return s.UpdatedAt }),
	)

	perWeek := make([]models.OrderSummaryWeek, 0, len(doc.Tables.OrderSummariesWeek))
	for _, src := range doc.Tables.OrderSummariesWeek {
		weekId, ok := weekIds.resolve(src.WeekId)
		if !ok {
			diags.Addf("%s: dropped summary for unresolved week %s", TableOrderSummariesWeek.Key, src.WeekId)
			continue
		}
		providerId, ok := providerIds.resolve(src.ProviderId)
		if !ok {
			diags.Addf("%s: dropped summary for unresolved provider %s", TableOrderSummariesWeek.Key, src.ProviderId)
			continue
		}
		row := src
		row.WeekId = weekId
		row.ProviderId = providerId
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		perWeek = append(perWeek, row)
	}
	out.OrderSummariesWeek = latestWins(perWeek,
		func(s models.OrderSummaryWeek) string { return s.WeekId + "|" + s.ProviderId },
		summaryTime(func(s models.OrderSummaryWeek) *time.Time { return s.UpdatedAt }),
	)
}

func reconcileAppSettings(doc *Document, dest Scope, out *Tables) {

	for _, src := range doc.Tables.AppSettings {
		row := src
		row.TenantId = dest.TenantId
		row.BranchId = dest.BranchId
		if strings.HasPrefix(row.Key, models.SalesSourceKeyPrefix+":") {
			// re-qualify onto the destination so the pointer follows the copy
			row.Key = models.SalesSourceKey(dest.TenantId, dest.BranchId)
		}
		out.AppSettings = append(out.AppSettings, row)
	}
}

// latestWins collapses rows sharing a key, keeping the one with the newest
// timestamp. A missing timestamp counts as the zero time, so any stamped row
// beats it; ties keep the later row in document order.
func latestWins[T any, K comparable](rows []T, key func(T) K, at func(T) time.Time) []T {
	if len(rows) == 0 {
		return rows
	}
	index := make(map[K]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if i, ok := index[k]; ok {
			if !at(row).Before(at(out[i])) {
				out[i] = row
			}
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	return out
}

func summaryTime[T any](get func(T) *time.Time) func(T) time.Time {
	return func(row T) time.Time {
		if t := get(row); t != nil {
			return *t
		}
		return time.Time{}
	}
}

// scrubRow zeroes the named fields on one row, matching by json tag, so the
// backend's own defaults apply on write.
func scrubRow(row any, fields []string) {
	if len(fields) == 0 {
		return
	}
	v := reflect.ValueOf(row).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		for _, f := range fields {
			if tag == f {
				v.Field(i).Set(reflect.Zero(t.Field(i).Type))
			}
		}
	}
}
