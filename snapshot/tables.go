package snapshot

// TableSpec describes one table to the engine: its wire name (which is also
// the document key) and the conflict key used for upserts. Processing order
// is carried by the two ordered lists below, not by the specs themselves.
type TableSpec struct {
	Key          string
	ConflictCols []string
}

var (
	TableProviders          = TableSpec{Key: "providers", ConflictCols: []string{"id"}}
	TableWeeks              = TableSpec{Key: "provider_weeks", ConflictCols: []string{"id"}}
	TableWeekProviderLinks  = TableSpec{Key: "provider_week_providers", ConflictCols: []string{"week_id", "provider_id"}}
	TableWeekStates         = TableSpec{Key: "provider_week_states", ConflictCols: []string{"week_id", "provider_id"}}
	TableOrders             = TableSpec{Key: "orders", ConflictCols: []string{"id"}}
	TableOrderItems         = TableSpec{Key: "order_items", ConflictCols: []string{"id"}}
	TableOrderSnapshots     = TableSpec{Key: "order_snapshots", ConflictCols: []string{"id"}}
	TableOrderUiStates      = TableSpec{Key: "order_ui_state", ConflictCols: []string{"order_id"}}
	TableOrderSummaries     = TableSpec{Key: "order_summaries", ConflictCols: []string{"provider_id"}}
	TableOrderSummariesWeek = TableSpec{Key: "order_summaries_week", ConflictCols: []string{"week_id", "provider_id"}}
	TableAppSettings        = TableSpec{Key: "app_settings", ConflictCols: []string{"key"}}
)

// applyOrder lists tables parent-first: later tables reference ids resolved
// by earlier ones.
var applyOrder = []TableSpec{
	TableProviders,
	TableWeeks,
	TableWeekProviderLinks,
	TableWeekStates,
	TableOrders,
	TableOrderItems,
	TableOrderSnapshots,
	TableOrderUiStates,
	TableOrderSummaries,
	TableOrderSummariesWeek,
	TableAppSettings,
}

// cleanupOrder is strict child-before-parent, used when purging a
// destination scope ahead of an apply.
var cleanupOrder = []TableSpec{
	TableOrderUiStates,
	TableOrderSnapshots,
	TableOrderItems,
	TableOrderSummaries,
	TableOrderSummariesWeek,
	TableWeekStates,
	TableWeekProviderLinks,
	TableWeeks,
	TableOrders,
	TableProviders,
	TableAppSettings,
}

// dropFields lists per-table audit columns that are never trusted from a
// source document. The reconciler zeroes them so backend defaults apply on
// write. Semantic timestamps (week states, summaries, snapshot capture
// times) are NOT listed here: they participate in latest-wins resolution.
var dropFields = map[string][]string{
	TableProviders.Key: {"created_at", "updated_at"},
	TableWeeks.Key:     {"created_at"},
	TableOrders.Key:    {"created_at"},
}
