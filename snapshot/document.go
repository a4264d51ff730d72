package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"bitbucket.org/surdata/pedidos_backend/models"
)

// DocumentVersion is the only snapshot document version this engine
// understands.
const DocumentVersion = 1

// Scope identifies a (tenant, branch) pair. All branch-scoped rows written
// during an apply are forced onto the destination scope.
type Scope struct {
	TenantId string `json:"tenant_id"`
	BranchId string `json:"branch_id"`
}

func (s Scope) String() string {
	return s.TenantId + ":" + s.BranchId
}

func (s Scope) IsZero() bool {
	return s.TenantId == "" || s.BranchId == ""
}

// Document is the portable export of one scope's full relational state.
type Document struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Source     string    `json:"source"`
	Tables     Tables    `json:"tables"`
}

// Tables holds every table's row set, keyed by the wire table names.
// The same shape doubles as the reconciler's output row sets.
type Tables struct {
	Providers          []models.Provider         `json:"providers"`
	Weeks              []models.Week             `json:"provider_weeks"`
	WeekProviderLinks  []models.WeekProviderLink `json:"provider_week_providers"`
	WeekStates         []models.WeekState        `json:"provider_week_states"`
	Orders             []models.Order            `json:"orders"`
	OrderItems         []models.OrderItem        `json:"order_items"`
	OrderSnapshots     []models.OrderSnapshot    `json:"order_snapshots"`
	OrderUiStates      []models.OrderUiState     `json:"order_ui_state"`
	OrderSummaries     []models.OrderSummary     `json:"order_summaries"`
	OrderSummariesWeek []models.OrderSummaryWeek `json:"order_summaries_week"`
	AppSettings        []models.AppSetting       `json:"app_settings"`
}

// ParseError marks a document that cannot be processed at all. Parse errors
// are fatal and are raised before any backend call is made.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse snapshot: " + e.Reason
}

// ParseDocument decodes and validates a snapshot document. Unknown table
// keys are ignored and absent ones yield empty row sets; a wrong version or
// a non-object tables field is a hard failure.
func ParseDocument(data []byte) (*Document, error) {
	var raw struct {
		Version    int                        `json:"version"`
		ExportedAt time.Time                  `json:"exportedAt"`
		Source     string                     `json:"source"`
		Tables     map[string]json.RawMessage `json:"tables"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	if raw.Version != DocumentVersion {
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported version %d (want %d)", raw.Version, DocumentVersion)}
	}
	if raw.Tables == nil {
		return nil, &ParseError{Reason: "tables must be an object"}
	}

	doc := &Document{
		Version:    raw.Version,
		ExportedAt: raw.ExportedAt,
		Source:     raw.Source,
	}

	decode := func(key string, dest any) error {
		rowsJSON, ok := raw.Tables[key]
		if !ok || len(rowsJSON) == 0 {
			return nil
		}
		if err := json.Unmarshal(rowsJSON, dest); err != nil {
			return &ParseError{Reason: fmt.Sprintf("table %s: %v", key, err)}
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
		if err := decode(step.key, step.dest); err != nil {
			return nil, err
		}
	}

	return doc, nil
}
