package snapshot

import (
	"context"
	"errors"
)

// ErrMissingTable is returned (wrapped) by a ScopeStore when the target
// table does not exist in the backend. The engine treats these as "this
// optional table doesn't exist here" and never surfaces them.
var ErrMissingTable = errors.New("table does not exist")

// ScopeStore is the engine's view of the backing table store: filtered
// selects, conflict-key upserts and filtered deletes, by table name.
//
// Filter values compare with equality; a slice value means IN.
type ScopeStore interface {
	Select(ctx context.Context, table string, filter map[string]any, dest any) error
	Upsert(ctx context.Context, table string, rows any, conflictCols []string) error
	Delete(ctx context.Context, table string, filter map[string]any) error
}

func scopeFilter(scope Scope) map[string]any {
	return map[string]any{
		"tenant_id": scope.TenantId,
		"branch_id": scope.BranchId,
	}
}
