package snapshot

import (
	"context"
	"errors"
	"strings"

	"bitbucket.org/surdata/pedidos_backend/models"
)

// CleanScope purges every row of the destination scope in strict
// child-before-parent order so the apply starts from a blank slate. Cleanup
// is best-effort: missing tables are skipped silently, any other delete
// failure is diagnosed and cleanup moves on to the next table.
func CleanScope(ctx context.Context, store ScopeStore, scope Scope, diags *Diagnostics) {

	for _, spec := range cleanupOrder {
		if spec.Key == TableAppSettings.Key {
			cleanAppSettings(ctx, store, scope, diags)
			continue
		}
		err := store.Delete(ctx, spec.Key, scopeFilter(scope))
		if err != nil && !errors.Is(err, ErrMissingTable) {
			diags.Addf("cleanup %s: %v", spec.Key, err)
		}
	}
}

// cleanAppSettings deletes the scope's settings but leaves its backup slot
// alone, so a restore never destroys the snapshot it is restoring from.
func cleanAppSettings(ctx context.Context, store ScopeStore, scope Scope, diags *Diagnostics) {

	var rows []models.AppSetting
	err := store.Select(ctx, TableAppSettings.Key, scopeFilter(scope), &rows)
	if err != nil {
		if !errors.Is(err, ErrMissingTable) {
			diags.Addf("cleanup %s: %v", TableAppSettings.Key, err)
		}
		return
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		if strings.HasPrefix(row.Key, BackupKeyPrefix+":") {
			continue
		}
		keys = append(keys, row.Key)
	}
	if len(keys) == 0 {
		return
	}

	filter := scopeFilter(scope)
	filter["key"] = keys
	err = store.Delete(ctx, TableAppSettings.Key, filter)
	if err != nil && !errors.Is(err, ErrMissingTable) {
		diags.Addf("cleanup %s: %v", TableAppSettings.Key, err)
	}
}
