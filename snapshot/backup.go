package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/surdata/pedidos_backend/models"
)

// BackupKeyPrefix qualifies the settings row holding a scope's saved
// snapshot. One slot per scope, overwritten on every save.
const BackupKeyPrefix = "scope_backup"

func BackupKey(scope Scope) string {
	return fmt.Sprintf("%s:%s:%s", BackupKeyPrefix, scope.TenantId, scope.BranchId)
}

var ErrNoBackup = errors.New("scope has no saved backup")

// SaveBackup snapshots the scope into its backup slot. The row's updated_at
// doubles as the last-backup time.
func (e *Engine) SaveBackup(ctx context.Context, scope Scope) error {
	doc, err := BuildSnapshot(ctx, e.store, scope, "backup:"+scope.String())
	if err != nil {
		return err
	}
	return e.saveBackupDocument(ctx, scope, doc)
}

func (e *Engine) saveBackupDocument(ctx context.Context, scope Scope, doc *Document) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	row := models.AppSetting{
		Key:      BackupKey(scope),
		TenantId: scope.TenantId,
		BranchId: scope.BranchId,
		Value:    value,
	}
	return e.store.Upsert(ctx, TableAppSettings.Key, []models.AppSetting{row}, TableAppSettings.ConflictCols)
}

// LastBackupAt reports when the scope's backup slot was last written, or
// nil when no backup exists.
func (e *Engine) LastBackupAt(ctx context.Context, scope Scope) (*time.Time, error) {
	row, err := e.loadBackupRow(ctx, scope)
	if err != nil {
		if errors.Is(err, ErrNoBackup) {
			return nil, nil
		}
		return nil, err
	}
	at := row.UpdatedAt
	return &at, nil
}

// RestoreBackup re-applies the scope's saved snapshot onto itself. Unlike a
// copy or import, restore collapses the outcome into a single error: the
// granular diagnostics only go to the log.
func (e *Engine) RestoreBackup(ctx context.Context, scope Scope) error {
	row, err := e.loadBackupRow(ctx, scope)
	if err != nil {
		return err
	}
	doc, err := ParseDocument(row.Value)
	if err != nil {
		return fmt.Errorf("stored backup is unreadable: %w", err)
	}
	result, err := e.ImportDocument(ctx, doc, scope, ImportOptions{})
	if err != nil {
		return err
	}
	if result.Status != StatusSuccess {
		return fmt.Errorf("restore finished with errors: %s", result.Report)
	}
	return nil
}

func (e *Engine) loadBackupRow(ctx context.Context, scope Scope) (*models.AppSetting, error) {
	filter := scopeFilter(scope)
	filter["key"] = BackupKey(scope)
	var rows []models.AppSetting
	err := e.store.Select(ctx, TableAppSettings.Key, filter, &rows)
	if err != nil {
		if errors.Is(err, ErrMissingTable) {
			return nil, ErrNoBackup
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoBackup
	}
	return &rows[0], nil
}
