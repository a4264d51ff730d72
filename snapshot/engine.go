package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/models"
	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// Invalidator lets the engine refresh caches for a scope after an apply
// lands on it.
type Invalidator interface {
	Invalidate(tenantId string, branchId string)
}

// Engine drives the export / reconcile / apply pipeline against one store.
type Engine struct {
	store  ScopeStore
	logger *logrus.Logger
	cache  Invalidator
}

// NewEngine builds an engine. cache may be nil.
func NewEngine(store ScopeStore, logger *logrus.Logger, cache Invalidator) *Engine {
	return &Engine{store: store, logger: logger, cache: cache}
}

// ImportOptions tunes one import.
type ImportOptions struct {
	// BackupDestination saves the destination's current state into its
	// backup slot before the cleanup wipes it.
	BackupDestination bool
}

// CopyOptions tunes one scope copy.
type CopyOptions struct {
	// BackupSource persists the freshly built snapshot into the source's
	// backup slot before applying it onto the destination.
	BackupSource bool
}

// ExportScope serializes the scope's full state into one document.
func (e *Engine) ExportScope(ctx context.Context, scope Scope, source string) (*Document, error) {
	return BuildSnapshot(ctx, e.store, scope, source)
}

// ImportData parses raw bytes and applies them onto the destination scope.
// A parse failure is fatal and nothing is touched.
func (e *Engine) ImportData(ctx context.Context, data []byte, dest Scope, opts ImportOptions) (*Result, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return e.ImportDocument(ctx, doc, dest, opts)
}

// ImportDocument wipes the destination scope and applies the document onto
// it: cleanup, reconcile, chunked apply, cache invalidation. Row- and
// table-level problems accumulate in the result's diagnostics instead of
// aborting; only pre-apply failures (lock held, reconcile read errors)
// return an error.
func (e *Engine) ImportDocument(ctx context.Context, doc *Document, dest Scope, opts ImportOptions) (*Result, error) {

	if dest.IsZero() {
		return nil, errors.New("destination scope is required")
	}

	unlock, err := e.lockScope(ctx, dest)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := time.Now()
	diags := &Diagnostics{}

	if opts.BackupDestination {
		if err := e.SaveBackup(ctx, dest); err != nil && !errors.Is(err, ErrNoProviders) {
			diags.Addf("backup before import: %v", err)
		}
	}

	CleanScope(ctx, e.store, dest, diags)

	rows, err := Reconcile(ctx, e.store, doc, dest, diags)
	if err != nil {
		return nil, err
	}

	ApplyRowSets(ctx, e.store, rows, diags)

	e.invalidateScope(dest)

	result := resultFrom(diags)
	e.logger.WithFields(logrus.Fields{
		"scope":       dest.String(),
		"source":      doc.Source,
		"status":      result.Status,
		"diagnostics": len(result.Diagnostics),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("scope import finished")

	return result, nil
}

// CopyScope exports the source scope and applies it onto the destination.
func (e *Engine) CopyScope(ctx context.Context, src Scope, dest Scope, opts CopyOptions) (*Result, error) {

	if src == dest {
		return nil, errors.New("source and destination scope are the same")
	}

	doc, err := BuildSnapshot(ctx, e.store, src, "copy:"+src.String())
	if err != nil {
		return nil, err
	}

	if opts.BackupSource {
		if err := e.saveBackupDocument(ctx, src, doc); err != nil {
			return nil, fmt.Errorf("backup source scope: %w", err)
		}
	}

	return e.ImportDocument(ctx, doc, dest, ImportOptions{})
}

// lockScope serializes applies per destination scope via redislock. A held
// lock rejects the operation; redis being unavailable degrades to an
// unguarded run rather than blocking the import.
func (e *Engine) lockScope(ctx context.Context, scope Scope) (func(), error) {

	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}

	lock, err := locker.Obtain(ctx, "scope_apply:"+scope.String(), 5*time.Minute, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("another operation is already running for scope %s", scope.String())
		}
		config.LogError(e.logger, "snapshot", "lockScope", "obtain failed, proceeding unguarded", scope.String(), err)
		return func() {}, nil
	}

	return func() {
		if err := lock.Release(ctx); err != nil {
			config.LogError(e.logger, "snapshot", "lockScope", "release failed", scope.String(), err)
		}
	}, nil
}

// invalidateScope drops the destination's cached reads. The apply rewrote
// the scope's id space, so every cached row and list is stale.
func (e *Engine) invalidateScope(scope Scope) {
	if e.cache != nil {
		e.cache.Invalidate(scope.TenantId, scope.BranchId)
	}
	if err := utils.RemoveRedisList[models.Provider](scope.TenantId, scope.BranchId); err != nil {
		e.logger.WithField("scope", scope.String()).Warn("provider list cache invalidation failed")
	}
}
