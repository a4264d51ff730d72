package snapshot

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/surdata/pedidos_backend/models"
	gosqlmysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tableModels maps wire table names onto gorm models. A table name outside
// this map behaves exactly like a table missing from the backend.
var tableModels = map[string]func() any{
	TableProviders.Key:          func() any { return &models.Provider{} },
	TableWeeks.Key:              func() any { return &models.Week{} },
	TableWeekProviderLinks.Key:  func() any { return &models.WeekProviderLink{} },
	TableWeekStates.Key:         func() any { return &models.WeekState{} },
	TableOrders.Key:             func() any { return &models.Order{} },
	TableOrderItems.Key:         func() any { return &models.OrderItem{} },
	TableOrderSnapshots.Key:     func() any { return &models.OrderSnapshot{} },
	TableOrderUiStates.Key:      func() any { return &models.OrderUiState{} },
	TableOrderSummaries.Key:     func() any { return &models.OrderSummary{} },
	TableOrderSummariesWeek.Key: func() any { return &models.OrderSummaryWeek{} },
	TableAppSettings.Key:        func() any { return &models.AppSetting{} },
}

// GormStore is the production ScopeStore backed by the shared gorm DB.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Select(ctx context.Context, table string, filter map[string]any, dest any) error {
	if _, ok := tableModels[table]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	err := s.db.WithContext(ctx).Where(filter).Find(dest).Error
	return normalizeStoreErr(table, err)
}

func (s *GormStore) Upsert(ctx context.Context, table string, rows any, conflictCols []string) error {
	if _, ok := tableModels[table]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	cols := make([]clause.Column, 0, len(conflictCols))
	for _, c := range conflictCols {
		cols = append(cols, clause.Column{Name: c})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: cols, UpdateAll: true}).
		Create(rows).Error
	return normalizeStoreErr(table, err)
}

func (s *GormStore) Delete(ctx context.Context, table string, filter map[string]any) error {
	model, ok := tableModels[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	err := s.db.WithContext(ctx).Where(filter).Delete(model()).Error
	return normalizeStoreErr(table, err)
}

// normalizeStoreErr maps mysql "table doesn't exist" (1146) onto
// ErrMissingTable so the engine can swallow it.
func normalizeStoreErr(table string, err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *gosqlmysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1146 {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	return err
}
