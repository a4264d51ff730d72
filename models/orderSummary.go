package models

import (
	"context"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// OrderSummary is a cached per-provider aggregate, last-write-wins by
// UpdatedAt.
type OrderSummary struct {
	ProviderId string          `gorm:"primaryKey;size:36" json:"provider_id"`
	TenantId   string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId   string          `gorm:"size:36;not null" json:"branch_id"`
	Total      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total"`
	Items      int             `gorm:"not null" json:"items"`
	UpdatedAt  *time.Time      `json:"updated_at"`
}

func (OrderSummary) TableName() string { return "order_summaries" }

// OrderSummaryWeek is the weekly variant, one row per (week, provider).
type OrderSummaryWeek struct {
	WeekId     string          `gorm:"primaryKey;size:36" json:"week_id"`
	ProviderId string          `gorm:"primaryKey;size:36" json:"provider_id"`
	TenantId   string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId   string          `gorm:"size:36;not null" json:"branch_id"`
	Total      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total"`
	Items      int             `gorm:"not null" json:"items"`
	UpdatedAt  *time.Time      `json:"updated_at"`
}

func (OrderSummaryWeek) TableName() string { return "order_summaries_week" }

// RecomputeOrderSummary rebuilds the cached aggregate from the provider's
// current order items and stamps it with now.
func RecomputeOrderSummary(ctx context.Context, providerId string) (*OrderSummary, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()

	type agg struct {
		Total decimal.Decimal
		Items int
	}
	var a agg
	err = db.WithContext(ctx).Model(&OrderItem{}).
		Select("COALESCE(SUM(order_items.amount), 0) AS total, COUNT(*) AS items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.provider_id = ? AND orders.tenant_id = ? AND orders.branch_id = ?", providerId, tenantId, branchId).
		Where("order_items.tenant_id = ?", tenantId).
		Scan(&a).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := OrderSummary{
		ProviderId: providerId,
		TenantId:   tenantId,
		BranchId:   branchId,
		Total:      a.Total,
		Items:      a.Items,
		UpdatedAt:  &now,
	}
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_id"}},
			UpdateAll: true,
		}).
		Create(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// SetOrderSummaryWeek upserts the weekly aggregate for (week, provider),
// stamped with now.
func SetOrderSummaryWeek(ctx context.Context, weekId string, providerId string, total decimal.Decimal, items int) (*OrderSummaryWeek, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := OrderSummaryWeek{
		WeekId:     weekId,
		ProviderId: providerId,
		TenantId:   tenantId,
		BranchId:   branchId,
		Total:      total,
		Items:      items,
		UpdatedAt:  &now,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "week_id"}, {Name: "provider_id"}},
			UpdateAll: true,
		}).
		Create(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
