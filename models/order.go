package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Order has no natural key: every import mints a fresh one.
type Order struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TenantId   string    `gorm:"index:idx_orders_scope;size:36;not null" json:"tenant_id"`
	BranchId   string    `gorm:"index:idx_orders_scope;size:36;not null" json:"branch_id"`
	ProviderId string    `gorm:"index;size:36;not null" json:"provider_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	TenantId  string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId  string          `gorm:"size:36;not null" json:"branch_id"`
	OrderId   string          `gorm:"index;size:36;not null" json:"order_id"`
	Product   string          `gorm:"size:200" json:"product"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_price"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,6)" json:"amount"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderSnapshot is an append-only capture of an order's state.
type OrderSnapshot struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	TenantId  string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId  string          `gorm:"size:36;not null" json:"branch_id"`
	OrderId   string          `gorm:"index;size:36;not null" json:"order_id"`
	Payload   json.RawMessage `gorm:"type:json" json:"payload"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderSnapshot) TableName() string { return "order_snapshots" }

// OrderUiState is an opaque per-order blob, overwritten as a whole.
type OrderUiState struct {
	OrderId  string          `gorm:"primaryKey;size:36" json:"order_id"`
	TenantId string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId string          `gorm:"size:36;not null" json:"branch_id"`
	Value    json.RawMessage `gorm:"type:json" json:"value"`
}

func (OrderUiState) TableName() string { return "order_ui_state" }

type NewOrderItem struct {
	Product   string          `json:"product"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type NewOrder struct {
	ProviderId string         `json:"provider_id" binding:"required"`
	Items      []NewOrderItem `json:"items"`
}

func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateResourceId[Provider](ctx, tenantId, input.ProviderId); err != nil {
		return nil, errors.New("provider not found")
	}

	order := Order{
		ID:         uuid.NewString(),
		TenantId:   tenantId,
		BranchId:   branchId,
		ProviderId: input.ProviderId,
	}

	items := make([]OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, OrderItem{
			ID:        uuid.NewString(),
			TenantId:  tenantId,
			BranchId:  branchId,
			OrderId:   order.ID,
			Product:   in.Product,
			Qty:       in.Qty,
			UnitPrice: in.UnitPrice,
			Amount:    in.Qty.Mul(in.UnitPrice),
		})
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := db.WithContext(ctx).Create(&items).Error; err != nil {
			return nil, err
		}
	}

	return &order, nil
}

func GetOrderItems(ctx context.Context, orderId string) ([]*OrderItem, error) {

	tenantId, _, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*OrderItem
	err = db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantId, orderId).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// AddOrderSnapshot appends a point-in-time capture of the order.
func AddOrderSnapshot(ctx context.Context, orderId string, payload json.RawMessage) (*OrderSnapshot, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateResourceId[Order](ctx, tenantId, orderId); err != nil {
		return nil, errors.New("order not found")
	}

	snap := OrderSnapshot{
		ID:       uuid.NewString(),
		TenantId: tenantId,
		BranchId: branchId,
		OrderId:  orderId,
		Payload:  payload,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&snap).Error; err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetOrderUiState overwrites the order's opaque UI blob.
func SetOrderUiState(ctx context.Context, orderId string, value json.RawMessage) error {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return err
	}

	if err := utils.ValidateResourceId[Order](ctx, tenantId, orderId); err != nil {
		return errors.New("order not found")
	}

	state := OrderUiState{
		OrderId:  orderId,
		TenantId: tenantId,
		BranchId: branchId,
		Value:    value,
	}

	db := config.GetDB()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(&state).Error
}
