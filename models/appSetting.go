package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppSetting is a generic scoped key/value row. Keys are scope-qualified so
// they stay unique across tenants and branches.
type AppSetting struct {
	Key       string          `gorm:"primaryKey;size:255" json:"key"`
	TenantId  string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId  string          `gorm:"size:36;not null" json:"branch_id"`
	Value     json.RawMessage `gorm:"type:json" json:"value"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_settings" }

const SalesSourceKeyPrefix = "sales_source"

// SalesSourceKey is the scope-qualified key of the sales source pointer.
func SalesSourceKey(tenantId string, branchId string) string {
	return fmt.Sprintf("%s:%s:%s", SalesSourceKeyPrefix, tenantId, branchId)
}

func GetAppSetting(ctx context.Context, key string) (*AppSetting, error) {

	tenantId, _, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var setting AppSetting
	err = db.WithContext(ctx).
		Where("tenant_id = ? AND `key` = ?", tenantId, key).
		Take(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func SetAppSetting(ctx context.Context, key string, value json.RawMessage) (*AppSetting, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	setting := AppSetting{
		Key:      key,
		TenantId: tenantId,
		BranchId: branchId,
		Value:    value,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetSalesSource returns the scope's sales source pointer, or nil when unset.
func GetSalesSource(ctx context.Context) (json.RawMessage, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	setting, err := GetAppSetting(ctx, SalesSourceKey(tenantId, branchId))
	if err != nil || setting == nil {
		return nil, err
	}
	return setting.Value, nil
}

func SetSalesSource(ctx context.Context, value json.RawMessage) error {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = SetAppSetting(ctx, SalesSourceKey(tenantId, branchId), value)
	return err
}
