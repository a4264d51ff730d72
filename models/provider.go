package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/google/uuid"
)

type Provider struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	TenantId      string            `gorm:"index:idx_providers_scope;size:36;not null" json:"tenant_id"`
	BranchId      string            `gorm:"index:idx_providers_scope;size:36;not null" json:"branch_id"`
	Name          string            `gorm:"size:200;not null" json:"name"`
	Frequency     ProviderFrequency `gorm:"size:20;not null;default:weekly" json:"frequency"`
	OrderDay      string            `gorm:"size:20" json:"order_day"`
	ReceiveDay    string            `gorm:"size:20" json:"receive_day"`
	Responsible   string            `gorm:"size:100" json:"responsible"`
	Status        ProviderStatus    `gorm:"size:20;not null;default:active" json:"status"`
	PaymentMethod string            `gorm:"size:50" json:"payment_method"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Provider) TableName() string { return "providers" }

type NewProvider struct {
	Name          string            `json:"name" binding:"required"`
	Frequency     ProviderFrequency `json:"frequency" binding:"required,oneof=weekly biweekly monthly"`
	OrderDay      string            `json:"order_day" binding:"omitempty,weekday"`
	ReceiveDay    string            `json:"receive_day" binding:"omitempty,weekday"`
	Responsible   string            `json:"responsible"`
	Status        ProviderStatus    `json:"status" binding:"omitempty,oneof=active paused"`
	PaymentMethod string            `json:"payment_method"`
}

// validate input for both create & update. (id = "" for create)
func (input *NewProvider) validate(ctx context.Context, tenantId string, branchId string, id string) error {
	if id != "" {
		if err := utils.ValidateResourceId[Provider](ctx, tenantId, id); err != nil {
			return err
		}
	}
	// name is the natural key within a scope
	count, err := utils.ResourceCountWhere[Provider](ctx, tenantId,
		"branch_id = ? AND name = ? AND id <> ?", branchId, strings.TrimSpace(input.Name), id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorDuplicateValue("name")
	}
	return nil
}

func scopeFromContext(ctx context.Context) (string, string, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return "", "", errors.New("tenant id is required")
	}
	branchId, ok := utils.GetBranchIdFromContext(ctx)
	if !ok || branchId == "" {
		return "", "", errors.New("branch id is required")
	}
	return tenantId, branchId, nil
}

func CreateProvider(ctx context.Context, input *NewProvider) (*Provider, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, tenantId, branchId, ""); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = ProviderStatusActive
	}

	provider := Provider{
		ID:            uuid.NewString(),
		TenantId:      tenantId,
		BranchId:      branchId,
		Name:          strings.TrimSpace(input.Name),
		Frequency:     input.Frequency,
		OrderDay:      input.OrderDay,
		ReceiveDay:    input.ReceiveDay,
		Responsible:   input.Responsible,
		Status:        status,
		PaymentMethod: input.PaymentMethod,
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&provider).Error; err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisList[Provider](tenantId, branchId)

	return &provider, nil
}

func UpdateProvider(ctx context.Context, id string, input *NewProvider) (*Provider, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, tenantId, branchId, id); err != nil {
		return nil, err
	}

	provider, err := utils.FetchModel[Provider](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&provider).Updates(map[string]interface{}{
		"Name":          strings.TrimSpace(input.Name),
		"Frequency":     input.Frequency,
		"OrderDay":      input.OrderDay,
		"ReceiveDay":    input.ReceiveDay,
		"Responsible":   input.Responsible,
		"Status":        input.Status,
		"PaymentMethod": input.PaymentMethod,
	}).Error
	if err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisItem[Provider](id)
	_ = utils.RemoveRedisList[Provider](tenantId, branchId)

	return provider, nil
}

func DeleteProvider(ctx context.Context, id string) (*Provider, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := utils.FetchModel[Provider](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}

	// check if the provider still has orders
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Order{}).
		Where("provider_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("provider has orders")
	}

	// db action
	if err := db.WithContext(ctx).Delete(&provider).Error; err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisItem[Provider](id)
	_ = utils.RemoveRedisList[Provider](tenantId, branchId)

	return provider, nil
}

// first find in redis, then in db, cache the result
func GetProvider(ctx context.Context, id string) (*Provider, error) {

	tenantId, _, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.RetrieveRedis[Provider](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[Provider](ctx, tenantId, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Provider](result, id); err != nil {
			return nil, err
		}
	} else if result.TenantId != tenantId {
		return nil, errors.New("cannot access resource owned by other tenant")
	}

	return result, nil
}

func GetProviders(ctx context.Context) ([]*Provider, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	results, err := utils.RetrieveRedisList[Provider](tenantId, branchId)
	if err != nil {
		return nil, err
	}
	if results == nil {
		db := config.GetDB()
		if err := db.WithContext(ctx).
			Where("tenant_id = ? AND branch_id = ?", tenantId, branchId).
			Order("name").
			Find(&results).Error; err != nil {
			return nil, err
		}
		if err := utils.StoreRedisList[Provider](results, tenantId, branchId); err != nil {
			return nil, err
		}
	}

	return results, nil
}
