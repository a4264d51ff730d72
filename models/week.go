package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Week is an order cycle anchored to a Monday. The natural key within a
// scope is WeekStart.
type Week struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantId  string    `gorm:"index:idx_weeks_scope;size:36;not null" json:"tenant_id"`
	BranchId  string    `gorm:"index:idx_weeks_scope;size:36;not null" json:"branch_id"`
	WeekStart time.Time `gorm:"type:date;not null" json:"week_start"`
	Label     string    `gorm:"size:100" json:"label"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Week) TableName() string { return "provider_weeks" }

// WeekProviderLink marks a provider as included in a week.
type WeekProviderLink struct {
	WeekId     string    `gorm:"primaryKey;size:36" json:"week_id"`
	ProviderId string    `gorm:"primaryKey;size:36" json:"provider_id"`
	TenantId   string    `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId   string    `gorm:"size:36;not null" json:"branch_id"`
	AddedAt    time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (WeekProviderLink) TableName() string { return "provider_week_providers" }

// WeekState tracks order progress for one provider within one week.
type WeekState struct {
	WeekId     string             `gorm:"primaryKey;size:36" json:"week_id"`
	ProviderId string             `gorm:"primaryKey;size:36" json:"provider_id"`
	TenantId   string             `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId   string             `gorm:"size:36;not null" json:"branch_id"`
	Status     WeekProviderStatus `gorm:"size:20;not null;default:pending" json:"status"`
	// UpdatedAt is set explicitly: duplicate states are resolved by
	// latest-wins during reconciliation, so it must never be auto-stamped.
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeekState) TableName() string { return "provider_week_states" }

// EnsureWeek returns the scope's week containing t, creating it when absent.
func EnsureWeek(ctx context.Context, t time.Time) (*Week, error) {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	weekStart := utils.MondayOf(t)

	db := config.GetDB()
	var week Week
	err = db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ? AND week_start = ?", tenantId, branchId, weekStart).
		Take(&week).Error
	if err == nil {
		return &week, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	week = Week{
		ID:        uuid.NewString(),
		TenantId:  tenantId,
		BranchId:  branchId,
		WeekStart: weekStart,
		Label:     fmt.Sprintf("Semana del %s", weekStart.Format("02/01/2006")),
	}
	if err := db.WithContext(ctx).Create(&week).Error; err != nil {
		return nil, err
	}
	return &week, nil
}

// IncludeProviderInWeek links a provider to a week and seeds its pending
// state. Re-including is a no-op.
func IncludeProviderInWeek(ctx context.Context, weekId string, providerId string) error {

	tenantId, branchId, err := scopeFromContext(ctx)
	if err != nil {
		return err
	}

	if err := utils.ValidateResourceId[Week](ctx, tenantId, weekId); err != nil {
		return errors.New("week not found")
	}
	if err := utils.ValidateResourceId[Provider](ctx, tenantId, providerId); err != nil {
		return errors.New("provider not found")
	}

	db := config.GetDB()
	link := WeekProviderLink{
		WeekId:     weekId,
		ProviderId: providerId,
		TenantId:   tenantId,
		BranchId:   branchId,
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error; err != nil {
		return err
	}

	state := WeekState{
		WeekId:     weekId,
		ProviderId: providerId,
		TenantId:   tenantId,
		BranchId:   branchId,
		Status:     WeekProviderStatusPending,
		UpdatedAt:  time.Now(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&state).Error
}

// ExcludeProviderFromWeek removes the link and its state.
func ExcludeProviderFromWeek(ctx context.Context, weekId string, providerId string) error {

	tenantId, _, err := scopeFromContext(ctx)
	if err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND week_id = ? AND provider_id = ?", tenantId, weekId, providerId).
		Delete(&WeekState{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("tenant_id = ? AND week_id = ? AND provider_id = ?", tenantId, weekId, providerId).
		Delete(&WeekProviderLink{}).Error
}

func SetWeekProviderStatus(ctx context.Context, weekId string, providerId string, status WeekProviderStatus) error {

	tenantId, _, err := scopeFromContext(ctx)
	if err != nil {
		return err
	}
	if !status.IsValid() {
		return errors.New("invalid week state status")
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&WeekState{}).
		Where("tenant_id = ? AND week_id = ? AND provider_id = ?", tenantId, weekId, providerId).
		Updates(map[string]interface{}{
			"Status":    status,
			"UpdatedAt": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func GetWeekProviders(ctx context.Context, weekId string) ([]*Provider, error) {

	tenantId, _, err := scopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*Provider
	err = db.WithContext(ctx).
		Joins("JOIN provider_week_providers pwp ON pwp.provider_id = providers.id").
		Where("pwp.week_id = ? AND providers.tenant_id = ?", weekId, tenantId).
		Order("providers.name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
