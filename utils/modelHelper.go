package utils

import (
	"context"

	"bitbucket.org/surdata/pedidos_backend/config"
)

// fetch from db scoped to tenant, preloading the given associations
// (may return ErrorRecordNotFound)
func FetchModel[T any](ctx context.Context, tenantId string, id string, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.Where("id = ?", id).First(&result).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}
