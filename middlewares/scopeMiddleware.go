package middlewares

import (
	"net/http"

	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/gin-gonic/gin"
)

const (
	HeaderTenantId = "x-tenant-id"
	HeaderBranchId = "x-branch-id"
)

// ScopeMiddleware resolves the (tenant, branch) scope from request headers
// and attaches it to the request context. Every data route requires a scope;
// rows are isolated per scope down in the tenant guard.
func ScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId := c.GetHeader(HeaderTenantId)
		branchId := c.GetHeader(HeaderBranchId)
		if tenantId == "" || branchId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "x-tenant-id and x-branch-id headers are required",
			})
			return
		}
		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		ctx = utils.SetBranchIdInContext(ctx, branchId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
