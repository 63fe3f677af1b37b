package router

import (
	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	mdw "causebridge/internal/transport/http/middleware"
)

// mountAdmin puts every admin module under /api/admin behind the admin role.
func mountAdmin(api *gin.RouterGroup, reg *Registry) {
	admin := api.Group("/admin")
	admin.Use(mdw.RequireRole(domain.RoleAdmin))
	reg.MountAdmin(admin)
}
