package server

import (
	"github.com/gin-gonic/gin"

	"github.com/contractdesk/contractdesk/models"
)

// NewGinEngine builds the route table. Every authenticated route passes
// through the token middleware; mutating routes additionally carry a
// permission guard resolved against the caller's grants.
func (s *Server) NewGinEngine() *gin.Engine {
	g := gin.Default()

	api := g.Group("/api/v1")
	api.POST("/login", s.HandleLogin)

	authed := api.Group("", s.TokenMiddleware())
	{
		authed.GET("/me/grants", s.HandleMyGrants)
		authed.GET("/me/context", s.HandleMyContext)

		authed.POST("/permissions/check", s.HandleCheckPermission)
		authed.POST("/permissions/check-any", s.HandleCheckAnyPermission)
		authed.POST("/permissions/check-all", s.HandleCheckAllPermissions)

		contracts := authed.Group("/contracts")
		{
			contracts.GET("", s.RequirePermission("contract", models.ActionRead), s.HandleListContracts)
			contracts.POST("", s.RequirePermission("contract", models.ActionCreateContract), s.HandleCreateContract)
			contracts.GET("/:id", s.RequirePermission("contract", models.ActionRead), s.HandleGetContract)
			contracts.POST("/:id/submit", s.RequirePermission("contract", models.ActionUpdate), s.HandleSubmitContract)
			contracts.POST("/:id/approve", s.RequirePermission("contract", models.ActionApprove), s.HandleApproveContract)
			contracts.GET("/:id/export", s.RequirePermission("report", models.ActionCreateReport), s.HandleExportContract)
			contracts.GET("/:id/collaborators", s.RequirePermission("contract", models.ActionRead), s.HandleListCollaborators)
			contracts.POST("/:id/collaborators", s.RequirePermission("contract", models.ActionAssign), s.HandleAddCollaborator)
			contracts.DELETE("/:id/collaborators/:userId", s.RequirePermission("contract", models.ActionAssign), s.HandleRemoveCollaborator)
		}

		authed.GET("/roles", s.HandleListRoles)
		users := authed.Group("/users")
		{
			users.GET("/:id/roles", s.RequirePermission("role", models.ActionRead), s.HandleListUserRoles)
			users.POST("/:id/roles", s.RequirePermission("role", models.ActionAssign), s.HandleGrantRole)
			users.DELETE("/:id/roles/:mappingId", s.RequirePermission("role", models.ActionAssign), s.HandleRevokeRole)
		}
	}

	return g
}
