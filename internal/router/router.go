package router

import (
	"github.com/gin-gonic/gin"

	"spell_fulfillment_v1_202601/internal/controller"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, etsyCtl *controller.EtsyController) {
	api := r.Group("/api/v1")
	{
		// etsy 集成组
		etsyGroup := api.Group("/etsy")
		{
			auth := etsyGroup.Group("/auth")
			{
				// GET /api/v1/etsy/auth/url
				auth.GET("/url", etsyCtl.GetAuthURL)

				// GET /api/v1/etsy/auth/callback
				// Etsy 授权完成后跳转到这里
				auth.GET("/callback", etsyCtl.Callback)

				auth.GET("/status", etsyCtl.GetStatus)
				auth.POST("/refresh", etsyCtl.Refresh)
				auth.DELETE("/disconnect", etsyCtl.Disconnect)
			}

			// POST /api/v1/etsy/sync
			etsyGroup.POST("/sync", etsyCtl.SyncNow)
			etsyGroup.GET("/rate-limit", etsyCtl.RateLimitStatus)
		}
	}
}
