package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"spell_fulfillment_v1_202601/internal/service"
	"spell_fulfillment_v1_202601/pkg/etsy"
)

// EtsyController Etsy 集成接口
type EtsyController struct {
	oauthService *service.OAuthService
	syncService  *service.OrderSyncService
	limiter      *etsy.RateLimiter
}

// NewEtsyController 创建控制器
func NewEtsyController(
	oauthService *service.OAuthService,
	syncService *service.OrderSyncService,
	limiter *etsy.RateLimiter,
) *EtsyController {
	return &EtsyController{
		oauthService: oauthService,
		syncService:  syncService,
		limiter:      limiter,
	}
}

// ==================== 授权 ====================

// GetAuthURL 获取 Etsy 授权链接
// GET /api/v1/etsy/auth/url
func (c *EtsyController) GetAuthURL(ctx *gin.Context) {
	authURL, state, err := c.oauthService.BeginAuthorization()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"authorization_url": authURL, "state": state},
	})
}

// Callback Etsy OAuth 回调
// GET /api/v1/etsy/auth/callback
// 无论成败都 302 回设置页，授权失败通过 etsy_error 参数带回，绝不抛 5xx
func (c *EtsyController) Callback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")

	if _, err := c.oauthService.CompleteAuthorization(ctx.Request.Context(), code, state); err != nil {
		ctx.Redirect(http.StatusFound, "/settings?etsy_error="+url.QueryEscape(err.Error()))
		return
	}
	ctx.Redirect(http.StatusFound, "/settings?etsy_connected=true")
}

// GetStatus 查询连接状态
// GET /api/v1/etsy/auth/status
func (c *EtsyController) GetStatus(ctx *gin.Context) {
	status, err := c.oauthService.Status(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": status})
}

// Refresh 手动刷新 Token
// POST /api/v1/etsy/auth/refresh
func (c *EtsyController) Refresh(ctx *gin.Context) {
	token, err := c.oauthService.RefreshNow(ctx.Request.Context())
	switch {
	case errors.Is(err, etsy.ErrNotAuthenticated):
		ctx.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "尚未连接 Etsy，请先完成授权"})
		return
	case err != nil:
		ctx.JSON(http.StatusBadGateway, gin.H{"code": 502, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"expires_at": token.ExpiresAt, "is_expired": token.IsExpired()},
	})
}

// Disconnect 断开 Etsy 连接
// DELETE /api/v1/etsy/auth/disconnect
func (c *EtsyController) Disconnect(ctx *gin.Context) {
	existed, err := c.oauthService.Revoke(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"was_connected": existed},
	})
}

// ==================== 同步 ====================

// SyncNow 手动触发订单同步
// POST /api/v1/etsy/sync
// 可选参数 min_created: Unix 秒，只同步该时间之后创建的订单
func (c *EtsyController) SyncNow(ctx *gin.Context) {
	var minCreated int64
	if raw := ctx.Query("min_created"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 min_created 参数"})
			return
		}
		minCreated = parsed
	}

	newOrders, err := c.syncService.SyncNewOrders(ctx.Request.Context(), minCreated)
	switch {
	case errors.Is(err, etsy.ErrSyncInProgress):
		ctx.JSON(http.StatusConflict, gin.H{"code": 409, "message": "同步正在进行中，请稍后再试"})
		return
	case errors.Is(err, etsy.ErrDailyLimitExceeded):
		ctx.JSON(http.StatusTooManyRequests, gin.H{"code": 429, "message": "今日 API 配额已用尽，请明天重试"})
		return
	case errors.Is(err, etsy.ErrNotAuthenticated):
		ctx.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "尚未连接 Etsy，请先完成授权"})
		return
	case err != nil:
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"new_orders_count":          len(newOrders),
			"daily_api_calls_remaining": c.limiter.DailyRemaining(),
		},
	})
}

// RateLimitStatus 查询限流状态
// GET /api/v1/etsy/rate-limit
func (c *EtsyController) RateLimitStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"daily_remaining": c.limiter.DailyRemaining(),
			"max_per_day":     etsy.MaxPerDay,
			"max_per_second":  etsy.MaxPerSecond,
		},
	})
}
