package etsy

import (
	"errors"
	"fmt"
)

// 预期内的"未就绪"状态，调用方用 errors.Is 判断后按场景降级
var (
	// ErrDailyLimitExceeded 每日配额用尽，次日 UTC 零点后恢复
	ErrDailyLimitExceeded = errors.New("etsy: daily rate limit exceeded")

	// ErrNotAuthenticated 无可用凭证，需要重新走授权流程
	ErrNotAuthenticated = errors.New("etsy: no valid token, please authenticate first")

	// ErrInvalidState OAuth 回调的 state 不存在、已过期或已被使用
	ErrInvalidState = errors.New("etsy: invalid or expired oauth state")

	// ErrSyncInProgress 订单同步正在进行，本次触发被跳过
	ErrSyncInProgress = errors.New("etsy: order sync already in progress")
)

// APIError Etsy API 返回非 2xx（401 自动重试一次后仍失败的也在此列）
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("etsy api error [%d]: %s", e.StatusCode, e.Body)
}

// OAuthError Token 交换或刷新被 Etsy 拒绝
type OAuthError struct {
	StatusCode int
	Message    string
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("etsy oauth error [%d]: %s", e.StatusCode, e.Message)
}
