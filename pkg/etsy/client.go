package etsy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL Etsy API v3 基础地址
const DefaultBaseURL = "https://openapi.etsy.com/v3"

// maxPageLimit Etsy 单页结果上限
const maxPageLimit = 100

// TokenSource 提供可用的 access token
// 由 OAuth 服务实现，避免本包反向依赖业务层
type TokenSource interface {
	// ValidAccessToken 返回当前可用的 access token
	// 无可用凭证时返回 ErrNotAuthenticated
	ValidAccessToken(ctx context.Context) (string, error)
}

// ClientConfig 客户端配置
type ClientConfig struct {
	BaseURL string // 留空使用 DefaultBaseURL，测试时指向本地 mock
	APIKey  string // Etsy App 的 keystring，所有请求都带 x-api-key 头
}

// ==================== Client Etsy API v3 客户端 ====================

// Client 带鉴权的 Etsy API 客户端
// 每次请求先过限流器再取有效 Token；收到 401 时重新取一次 Token 重试，
// 仍失败则把错误抛给调用方，不做进一步重试
type Client struct {
	http    *resty.Client
	limiter *RateLimiter
	tokens  TokenSource
	apiKey  string
}

// NewClient 创建客户端
func NewClient(cfg ClientConfig, limiter *RateLimiter, tokens TokenSource) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second)
	return &Client{
		http:    hc,
		limiter: limiter,
		tokens:  tokens,
		apiKey:  cfg.APIKey,
	}
}

// Do 发起带鉴权的请求并把 JSON 响应解析到 out（out 可为 nil）
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	if !c.limiter.Acquire(ctx) {
		return ErrDailyLimitExceeded
	}

	token, err := c.tokens.ValidAccessToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, query, body, token)
	if err != nil {
		return fmt.Errorf("请求 Etsy API 失败: %w", err)
	}

	// 401 说明 Token 可能刚失效：重新解析凭证（内部可能触发刷新）后重试一次
	if resp.StatusCode() == http.StatusUnauthorized {
		log.Println("[EtsyClient] 收到 401，重新获取 Token 后重试")
		token, err = c.tokens.ValidAccessToken(ctx)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, query, body, token)
		if err != nil {
			return fmt.Errorf("请求 Etsy API 失败: %w", err)
		}
	}

	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("解析 Etsy 响应失败: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}, token string) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetHeader("Authorization", "Bearer "+token)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}
	return req.Execute(method, path)
}

// Get 发起 GET 请求
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post 发起 POST 请求
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// ==================== 常用接口封装 ====================

// GetMe 获取当前授权用户信息（含 shop_id）
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/application/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetShop 获取店铺详情
func (c *Client) GetShop(ctx context.Context, shopID int64) (*Shop, error) {
	var shop Shop
	path := fmt.Sprintf("/application/shops/%d", shopID)
	if err := c.Get(ctx, path, nil, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

// ReceiptsQuery 收据查询参数
type ReceiptsQuery struct {
	MinCreated int64 // Unix 秒，0 表示不限
	MaxCreated int64
	Limit      int // 超过 100 会被压到 100
	Offset     int
	WasPaid    *bool
	WasShipped *bool
}

// GetShopReceipts 分页获取店铺收据
// 返回当前页和总数，由调用方决定是否继续翻页
func (c *Client) GetShopReceipts(ctx context.Context, shopID int64, q ReceiptsQuery) (*ReceiptsPage, error) {
	if q.Limit <= 0 {
		q.Limit = 25
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.MinCreated > 0 {
		params.Set("min_created", strconv.FormatInt(q.MinCreated, 10))
	}
	if q.MaxCreated > 0 {
		params.Set("max_created", strconv.FormatInt(q.MaxCreated, 10))
	}
	if q.WasPaid != nil {
		params.Set("was_paid", strconv.FormatBool(*q.WasPaid))
	}
	if q.WasShipped != nil {
		params.Set("was_shipped", strconv.FormatBool(*q.WasShipped))
	}

	var page ReceiptsPage
	path := fmt.Sprintf("/application/shops/%d/receipts", shopID)
	if err := c.Get(ctx, path, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetReceipt 获取单个收据
func (c *Client) GetReceipt(ctx context.Context, shopID, receiptID int64) (*Receipt, error) {
	var receipt Receipt
	path := fmt.Sprintf("/application/shops/%d/receipts/%d", shopID, receiptID)
	if err := c.Get(ctx, path, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetListing 获取商品详情
func (c *Client) GetListing(ctx context.Context, listingID int64) (*Listing, error) {
	var listing Listing
	path := fmt.Sprintf("/application/listings/%d", listingID)
	if err := c.Get(ctx, path, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}
