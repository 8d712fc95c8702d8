package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"spell_fulfillment_v1_202601/internal/model"
	"spell_fulfillment_v1_202601/internal/repository"
	"spell_fulfillment_v1_202601/pkg/etsy"
	"spell_fulfillment_v1_202601/pkg/utils"
)

// Etsy OAuth 端点
const (
	EtsyAuthURL  = "https://www.etsy.com/oauth/connect"
	EtsyTokenURL = "https://api.etsy.com/v3/public/oauth/token"
)

const (
	// stateTTL 挂起授权的有效期，超时后 state 作废
	stateTTL = 10 * time.Minute
	// refreshBuffer 临近过期的提前刷新窗口
	refreshBuffer = 5 * time.Minute
)

// OAuthConfig OAuth 配置
// Etsy 的 client_id 就是 App 的 keystring
type OAuthConfig struct {
	APIKey      string
	RedirectURI string // 必须与 Etsy 后台填写的完全一致
	Scopes      string

	// 测试时指向本地 mock，留空使用官方端点
	AuthURL  string
	TokenURL string
}

// ==================== OAuthService Etsy OAuth 2.0 PKCE 流程 ====================

// OAuthService 管理 Etsy OAuth 凭证的完整生命周期：
// 授权链接生成 -> 回调换 Token -> 过期刷新 -> 注销
type OAuthService struct {
	cfg       OAuthConfig
	tokenRepo repository.TokenRepository
	http      *resty.Client
	pending   *utils.StateCache

	// refreshMu 串行化刷新：刷新会轮换 refresh_token，
	// 两个并发刷新中后完成的会让先完成的新凭证失效
	refreshMu sync.Mutex
}

// NewOAuthService 创建 OAuth 服务
func NewOAuthService(cfg OAuthConfig, tokenRepo repository.TokenRepository) *OAuthService {
	if cfg.AuthURL == "" {
		cfg.AuthURL = EtsyAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = EtsyTokenURL
	}
	return &OAuthService{
		cfg:       cfg,
		tokenRepo: tokenRepo,
		http:      resty.New().SetTimeout(30 * time.Second),
		pending:   utils.NewStateCache(stateTTL),
	}
}

// ==================== 授权流程 ====================

// BeginAuthorization 生成授权链接
// 返回 (授权 URL, state)；state 绑定的 verifier 缓存 10 分钟，一次性使用
func (s *OAuthService) BeginAuthorization() (string, string, error) {
	state, err := utils.GenerateRandomString(32)
	if err != nil {
		return "", "", err
	}
	verifier, challenge, err := utils.NewPKCEPair()
	if err != nil {
		return "", "", err
	}

	// 顺手清理过期的挂起授权
	s.pending.Sweep()
	s.pending.Set(state, verifier)

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", s.cfg.APIKey)
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("scope", s.cfg.Scopes)
	params.Set("state", state)
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", "S256")

	log.Printf("[OAuth] 已生成授权链接, state: %s...", state[:8])
	return s.cfg.AuthURL + "?" + params.Encode(), state, nil
}

// CompleteAuthorization 处理回调：校验 state 并用 code 换取 Token
// state 未知或已过期返回 ErrInvalidState；交换被拒绝返回 OAuthError
func (s *OAuthService) CompleteAuthorization(ctx context.Context, code, state string) (*model.EtsyToken, error) {
	verifier, ok := s.pending.Take(state)
	if !ok {
		return nil, etsy.ErrInvalidState
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", s.cfg.APIKey)
	data.Set("redirect_uri", s.cfg.RedirectURI)
	data.Set("code", code)
	data.Set("code_verifier", verifier)

	tokenResp, err := s.postTokenForm(ctx, data)
	if err != nil {
		return nil, err
	}

	tokenType := tokenResp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	token := &model.EtsyToken{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		Scope:        s.cfg.Scopes,
	}

	// 替换旧凭证（单账号系统）
	if err := s.tokenRepo.ReplaceCurrent(ctx, token); err != nil {
		return nil, fmt.Errorf("凭证入库失败: %w", err)
	}

	log.Println("[OAuth] 授权完成，凭证已保存")
	return token, nil
}

// etsyTokenResp Token 端点响应
type etsyTokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// postTokenForm 调用 Token 端点（code 交换与刷新共用）
func (s *OAuthService) postTokenForm(ctx context.Context, data url.Values) (*etsyTokenResp, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(data.Encode()).
		Post(s.cfg.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("token 端点请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, &etsy.OAuthError{StatusCode: resp.StatusCode(), Message: resp.String()}
	}

	var tokenResp etsyTokenResp
	if err := json.Unmarshal(resp.Body(), &tokenResp); err != nil {
		return nil, fmt.Errorf("解析 token 响应失败: %w", err)
	}
	return &tokenResp, nil
}

// ==================== Token 维护 ====================

// Refresh 刷新 Token（access_token 与 refresh_token 同时轮换）
// 失败时调用方应视该凭证为不可用
func (s *OAuthService) Refresh(ctx context.Context, token *model.EtsyToken) (*model.EtsyToken, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx, token)
}

// refreshLocked 实际刷新逻辑，调用方需持有 refreshMu
func (s *OAuthService) refreshLocked(ctx context.Context, token *model.EtsyToken) (*model.EtsyToken, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", s.cfg.APIKey)
	data.Set("refresh_token", token.RefreshToken)

	tokenResp, err := s.postTokenForm(ctx, data)
	if err != nil {
		return nil, err
	}

	token.AccessToken = tokenResp.AccessToken
	token.RefreshToken = tokenResp.RefreshToken
	token.ExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	if err := s.tokenRepo.Update(ctx, token); err != nil {
		return nil, fmt.Errorf("凭证更新失败: %w", err)
	}

	log.Println("[OAuth] Token 刷新成功")
	return token, nil
}

// GetValidToken 获取可用凭证
// 已过期或 5 分钟内将过期时先刷新再返回；
// 无凭证或刷新失败时返回 (nil, nil)，调用方按未认证降级处理
func (s *OAuthService) GetValidToken(ctx context.Context) (*model.EtsyToken, error) {
	token, err := s.tokenRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	if !token.ExpiresWithin(refreshBuffer) {
		return token, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// 拿到锁后重读：并发调用方可能已经完成刷新并轮换了 refresh_token
	token, err = s.tokenRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	if !token.ExpiresWithin(refreshBuffer) {
		return token, nil
	}

	refreshed, err := s.refreshLocked(ctx, token)
	if err != nil {
		log.Printf("[OAuth] Token 刷新失败: %v", err)
		return nil, nil
	}
	return refreshed, nil
}

// ValidAccessToken 实现 etsy.TokenSource
func (s *OAuthService) ValidAccessToken(ctx context.Context) (string, error) {
	token, err := s.GetValidToken(ctx)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", etsy.ErrNotAuthenticated
	}
	return token.AccessToken, nil
}

// RefreshNow 立即刷新当前凭证（手动触发入口）
func (s *OAuthService) RefreshNow(ctx context.Context) (*model.EtsyToken, error) {
	token, err := s.tokenRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, etsy.ErrNotAuthenticated
	}
	return s.Refresh(ctx, token)
}

// Revoke 删除本地凭证，返回是否存在过凭证
func (s *OAuthService) Revoke(ctx context.Context) (bool, error) {
	deleted, err := s.tokenRepo.DeleteAll(ctx)
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		log.Println("[OAuth] 已断开 Etsy 连接")
	}
	return deleted > 0, nil
}

// ==================== 连接状态 ====================

// ConnectionStatus Etsy 连接状态
type ConnectionStatus struct {
	Connected bool       `json:"connected"`
	ShopID    int64      `json:"shop_id,omitempty"`
	UserID    int64      `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsExpired bool       `json:"is_expired"`
}

// Status 查询当前连接状态（不触发刷新）
func (s *OAuthService) Status(ctx context.Context) (*ConnectionStatus, error) {
	token, err := s.tokenRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return &ConnectionStatus{Connected: false}, nil
	}
	return &ConnectionStatus{
		Connected: true,
		ShopID:    token.ShopID,
		UserID:    token.UserID,
		ExpiresAt: &token.ExpiresAt,
		IsExpired: token.IsExpired(),
	}, nil
}
