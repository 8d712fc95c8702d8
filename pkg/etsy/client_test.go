package etsy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// staticTokenSource 固定返回同一个 token，便于观察调用次数
type staticTokenSource struct {
	token string
	err   error
	calls int32
}

func (s *staticTokenSource) ValidAccessToken(_ context.Context) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func newTestClient(baseURL string, tokens TokenSource) *Client {
	return NewClient(ClientConfig{BaseURL: baseURL, APIKey: "test-key"}, newTestLimiter(), tokens)
}

func TestClient_RetryOn401ThenSuccess(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("缺少 x-api-key 头")
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id": 42, "shop_id": 7}`))
	}))
	defer srv.Close()

	tokens := &staticTokenSource{token: "tok-1"}
	c := newTestClient(srv.URL, tokens)

	user, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if user.UserID != 42 || user.ShopID != 7 {
		t.Errorf("user = %+v", user)
	}
	if hits != 2 {
		t.Errorf("服务端收到 %d 次请求, want 2", hits)
	}
	if tokens.calls != 2 {
		t.Errorf("token 获取 %d 次, want 2（首次 + 401 重试）", tokens.calls)
	}
}

func TestClient_RetryOn401OnlyOnce(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &staticTokenSource{token: "tok-1"})

	_, err := c.GetMe(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
	// 重试严格一次，不会打第三次
	if hits != 2 {
		t.Errorf("服务端收到 %d 次请求, want 2", hits)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &staticTokenSource{token: "tok-1"})

	_, err := c.GetMe(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Body != "boom" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClient_DailyLimitFailFast(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &staticTokenSource{token: "tok-1"}
	c := newTestClient(srv.URL, tokens)
	c.limiter.mu.Lock()
	c.limiter.dailyCount = MaxPerDay
	c.limiter.dailyReset = c.limiter.now().UTC()
	c.limiter.mu.Unlock()

	_, err := c.GetMe(context.Background())
	if !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("want ErrDailyLimitExceeded, got %v", err)
	}
	// 配额用尽时既不取 Token 也不发请求
	if hits != 0 {
		t.Errorf("服务端收到 %d 次请求, want 0", hits)
	}
	if tokens.calls != 0 {
		t.Errorf("token 获取 %d 次, want 0", tokens.calls)
	}
}

func TestClient_NoTokenSurfacesError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &staticTokenSource{err: ErrNotAuthenticated})

	_, err := c.GetMe(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
	if hits != 0 {
		t.Errorf("服务端收到 %d 次请求, want 0", hits)
	}
}

func TestClient_ReceiptsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "100" {
			t.Errorf("limit = %q, want 100（超上限应被压到 100）", q.Get("limit"))
		}
		if q.Get("offset") != "50" {
			t.Errorf("offset = %q", q.Get("offset"))
		}
		if q.Get("min_created") != "1700000000" {
			t.Errorf("min_created = %q", q.Get("min_created"))
		}
		if q.Get("was_paid") != "true" {
			t.Errorf("was_paid = %q", q.Get("was_paid"))
		}
		if q.Has("max_created") || q.Has("was_shipped") {
			t.Errorf("零值参数不应出现在查询串中: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 1, "results": [{"receipt_id": 9}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &staticTokenSource{token: "tok-1"})

	paid := true
	page, err := c.GetShopReceipts(context.Background(), 7, ReceiptsQuery{
		MinCreated: 1700000000,
		Limit:      500,
		Offset:     50,
		WasPaid:    &paid,
	})
	if err != nil {
		t.Fatalf("GetShopReceipts: %v", err)
	}
	if page.Count != 1 || len(page.Results) != 1 || page.Results[0].ReceiptID != 9 {
		t.Errorf("page = %+v", page)
	}
}
