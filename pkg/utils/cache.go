package utils

import (
	"sync"
	"time"
)

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value     string
	expiresAt int64
}

// StateCache 带 TTL 的一次性状态缓存
// 用途：OAuth 授权流程中 state -> verifier 的临时绑定
// 条目要么被 Take 消费（用完即焚），要么过期后被 Sweep/惰性删除
type StateCache struct {
	ttl   time.Duration
	items sync.Map
}

// NewStateCache 创建缓存，ttl 为条目存活时间
func NewStateCache(ttl time.Duration) *StateCache {
	return &StateCache{ttl: ttl}
}

// Set 写入缓存
func (c *StateCache) Set(key, value string) {
	c.items.Store(key, cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl).UnixNano(),
	})
}

// Take 取出并删除条目（一次性消费）
// 不存在或已过期返回 false；过期条目顺手删掉
func (c *StateCache) Take(key string) (string, bool) {
	val, ok := c.items.LoadAndDelete(key)
	if !ok {
		return "", false
	}
	item := val.(cacheItem)
	if time.Now().UnixNano() > item.expiresAt {
		return "", false
	}
	return item.value, true
}

// Sweep 清理所有已过期条目
func (c *StateCache) Sweep() {
	now := time.Now().UnixNano()
	c.items.Range(func(key, val interface{}) bool {
		if now > val.(cacheItem).expiresAt {
			c.items.Delete(key)
		}
		return true
	})
}
