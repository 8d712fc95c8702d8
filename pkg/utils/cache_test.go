package utils

import (
	"testing"
	"time"
)

func TestStateCache_TakeOnce(t *testing.T) {
	c := NewStateCache(time.Minute)
	c.Set("state-1", "verifier-1")

	val, ok := c.Take("state-1")
	if !ok || val != "verifier-1" {
		t.Fatalf("Take = (%q, %v)", val, ok)
	}

	// 一次性消费：第二次取不到
	if _, ok := c.Take("state-1"); ok {
		t.Error("重复 Take 应失败")
	}
}

func TestStateCache_MissingKey(t *testing.T) {
	c := NewStateCache(time.Minute)
	if _, ok := c.Take("nonexistent"); ok {
		t.Error("不存在的键应返回 false")
	}
}

func TestStateCache_Expiry(t *testing.T) {
	// 负 TTL 使条目写入即过期
	c := NewStateCache(-time.Second)
	c.Set("state-1", "verifier-1")

	if _, ok := c.Take("state-1"); ok {
		t.Error("过期条目不应被取出")
	}
}

func TestStateCache_Sweep(t *testing.T) {
	c := NewStateCache(-time.Second)
	c.Set("expired-1", "v1")
	c.Set("expired-2", "v2")
	c.Sweep()

	count := 0
	c.items.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	if count != 0 {
		t.Errorf("Sweep 后残留 %d 条", count)
	}

	// 未过期条目不受影响
	c2 := NewStateCache(time.Minute)
	c2.Set("live", "v")
	c2.Sweep()
	if val, ok := c2.Take("live"); !ok || val != "v" {
		t.Error("Sweep 不应清理未过期条目")
	}
}
