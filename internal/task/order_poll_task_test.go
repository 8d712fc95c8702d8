package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"spell_fulfillment_v1_202601/internal/model"
	"spell_fulfillment_v1_202601/pkg/etsy"
)

// countingSyncer 记录调用次数，可注入错误或 panic
type countingSyncer struct {
	calls int32
	err   error
	panic bool
}

func (s *countingSyncer) SyncNewOrders(_ context.Context, _ int64) ([]*model.Order, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.panic {
		panic("sync exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return []*model.Order{{EtsyReceiptID: 9001}}, nil
}

func waitForCalls(t *testing.T, s *countingSyncer, want int32) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if atomic.LoadInt32(&s.calls) >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("等待同步调用超时, calls = %d, want >= %d", atomic.LoadInt32(&s.calls), want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestOrderPollTask_StartStop(t *testing.T) {
	syncer := &countingSyncer{}
	task := NewOrderPollTask(syncer, 5)

	if task.IsRunning() {
		t.Fatal("未启动时 IsRunning 应为 false")
	}

	task.Start()
	if !task.IsRunning() {
		t.Fatal("启动后 IsRunning 应为 true")
	}
	// 启动时立即跑一轮，不用等第一个间隔
	waitForCalls(t, syncer, 1)

	task.Stop()
	if task.IsRunning() {
		t.Fatal("停止后 IsRunning 应为 false")
	}
	// Stop 幂等
	task.Stop()
}

func TestOrderPollTask_DoubleStartIgnored(t *testing.T) {
	syncer := &countingSyncer{}
	task := NewOrderPollTask(syncer, 5)

	task.Start()
	defer task.Stop()
	waitForCalls(t, syncer, 1)

	// 重复启动被忽略，不会叠加调度也不会再跑启动轮
	task.Start()
	time.Sleep(50 * time.Millisecond)
	if calls := atomic.LoadInt32(&syncer.calls); calls != 1 {
		t.Errorf("重复启动后 calls = %d, want 1", calls)
	}
}

func TestOrderPollTask_RestartAfterStop(t *testing.T) {
	syncer := &countingSyncer{}
	task := NewOrderPollTask(syncer, 5)

	task.Start()
	waitForCalls(t, syncer, 1)
	task.Stop()

	task.Start()
	defer task.Stop()
	if !task.IsRunning() {
		t.Fatal("重启后 IsRunning 应为 true")
	}
	waitForCalls(t, syncer, 2)
}

func TestOrderPollTask_CycleSwallowsErrors(t *testing.T) {
	// 同步报错不应影响任务状态
	syncer := &countingSyncer{err: errors.New("etsy is down")}
	task := NewOrderPollTask(syncer, 5)
	task.runCycle()
	if atomic.LoadInt32(&syncer.calls) != 1 {
		t.Fatal("同步应被调用")
	}

	// 上一轮未结束的跳过同样只记日志
	task = NewOrderPollTask(&countingSyncer{err: etsy.ErrSyncInProgress}, 5)
	task.runCycle()
}

func TestOrderPollTask_CycleRecoversPanic(t *testing.T) {
	task := NewOrderPollTask(&countingSyncer{panic: true}, 5)

	// panic 被 runCycle 消化，不应击穿调用方
	task.runCycle()
}

func TestOrderPollTask_DefaultInterval(t *testing.T) {
	task := NewOrderPollTask(&countingSyncer{}, 0)
	if task.intervalMinutes != 5 {
		t.Errorf("intervalMinutes = %d, want 5", task.intervalMinutes)
	}
}
