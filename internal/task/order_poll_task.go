package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"spell_fulfillment_v1_202601/internal/model"
	"spell_fulfillment_v1_202601/pkg/etsy"
)

// OrderSyncer 订单同步能力
type OrderSyncer interface {
	SyncNewOrders(ctx context.Context, minCreated int64) ([]*model.Order, error)
}

// ==================== OrderPollTask 订单轮询任务 ====================

// OrderPollTask 固定间隔调用订单同步的后台任务
// 单轮失败只记日志，不影响后续轮次，也不影响任务自身的启停
type OrderPollTask struct {
	syncer          OrderSyncer
	intervalMinutes int

	mu   sync.Mutex
	cron *cron.Cron
}

// NewOrderPollTask 创建轮询任务，intervalMinutes <= 0 时使用默认 5 分钟
func NewOrderPollTask(syncer OrderSyncer, intervalMinutes int) *OrderPollTask {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &OrderPollTask{
		syncer:          syncer,
		intervalMinutes: intervalMinutes,
	}
}

// Start 启动轮询；已在运行时告警并忽略，不报错
func (t *OrderPollTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron != nil {
		log.Println("[OrderPollTask] 任务已在运行，忽略重复启动")
		return
	}

	c := cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %dm", t.intervalMinutes)
	if _, err := c.AddFunc(spec, t.runCycle); err != nil {
		log.Printf("[OrderPollTask] 定时任务注册失败: %v", err)
		return
	}
	c.Start()
	t.cron = c

	// 启动时先跑一次
	go t.runCycle()

	log.Printf("[OrderPollTask] 已启动 (每 %d 分钟)", t.intervalMinutes)
}

// Stop 停止轮询
// 不等待进行中的同步结束；停止后状态清空，再次 Start 会创建全新实例
func (t *OrderPollTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron == nil {
		return
	}
	t.cron.Stop()
	t.cron = nil
	log.Println("[OrderPollTask] 已停止")
}

// IsRunning 是否运行中
func (t *OrderPollTask) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cron != nil
}

// runCycle 单次轮询
// 任何错误和 panic 都在此处消化，保证调度器存活
func (t *OrderPollTask) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[OrderPollTask] 轮询发生 panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	newOrders, err := t.syncer.SyncNewOrders(ctx, 0)
	switch {
	case errors.Is(err, etsy.ErrSyncInProgress):
		log.Println("[OrderPollTask] 上一轮同步尚未结束，本轮跳过")
	case err != nil:
		log.Printf("[OrderPollTask] 轮询同步失败: %v", err)
	case len(newOrders) > 0:
		log.Printf("[OrderPollTask] 本轮同步新增 %d 个订单", len(newOrders))
	}
}
