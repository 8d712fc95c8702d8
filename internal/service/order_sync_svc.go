package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"spell_fulfillment_v1_202601/internal/model"
	"spell_fulfillment_v1_202601/internal/repository"
	"spell_fulfillment_v1_202601/pkg/etsy"
)

// syncPageSize 订单同步单页大小
const syncPageSize = 25

// ==================== OrderSyncService 订单同步 ====================

// OrderSyncService 拉取 Etsy 订单并幂等写入本地库
// 以 receipt_id 为幂等键：已存在的订单在全量同步中直接跳过
type OrderSyncService struct {
	orderRepo repository.OrderRepository
	tokenRepo repository.TokenRepository
	client    *etsy.Client

	// syncMu 防止定时任务与手动触发的同步重叠执行（跳过而非排队）
	syncMu sync.Mutex
}

// NewOrderSyncService 创建订单同步服务
func NewOrderSyncService(
	orderRepo repository.OrderRepository,
	tokenRepo repository.TokenRepository,
	client *etsy.Client,
) *OrderSyncService {
	return &OrderSyncService{
		orderRepo: orderRepo,
		tokenRepo: tokenRepo,
		client:    client,
	}
}

// resolveShopID 取店铺 ID
// 凭证上未缓存时调用 /users/me 获取并回写；拿不到时返回 0（视为未连接店铺，
// 属于预期的空闲状态，不算错误）
func (s *OrderSyncService) resolveShopID(ctx context.Context) (int64, error) {
	token, err := s.tokenRepo.GetCurrent(ctx)
	if err != nil {
		return 0, err
	}
	if token == nil {
		log.Println("[OrderSync] 未找到 Etsy 凭证")
		return 0, nil
	}
	if token.ShopID > 0 {
		return token.ShopID, nil
	}

	me, err := s.client.GetMe(ctx)
	if err != nil {
		log.Printf("[OrderSync] 获取用户信息失败: %v", err)
		return 0, nil
	}
	if me.ShopID == 0 {
		log.Println("[OrderSync] 当前用户没有店铺")
		return 0, nil
	}

	token.ShopID = me.ShopID
	token.UserID = me.UserID
	if err := s.tokenRepo.Update(ctx, token); err != nil {
		return 0, fmt.Errorf("回写店铺 ID 失败: %w", err)
	}
	log.Printf("[OrderSync] 已记录店铺 ID: %d", me.ShopID)
	return me.ShopID, nil
}

// SyncNewOrders 拉取并同步新的已支付订单
// minCreated > 0 时只拉取该 Unix 时间戳之后创建的订单；返回本次新建的订单。
// 同步已在进行时返回 ErrSyncInProgress（跳过，不排队）。
// 分页中途失败不丢弃此前页面已暂存的订单：照常入库并返回，
// 剩余部分靠下次同步的幂等检查补齐
func (s *OrderSyncService) SyncNewOrders(ctx context.Context, minCreated int64) ([]*model.Order, error) {
	if !s.syncMu.TryLock() {
		return nil, etsy.ErrSyncInProgress
	}
	defer s.syncMu.Unlock()

	shopID, err := s.resolveShopID(ctx)
	if err != nil {
		return nil, err
	}
	if shopID == 0 {
		return nil, nil
	}

	log.Printf("[OrderSync] 开始同步店铺 %d 的订单", shopID)

	wasPaid := true
	var staged []*model.Order
	var lookupErr error
	offset := 0

scan:
	for {
		page, err := s.client.GetShopReceipts(ctx, shopID, etsy.ReceiptsQuery{
			MinCreated: minCreated,
			Limit:      syncPageSize,
			Offset:     offset,
			WasPaid:    &wasPaid,
		})
		if err != nil {
			// 中断翻页但保留已暂存的订单
			log.Printf("[OrderSync] 拉取收据失败: %v", err)
			break
		}
		if len(page.Results) == 0 {
			break
		}

		for i := range page.Results {
			receipt := &page.Results[i]
			existing, err := s.orderRepo.GetByEtsyReceiptID(ctx, receipt.ReceiptID)
			if err != nil {
				lookupErr = err
				break scan
			}
			if existing != nil {
				continue
			}
			staged = append(staged, s.parseReceipt(receipt))
			log.Printf("[OrderSync] 发现新订单 receipt %d", receipt.ReceiptID)
		}

		offset += syncPageSize
		if offset >= page.Count {
			break
		}
	}

	if len(staged) > 0 {
		if err := s.orderRepo.CreateBatch(ctx, staged); err != nil {
			return nil, fmt.Errorf("订单批量入库失败: %w", err)
		}
		log.Printf("[OrderSync] 本次同步新增 %d 个订单", len(staged))
	}
	if lookupErr != nil {
		return staged, fmt.Errorf("查询本地订单失败: %w", lookupErr)
	}
	return staged, nil
}

// SyncByReceiptID 定向同步单个订单
// 已存在的订单只刷新买家与定制内容字段，收据 ID 与处理状态保持不变
func (s *OrderSyncService) SyncByReceiptID(ctx context.Context, receiptID int64) (*model.Order, error) {
	shopID, err := s.resolveShopID(ctx)
	if err != nil {
		return nil, err
	}
	if shopID == 0 {
		return nil, etsy.ErrNotAuthenticated
	}

	receipt, err := s.client.GetReceipt(ctx, shopID, receiptID)
	if err != nil {
		return nil, err
	}
	parsed := s.parseReceipt(receipt)

	existing, err := s.orderRepo.GetByEtsyReceiptID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := s.orderRepo.CreateBatch(ctx, []*model.Order{parsed}); err != nil {
			return nil, err
		}
		log.Printf("[OrderSync] 已创建订单 receipt %d", receiptID)
		return parsed, nil
	}

	existing.EtsyListingID = parsed.EtsyListingID
	existing.EtsyTransactionID = parsed.EtsyTransactionID
	existing.CustomerName = parsed.CustomerName
	existing.CustomerEmail = parsed.CustomerEmail
	existing.RawSpellType = parsed.RawSpellType
	existing.Intention = parsed.Intention
	existing.PersonalizationData = parsed.PersonalizationData
	existing.EtsyOrderDate = parsed.EtsyOrderDate
	existing.OrderTotalCents = parsed.OrderTotalCents
	existing.CurrencyCode = parsed.CurrencyCode

	if err := s.orderRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	log.Printf("[OrderSync] 已更新订单 receipt %d", receiptID)
	return existing, nil
}

// ==================== 解析 ====================

// parseReceipt 将 Etsy 收据解析为本地订单（初始状态 pending）
// 许愿内容识别是尽力而为：先找名称含 intention/wish 的变体，
// 找不到时用买家留言兜底；识别失败不影响订单入库
func (s *OrderSyncService) parseReceipt(receipt *etsy.Receipt) *model.Order {
	order := &model.Order{
		EtsyReceiptID: receipt.ReceiptID,
		CustomerName:  receipt.Name,
		CustomerEmail: receipt.BuyerEmail,
		Status:        model.OrderStatusPending,
		CurrencyCode:  "USD",
	}

	if len(receipt.Transactions) > 0 {
		first := receipt.Transactions[0]
		order.EtsyListingID = first.ListingID
		order.EtsyTransactionID = first.TransactionID
		order.RawSpellType = first.Title

		personalization := datatypes.JSONMap{}
		for _, variation := range first.Variations {
			if variation.FormattedName == "" || variation.FormattedValue == "" {
				continue
			}
			personalization[variation.FormattedName] = variation.FormattedValue

			name := strings.ToLower(variation.FormattedName)
			if strings.Contains(name, "intention") || strings.Contains(name, "wish") {
				order.Intention = variation.FormattedValue
			}
		}

		if receipt.MessageFromBuyer != "" {
			personalization["buyer_message"] = receipt.MessageFromBuyer
			if order.Intention == "" {
				order.Intention = receipt.MessageFromBuyer
			}
		}
		if len(personalization) > 0 {
			order.PersonalizationData = personalization
		}
	}

	if receipt.CreateTimestamp > 0 {
		t := time.Unix(receipt.CreateTimestamp, 0).UTC()
		order.EtsyOrderDate = &t
	}
	if receipt.Grandtotal.Amount > 0 {
		order.OrderTotalCents = receipt.Grandtotal.Amount
		if receipt.Grandtotal.CurrencyCode != "" {
			order.CurrencyCode = receipt.Grandtotal.CurrencyCode
		}
	}
	return order
}
