package etsy

// ==================== Etsy API v3 响应结构 ====================

// Money Etsy 金额对象，实际金额 = Amount / Divisor
type Money struct {
	Amount       int64  `json:"amount"`
	Divisor      int    `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// ReceiptVariation 交易项变体（买家选择的个性化选项）
type ReceiptVariation struct {
	FormattedName  string `json:"formatted_name"`
	FormattedValue string `json:"formatted_value"`
}

// ReceiptTransaction 收据中的交易项
type ReceiptTransaction struct {
	TransactionID int64              `json:"transaction_id"`
	ListingID     int64              `json:"listing_id"`
	Title         string             `json:"title"`
	SKU           string             `json:"sku"`
	Quantity      int                `json:"quantity"`
	Price         Money              `json:"price"`
	Variations    []ReceiptVariation `json:"variations"`
}

// Receipt Etsy 收据（即订单）
type Receipt struct {
	ReceiptID        int64                `json:"receipt_id"`
	BuyerUserID      int64                `json:"buyer_user_id"`
	BuyerEmail       string               `json:"buyer_email"`
	Name             string               `json:"name"`
	MessageFromBuyer string               `json:"message_from_buyer"`
	Status           string               `json:"status"`
	IsPaid           bool                 `json:"is_paid"`
	IsShipped        bool                 `json:"is_shipped"`
	CreateTimestamp  int64                `json:"create_timestamp"`
	UpdateTimestamp  int64                `json:"update_timestamp"`
	Grandtotal       Money                `json:"grandtotal"`
	Transactions     []ReceiptTransaction `json:"transactions"`
}

// ReceiptsPage 收据分页响应，Count 为满足过滤条件的总数
type ReceiptsPage struct {
	Count   int       `json:"count"`
	Results []Receipt `json:"results"`
}

// User /application/users/me 响应
// 卖家账号会直接带上 shop_id
type User struct {
	UserID int64 `json:"user_id"`
	ShopID int64 `json:"shop_id"`
}

// Shop 店铺信息
type Shop struct {
	ShopID       int64  `json:"shop_id"`
	ShopName     string `json:"shop_name"`
	Title        string `json:"title"`
	CurrencyCode string `json:"currency_code"`
}

// Listing 商品信息
type Listing struct {
	ListingID   int64  `json:"listing_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       string `json:"state"`
}
