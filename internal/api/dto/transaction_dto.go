package dto

// ==================== 请求 ====================

// CreateTransactionReq 发起购买请求
type CreateTransactionReq struct {
	ListingID int64 `json:"listing_id" binding:"required"`
}

// TransitionReq 状态迁移请求
type TransitionReq struct {
	Action string `json:"action" binding:"required"`
}

// ==================== 响应 ====================

// TransactionResp 托管交易响应
type TransactionResp struct {
	ID         string  `json:"id"`
	Reference  string  `json:"reference"` // 展示用订单号，如 TM-3F92A0
	ListingID  int64   `json:"listing_id"`
	BuyerID    int64   `json:"buyer_id"`
	SellerID   int64   `json:"seller_id"`
	ItemAmount float64 `json:"item_amount"`
	ServiceFee float64 `json:"service_fee"`
	GrandTotal float64 `json:"grand_total"`
	State      string  `json:"state"`

	PaymentLockedAt string `json:"payment_locked_at"`
	InspectionAt    string `json:"inspection_at,omitempty"`
	FinalApprovalAt string `json:"final_approval_at,omitempty"`
	ReleasedAt      string `json:"released_at,omitempty"`
	DisputedAt      string `json:"disputed_at,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
}

// LedgerEntryResp 流水记录响应
type LedgerEntryResp struct {
	FromState string `json:"from_state,omitempty"`
	ToState   string `json:"to_state"`
	ActorID   int64  `json:"actor_id,omitempty"`
	ActorRole string `json:"actor_role"`
	CreatedAt string `json:"created_at"`
}

// TransactionListResp 交易列表响应
type TransactionListResp struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    []TransactionResp `json:"data"`
	Total   int               `json:"total"`
}
