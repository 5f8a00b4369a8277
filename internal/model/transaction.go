package model

import (
	"fmt"
	"strings"
	"time"
)

// ==================== 托管状态 ====================

// EscrowState 托管交易状态
type EscrowState string

const (
	StatePaymentLocked EscrowState = "payment_locked" // 买家付款已冻结
	StateInspection    EscrowState = "inspection"     // 验货阶段
	StateFinalApproval EscrowState = "final_approval" // 终审阶段
	StateFundsReleased EscrowState = "funds_released" // 放款（终态，成功）
	StateDisputed      EscrowState = "disputed"       // 争议冻结，等待客服裁定
	StateCancelled     EscrowState = "cancelled"      // 取消（终态，失败）
)

// IsTerminal 是否终态
func (s EscrowState) IsTerminal() bool {
	return s == StateFundsReleased || s == StateCancelled
}

// ==================== 托管动作 ====================

// EscrowAction 触发状态迁移的动作
type EscrowAction string

const (
	ActionConfirmSchedule EscrowAction = "confirm_schedule" // 买家确认交接安排
	ActionApproveItem     EscrowAction = "approve_item"     // 买家确认货物相符（资金安全闸门）
	ActionRelease         EscrowAction = "release"          // 买家确认放款 / 系统超时自动放款
	ActionCancel          EscrowAction = "cancel"           // 任一方取消
	ActionDispute         EscrowAction = "dispute"          // 发起争议
	ActionResolveRelease  EscrowAction = "resolve_release"  // 客服裁定：放款
	ActionResolveCancel   EscrowAction = "resolve_cancel"   // 客服裁定：取消退款
)

// 状态迁移表：当前状态 -> 动作 -> 目标状态
var escrowTransitions = map[EscrowState]map[EscrowAction]EscrowState{
	StatePaymentLocked: {
		ActionConfirmSchedule: StateInspection,
		ActionCancel:          StateCancelled,
	},
	StateInspection: {
		ActionApproveItem: StateFinalApproval,
		ActionCancel:      StateCancelled,
		ActionDispute:     StateDisputed,
	},
	StateFinalApproval: {
		ActionRelease: StateFundsReleased,
		ActionCancel:  StateCancelled,
		ActionDispute: StateDisputed,
	},
	StateDisputed: {
		ActionResolveRelease: StateFundsReleased,
		ActionResolveCancel:  StateCancelled,
	},
}

// 动作的目标状态（幂等判定用：已处于目标状态的重放视为无操作成功）
var actionTargets = map[EscrowAction]EscrowState{
	ActionConfirmSchedule: StateInspection,
	ActionApproveItem:     StateFinalApproval,
	ActionRelease:         StateFundsReleased,
	ActionCancel:          StateCancelled,
	ActionDispute:         StateDisputed,
	ActionResolveRelease:  StateFundsReleased,
	ActionResolveCancel:   StateCancelled,
}

// Next 查迁移表，返回目标状态
func (s EscrowState) Next(a EscrowAction) (EscrowState, bool) {
	targets, ok := escrowTransitions[s]
	if !ok {
		return "", false
	}
	next, ok := targets[a]
	return next, ok
}

// Target 动作的目标状态
func (a EscrowAction) Target() (EscrowState, bool) {
	t, ok := actionTargets[a]
	return t, ok
}

// ValidAction 校验动作取值
func ValidAction(a EscrowAction) bool {
	_, ok := actionTargets[a]
	return ok
}

// ==================== EscrowTransaction 实体 ====================

type EscrowTransaction struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	ListingID int64  `gorm:"index;not null" json:"listing_id"`
	BuyerID   int64  `gorm:"index;not null" json:"buyer_id"`
	SellerID  int64  `gorm:"index;not null" json:"seller_id"`

	// 创建时从 Listing.Price 拷贝，后续改价不影响在途交易
	ItemAmount float64 `gorm:"not null" json:"item_amount"`
	ServiceFee float64 `gorm:"not null" json:"service_fee"`

	State EscrowState `gorm:"size:30;index;not null" json:"state"`

	// --- 各阶段进入时间（审计与超时策略用） ---
	PaymentLockedAt time.Time  `json:"payment_locked_at"`
	InspectionAt    *time.Time `json:"inspection_at,omitempty"`
	FinalApprovalAt *time.Time `json:"final_approval_at,omitempty"`
	ReleasedAt      *time.Time `json:"released_at,omitempty"`
	DisputedAt      *time.Time `json:"disputed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EscrowTransaction) TableName() string {
	return "escrow_transactions"
}

// GrandTotal 买家实付总额
func (t *EscrowTransaction) GrandTotal() float64 {
	return t.ItemAmount + t.ServiceFee
}

// Reference 对外展示的订单号，如 TM-3F92A0
func (t *EscrowTransaction) Reference() string {
	short := strings.ToUpper(strings.ReplaceAll(t.ID, "-", ""))
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("TM-%s", short)
}

// MarkState 更新状态并记录进入时间
func (t *EscrowTransaction) MarkState(next EscrowState, now time.Time) {
	t.State = next
	switch next {
	case StateInspection:
		t.InspectionAt = &now
	case StateFinalApproval:
		t.FinalApprovalAt = &now
	case StateFundsReleased:
		t.ReleasedAt = &now
	case StateDisputed:
		t.DisputedAt = &now
	case StateCancelled:
		t.CancelledAt = &now
	}
}

// ==================== TransactionLedger 流水 ====================

// TransactionLedger 状态迁移流水，仅追加，审计与争议处理依据
type TransactionLedger struct {
	ID            int64       `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TransactionID string      `gorm:"size:36;index;not null" json:"transaction_id"`
	FromState     EscrowState `gorm:"size:30" json:"from_state"`
	ToState       EscrowState `gorm:"size:30;not null" json:"to_state"`
	ActorID       int64       `json:"actor_id"`
	ActorRole     string      `gorm:"size:20" json:"actor_role"` // buyer / seller / system
	CreatedAt     time.Time   `json:"created_at"`
}

func (TransactionLedger) TableName() string {
	return "transaction_ledgers"
}
