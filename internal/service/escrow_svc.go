package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
	"trustmart_v1_202609/internal/repository"
	"trustmart_v1_202609/pkg/utils"
)

// ==================== 操作者 ====================

// Actor 操作者：外部认证层给的不透明 id，这里只比对 buyer/seller，不做鉴权
type Actor struct {
	ID     int64
	System bool
}

// SystemActor 系统操作者（超时自动放款、客服裁定）
var SystemActor = Actor{System: true}

// role 在某笔交易中的角色
func (a Actor) role(txn *model.EscrowTransaction) string {
	switch {
	case a.System:
		return "system"
	case a.ID == txn.BuyerID:
		return "buyer"
	case a.ID == txn.SellerID:
		return "seller"
	}
	return ""
}

// ==================== EscrowService ====================

// EscrowConfig 托管策略配置
type EscrowConfig struct {
	ServiceFee        float64       // 固定服务费
	AutoReleaseWindow time.Duration // 终审阶段超过该时长无操作则自动放款
}

// EscrowService 托管交易状态机
// 唯一能改 Listing.Status 的组件；每次成功迁移在同一事务内追加流水
type EscrowService struct {
	uow     *repository.EscrowUnitOfWork
	gateway PaymentGateway
	cache   *utils.TTLCache
	cfg     *EscrowConfig
	logger  *zap.Logger
}

// NewEscrowService 创建托管服务
func NewEscrowService(uow *repository.EscrowUnitOfWork, gateway PaymentGateway,
	cache *utils.TTLCache, cfg *EscrowConfig, logger *zap.Logger) *EscrowService {
	if cfg == nil {
		cfg = &EscrowConfig{ServiceFee: 2.50, AutoReleaseWindow: 72 * time.Hour}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscrowService{
		uow:     uow,
		gateway: gateway,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

// ==================== 创建交易 ====================

// CreateTransaction 买家对在售商品发起购买
// 对 Listing.Status 做 Available -> Reserved 的 CAS，两个买家抢购时只有一个成功
func (s *EscrowService) CreateTransaction(ctx context.Context, listingID, buyerID int64) (*model.EscrowTransaction, error) {
	listing, err := s.uow.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == buyerID {
		return nil, errs.Validation("buyer_id", "cannot buy your own listing")
	}

	now := time.Now()
	txn := &model.EscrowTransaction{
		ID:              uuid.NewString(),
		ListingID:       listing.ID,
		BuyerID:         buyerID,
		SellerID:        listing.SellerID,
		ItemAmount:      listing.Price, // 此后改价不影响在途交易
		ServiceFee:      s.cfg.ServiceFee,
		State:           model.StatePaymentLocked,
		PaymentLockedAt: now,
	}

	err = s.uow.Transaction(ctx, func(u *repository.EscrowUnitOfWork) error {
		// CAS 抢占，输家在这里拿到 ConflictError
		if err := u.Listings.SetStatus(ctx, listing.ID, model.ListingStatusAvailable, model.ListingStatusReserved); err != nil {
			return err
		}
		if err := u.Transactions.Create(ctx, txn); err != nil {
			return err
		}
		if err := u.Transactions.AppendLedger(ctx, &model.TransactionLedger{
			TransactionID: txn.ID,
			FromState:     "",
			ToState:       model.StatePaymentLocked,
			ActorID:       buyerID,
			ActorRole:     "buyer",
		}); err != nil {
			return err
		}
		// 冻结资金失败则整体回滚，商品回到在售
		return s.gateway.Lock(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.flushCache()
	s.logger.Info("托管交易已创建",
		zap.String("transaction_id", txn.ID),
		zap.Int64("listing_id", listing.ID),
		zap.Int64("buyer_id", buyerID))
	return txn, nil
}

// ==================== 查询 ====================

// GetTransaction 查询交易详情，仅交易双方与系统可见
func (s *EscrowService) GetTransaction(ctx context.Context, id string, actor Actor) (*model.EscrowTransaction, error) {
	txn, err := s.uow.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 无关方按不存在处理，避免泄漏交易存在性
	if actor.role(txn) == "" {
		return nil, errs.NotFound("transaction", id)
	}
	return txn, nil
}

// ListByActor 查询某人参与的全部交易（买方或卖方）
func (s *EscrowService) ListByActor(ctx context.Context, actorID int64) ([]model.EscrowTransaction, error) {
	return s.uow.Transactions.ListByParty(ctx, actorID)
}

// Ledger 查询交易的状态迁移流水
func (s *EscrowService) Ledger(ctx context.Context, id string, actor Actor) ([]model.TransactionLedger, error) {
	if _, err := s.GetTransaction(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.uow.Transactions.ListLedger(ctx, id)
}

// ==================== 状态迁移 ====================

// Transition 状态机核心入口
// 全有或全无：交易状态、商品状态、流水、支付指令在同一事务内成功或一起回滚
func (s *EscrowService) Transition(ctx context.Context, txnID string, action model.EscrowAction, actor Actor) (*model.EscrowTransaction, error) {
	if !model.ValidAction(action) {
		return nil, errs.Validation("action", "unknown action "+string(action))
	}

	txn, err := s.uow.Transactions.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}

	role := actor.role(txn)
	if role == "" {
		return nil, errs.InvalidTransition(txnID, string(txn.State), string(action),
			"actor has no standing on this transaction")
	}
	if !actionAllowedFor(action, role) {
		return nil, errs.InvalidTransition(txnID, string(txn.State), string(action),
			role+" may not perform this action")
	}

	// 幂等：已处于目标状态的重放是无操作成功，不追加流水（支持至少一次投递）
	target, _ := action.Target()
	if txn.State == target {
		return txn, nil
	}

	if txn.State.IsTerminal() {
		return nil, errs.InvalidTransition(txnID, string(txn.State), string(action),
			"transaction is in a terminal state")
	}
	next, ok := txn.State.Next(action)
	if !ok {
		return nil, errs.InvalidTransition(txnID, string(txn.State), string(action),
			"action not legal from current state")
	}

	from := txn.State
	now := time.Now()

	err = s.uow.Transaction(ctx, func(u *repository.EscrowUnitOfWork) error {
		// 交易状态本身也走 CAS，并发迁移只有一个生效
		if err := u.Transactions.CasState(ctx, txn.ID, from, next, now); err != nil {
			return err
		}

		// 商品状态与支付指令随终态联动
		switch next {
		case model.StateFundsReleased:
			if err := u.Listings.SetStatus(ctx, txn.ListingID, model.ListingStatusReserved, model.ListingStatusSold); err != nil {
				return err
			}
			if err := s.gateway.Release(ctx, txn); err != nil {
				return err
			}
		case model.StateCancelled:
			if err := u.Listings.SetStatus(ctx, txn.ListingID, model.ListingStatusReserved, model.ListingStatusAvailable); err != nil {
				return err
			}
			if err := s.gateway.Refund(ctx, txn); err != nil {
				return err
			}
		}

		return u.Transactions.AppendLedger(ctx, &model.TransactionLedger{
			TransactionID: txn.ID,
			FromState:     from,
			ToState:       next,
			ActorID:       actor.ID,
			ActorRole:     role,
		})
	})
	if err != nil {
		// CAS 输给了并发迁移：重读一次，若对方已把交易带到同一目标状态则按幂等处理
		var conflict *errs.ConflictError
		if errors.As(err, &conflict) && conflict.Entity == "transaction" {
			current, rerr := s.uow.Transactions.GetByID(ctx, txnID)
			if rerr == nil && current.State == target {
				return current, nil
			}
			return nil, errs.InvalidTransition(txnID, string(from), string(action),
				"lost transition race")
		}
		return nil, err
	}

	txn.MarkState(next, now)
	if next.IsTerminal() {
		s.flushCache()
	}
	s.logger.Info("托管交易状态迁移",
		zap.String("transaction_id", txn.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
		zap.String("actor_role", role))
	return txn, nil
}

// actionAllowedFor 动作与角色的资格表
func actionAllowedFor(action model.EscrowAction, role string) bool {
	switch action {
	case model.ActionConfirmSchedule, model.ActionApproveItem:
		return role == "buyer"
	case model.ActionRelease:
		// 买家确认放款，或系统超时自动放款
		return role == "buyer" || role == "system"
	case model.ActionCancel, model.ActionDispute:
		return role == "buyer" || role == "seller"
	case model.ActionResolveRelease, model.ActionResolveCancel:
		return role == "system"
	}
	return false
}

// ==================== 超时自动放款 ====================

// ReleaseExpired 扫描终审阶段停留超期的交易并以系统身份放款
// 由定时任务驱动；单笔失败只记日志，下一轮重试
func (s *EscrowService) ReleaseExpired(ctx context.Context, batchSize int) (int, error) {
	cutoff := time.Now().Add(-s.cfg.AutoReleaseWindow)
	txns, err := s.uow.Transactions.ListExpiredApprovals(ctx, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range txns {
		if _, err := s.Transition(ctx, txns[i].ID, model.ActionRelease, SystemActor); err != nil {
			s.logger.Warn("自动放款失败",
				zap.String("transaction_id", txns[i].ID),
				zap.Error(err))
			continue
		}
		released++
	}
	return released, nil
}

// flushCache 商品可购状态变化后失效搜索缓存
func (s *EscrowService) flushCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

