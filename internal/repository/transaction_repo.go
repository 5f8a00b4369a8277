package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// TransactionRepository 托管交易仓储接口
type TransactionRepository interface {
	// 交易
	Create(ctx context.Context, txn *model.EscrowTransaction) error
	GetByID(ctx context.Context, id string) (*model.EscrowTransaction, error)
	Update(ctx context.Context, txn *model.EscrowTransaction) error
	GetActiveByListing(ctx context.Context, listingID int64) (*model.EscrowTransaction, error)
	ListByParty(ctx context.Context, actorID int64) ([]model.EscrowTransaction, error)
	ListExpiredApprovals(ctx context.Context, before time.Time, limit int) ([]model.EscrowTransaction, error)

	// CasState 带前置状态校验的状态变更（CAS），同时落阶段时间戳
	// 当前状态不是 from 时返回 ConflictError，并发重放由上层按幂等规则消化
	CasState(ctx context.Context, id string, from, to model.EscrowState, enteredAt time.Time) error

	// 流水（仅追加）
	AppendLedger(ctx context.Context, rec *model.TransactionLedger) error
	ListLedger(ctx context.Context, txnID string) ([]model.TransactionLedger, error)

	// 事务
	WithTx(tx *gorm.DB) TransactionRepository
	Transaction(ctx context.Context, fn func(txRepo TransactionRepository) error) error
}

// ==================== 仓储实现 ====================

type transactionRepo struct {
	db *gorm.DB
}

// NewTransactionRepository 创建托管交易仓储
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, txn *model.EscrowTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*model.EscrowTransaction, error) {
	var txn model.EscrowTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("transaction", id)
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) Update(ctx context.Context, txn *model.EscrowTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

// GetActiveByListing 查询商品上未到终态的交易
// 不变式：一件商品同一时刻至多一笔非终态交易
func (r *transactionRepo) GetActiveByListing(ctx context.Context, listingID int64) (*model.EscrowTransaction, error) {
	var txn model.EscrowTransaction
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND state NOT IN ?", listingID,
			[]model.EscrowState{model.StateFundsReleased, model.StateCancelled}).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) ListByParty(ctx context.Context, actorID int64) ([]model.EscrowTransaction, error) {
	var txns []model.EscrowTransaction
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", actorID, actorID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}

// ListExpiredApprovals 终审阶段停留超期的交易，供自动放款任务扫描
func (r *transactionRepo) ListExpiredApprovals(ctx context.Context, before time.Time, limit int) ([]model.EscrowTransaction, error) {
	var txns []model.EscrowTransaction
	err := r.db.WithContext(ctx).
		Where("state = ? AND final_approval_at < ?", model.StateFinalApproval, before).
		Order("final_approval_at ASC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepo) CasState(ctx context.Context, id string, from, to model.EscrowState, enteredAt time.Time) error {
	updates := map[string]interface{}{
		"state":      to,
		"updated_at": time.Now(),
	}
	if col := stageColumn(to); col != "" {
		updates[col] = enteredAt
	}

	res := r.db.WithContext(ctx).
		Model(&model.EscrowTransaction{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.EscrowTransaction{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NotFound("transaction", id)
		}
		return errs.Conflict("transaction", id, "state is not "+string(from))
	}
	return nil
}

// stageColumn 状态对应的进入时间列
func stageColumn(s model.EscrowState) string {
	switch s {
	case model.StateInspection:
		return "inspection_at"
	case model.StateFinalApproval:
		return "final_approval_at"
	case model.StateFundsReleased:
		return "released_at"
	case model.StateDisputed:
		return "disputed_at"
	case model.StateCancelled:
		return "cancelled_at"
	}
	return ""
}

func (r *transactionRepo) AppendLedger(ctx context.Context, rec *model.TransactionLedger) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *transactionRepo) ListLedger(ctx context.Context, txnID string) ([]model.TransactionLedger, error) {
	var recs []model.TransactionLedger
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txnID).
		Order("id ASC").
		Find(&recs).Error
	return recs, err
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{db: tx}
}

func (r *transactionRepo) Transaction(ctx context.Context, fn func(txRepo TransactionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
