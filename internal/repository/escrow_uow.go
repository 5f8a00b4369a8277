package repository

import (
	"context"

	"gorm.io/gorm"
)

// EscrowUnitOfWork 托管工作单元（事务）
// 状态机的每次迁移都要同时落：交易状态、商品状态、流水，三者同生共死
type EscrowUnitOfWork struct {
	db           *gorm.DB
	Listings     ListingRepository
	Transactions TransactionRepository
}

// NewEscrowUnitOfWork 创建工作单元
func NewEscrowUnitOfWork(db *gorm.DB) *EscrowUnitOfWork {
	return &EscrowUnitOfWork{
		db:           db,
		Listings:     NewListingRepository(db),
		Transactions: NewTransactionRepository(db),
	}
}

// Transaction 执行事务
func (u *EscrowUnitOfWork) Transaction(ctx context.Context, fn func(uow *EscrowUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUow := &EscrowUnitOfWork{
			db:           tx,
			Listings:     NewListingRepository(tx),
			Transactions: NewTransactionRepository(tx),
		}
		return fn(txUow)
	})
}
