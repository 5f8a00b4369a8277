package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// ListingRepository 商品仓储接口
type ListingRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	// Update 只写卖家可编辑列，status 永不随写回；
	// 带 WHERE status = 'available'，商品被锁定时返回 ConflictError
	Update(ctx context.Context, listing *model.Listing) error
	// Delete 软删，同样只对在售商品生效
	Delete(ctx context.Context, id int64) error

	// 列表查询
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)
	ListByStatus(ctx context.Context, status model.ListingStatus) ([]model.Listing, error)
	ListBySeller(ctx context.Context, sellerID int64, page, pageSize int) ([]model.Listing, int64, error)

	// SetStatus 带前置状态校验的状态变更（CAS）
	// expected 不匹配时返回 ConflictError，这是托管状态机抢占商品的唯一原语
	SetStatus(ctx context.Context, id int64, expected, next model.ListingStatus) error

	// 事务
	WithTx(tx *gorm.DB) ListingRepository
	Transaction(ctx context.Context, fn func(txRepo ListingRepository) error) error
}

// ==================== 过滤条件 ====================

// ListingFilter 仓储层过滤条件（细粒度筛选由 FilterEngine 在内存中完成）
type ListingFilter struct {
	SellerID int64
	Status   model.ListingStatus
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建商品仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).First(&listing, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("listing", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return &listing, nil
}

// Update 保存卖家编辑结果
// 整行 Save 会把读改写窗口内已过期的 status 写回去（期间买家可能已完成抢占），
// 所以这里只更新可编辑列，并以 WHERE status = 'available' 做 CAS：
// 窗口内商品被托管交易锁定时直接冲突，status 一律只走 SetStatus
func (r *listingRepo) Update(ctx context.Context, listing *model.Listing) error {
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", listing.ID, model.ListingStatusAvailable).
		Select("title", "description", "price", "category", "condition",
			"attributes", "location_name", "latitude", "longitude", "images", "updated_at").
		Updates(listing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, listing.ID)
	}
	return nil
}

func (r *listingRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Where("status = ?", model.ListingStatusAvailable).
		Delete(&model.Listing{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// explainMiss 区分「不存在」与「状态不符」
func (r *listingRepo) explainMiss(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NotFound("listing", strconv.FormatInt(id, 10))
	}
	return errs.Conflict("listing", strconv.FormatInt(id, 10),
		"status is not "+string(model.ListingStatusAvailable))
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	var listings []model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{})

	if filter.SellerID > 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("created_at DESC, id ASC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&listings).Error

	return listings, total, err
}

func (r *listingRepo) ListByStatus(ctx context.Context, status model.ListingStatus) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&listings).Error
	return listings, err
}

func (r *listingRepo) ListBySeller(ctx context.Context, sellerID int64, page, pageSize int) ([]model.Listing, int64, error) {
	return r.List(ctx, ListingFilter{
		SellerID: sellerID,
		Page:     page,
		PageSize: pageSize,
	})
}

// SetStatus 单条 UPDATE 带 WHERE status = expected，天然互斥：
// 两个买家抢同一件商品时只有一条 UPDATE 影响到行，输家拿到 ConflictError
func (r *listingRepo) SetStatus(ctx context.Context, id int64, expected, next model.ListingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 区分「不存在」与「状态不符」
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Listing{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NotFound("listing", strconv.FormatInt(id, 10))
		}
		return errs.Conflict("listing", strconv.FormatInt(id, 10),
			"status is not "+string(expected))
	}
	return nil
}

func (r *listingRepo) WithTx(tx *gorm.DB) ListingRepository {
	return &listingRepo{db: tx}
}

func (r *listingRepo) Transaction(ctx context.Context, fn func(txRepo ListingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
