package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trustmart_v1_202609/internal/api/dto"
	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
	"trustmart_v1_202609/internal/repository"
	"trustmart_v1_202609/pkg/utils"
)

// 搜索缓存的保鲜时间，商品状态一变整体失效
const searchCacheTTL = 30 * time.Second

// ==================== ListingService ====================

// ListingService 商品服务：CRUD + 搜索编排
// 不碰 Listing.Status，状态只归托管状态机管
type ListingService struct {
	repo   repository.ListingRepository
	engine *FilterEngine
	cache  *utils.TTLCache
}

// NewListingService 创建商品服务
func NewListingService(repo repository.ListingRepository, engine *FilterEngine, cache *utils.TTLCache) *ListingService {
	return &ListingService{
		repo:   repo,
		engine: engine,
		cache:  cache,
	}
}

// ==================== 创建 ====================

// CreateListing 创建商品，入库前完成全部校验，状态固定为在售
func (s *ListingService) CreateListing(ctx context.Context, sellerID int64, req *dto.CreateListingReq) (*model.Listing, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errs.Validation("title", "must not be empty")
	}
	if req.Price == nil || *req.Price < 0 {
		return nil, errs.Validation("price", "must be non-negative")
	}

	postType := model.PostType(req.PostType)
	if !model.ValidPostType(postType) {
		return nil, errs.Validation("post_type", "unknown post type "+req.PostType)
	}

	condition := model.Condition(req.Condition)
	if req.Condition != "" {
		if !postType.HasCondition() {
			return nil, errs.Validation("condition", "only product/farmer listings carry condition")
		}
		if !model.ValidCondition(condition) {
			return nil, errs.Validation("condition", "unknown condition "+req.Condition)
		}
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, errs.Validation("location", "latitude and longitude must be provided together")
	}

	attrs, err := model.EncodeAttributes(postType, req.ServiceAttrs, req.FarmerAttrs, req.StudentAttrs)
	if err != nil {
		return nil, errs.Validation("attributes", err.Error())
	}

	listing := &model.Listing{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Price:        *req.Price,
		Category:     req.Category,
		PostType:     postType,
		Condition:    condition,
		Attributes:   attrs,
		LocationName: req.LocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		SellerID:     sellerID,
		Status:       model.ListingStatusAvailable,
		Images:       req.Images,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return listing, nil
}

// ==================== 查询 ====================

// GetListing 商品详情
func (s *ListingService) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchPage 一页搜索结果
type SearchPage struct {
	Results  []SearchResult
	Total    int64
	Page     int
	PageSize int
}

// Search 搜索在售商品：仓储取数 -> 内存筛选引擎 -> 距离附加 -> 切页
// 命中缓存时跳过取数与筛选（起点坐标不同的请求各自成键）
func (s *ListingService) Search(ctx context.Context, criteria FilterCriteria, page, pageSize int) (*SearchPage, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	key := searchCacheKey(criteria)
	var ranked []SearchResult
	if cached, ok := s.cache.Get(key); ok {
		ranked = cached.([]SearchResult)
	} else {
		listings, err := s.repo.ListByStatus(ctx, model.ListingStatusAvailable)
		if err != nil {
			return nil, err
		}
		ranked, err = s.engine.Search(listings, criteria)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, ranked, searchCacheTTL)
	}

	return &SearchPage{
		Results:  Paginate(ranked, page, pageSize),
		Total:    int64(len(ranked)),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ListMine 卖家本人的商品（含已锁定/已售出）
func (s *ListingService) ListMine(ctx context.Context, sellerID int64, page, pageSize int) ([]model.Listing, int64, error) {
	return s.repo.ListBySeller(ctx, sellerID, page, pageSize)
}

// ==================== 更新与删除 ====================

// UpdateListing 更新商品，仅卖家本人，且商品未被托管交易锁定
func (s *ListingService) UpdateListing(ctx context.Context, sellerID, id int64, req *dto.UpdateListingReq) (*model.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, errs.NotFound("listing", strconv.FormatInt(id, 10))
	}
	if listing.Status != model.ListingStatusAvailable {
		return nil, errs.Conflict("listing", strconv.FormatInt(id, 10),
			"cannot modify a listing that is "+string(listing.Status))
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, errs.Validation("title", "must not be empty")
		}
		listing.Title = strings.TrimSpace(*req.Title)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, errs.Validation("price", "must be non-negative")
		}
		listing.Price = *req.Price
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Category != nil {
		listing.Category = *req.Category
	}
	if req.Condition != nil {
		cond := model.Condition(*req.Condition)
		if !listing.PostType.HasCondition() {
			return nil, errs.Validation("condition", "only product/farmer listings carry condition")
		}
		if !model.ValidCondition(cond) {
			return nil, errs.Validation("condition", "unknown condition "+*req.Condition)
		}
		listing.Condition = cond
	}
	if req.LocationName != nil {
		listing.LocationName = *req.LocationName
	}
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return nil, errs.Validation("location", "latitude and longitude must be provided together")
		}
		listing.Latitude = req.Latitude
		listing.Longitude = req.Longitude
	}
	if req.Images != nil {
		listing.Images = req.Images
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return listing, nil
}

// DeleteListing 下架删除（软删），仅在售商品可删
func (s *ListingService) DeleteListing(ctx context.Context, sellerID, id int64) error {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return errs.NotFound("listing", strconv.FormatInt(id, 10))
	}
	if listing.Status != model.ListingStatusAvailable {
		return errs.Conflict("listing", strconv.FormatInt(id, 10),
			"cannot delete a listing that is "+string(listing.Status))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

// ==================== 转换 ====================

// ToListingResp 实体转响应
func (s *ListingService) ToListingResp(l *model.Listing, distanceKm *float64) dto.ListingResp {
	resp := dto.ListingResp{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Category:     l.Category,
		Condition:    string(l.Condition),
		PostType:     string(l.PostType),
		LocationName: l.LocationName,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		SellerID:     l.SellerID,
		Status:       string(l.Status),
		Images:       l.Images,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
		DistanceKm:   distanceKm,
	}
	if len(l.Attributes) > 0 {
		var attrs any
		if err := json.Unmarshal(l.Attributes, &attrs); err == nil {
			resp.Attributes = attrs
		}
	}
	return resp
}

// searchCacheKey 筛选条件的缓存键
func searchCacheKey(c FilterCriteria) string {
	f := func(p *float64) string {
		if p == nil {
			return "-"
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	return fmt.Sprintf("search:%s|%s|%s|%s|%s~%s|%s|%s,%s",
		strings.ToLower(c.Query), c.Category, c.Condition, c.PostType,
		f(c.MinPrice), f(c.MaxPrice), c.SortBy, f(c.OriginLat), f(c.OriginLng))
}
