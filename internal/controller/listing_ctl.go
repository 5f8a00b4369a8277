package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"trustmart_v1_202609/internal/api/dto"
	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/middleware"
	"trustmart_v1_202609/internal/service"
)

type ListingController struct {
	listingService *service.ListingService
}

func NewListingController(listingService *service.ListingService) *ListingController {
	return &ListingController{listingService: listingService}
}

// ==================== 查询接口 ====================

// SearchListings 搜索在售商品
// @Summary 按条件搜索、排序在售商品
// @Tags Listing
// @Param query query string false "标题关键词"
// @Param category query string false "分类，All 或缺省为通配"
// @Param condition query string false "成色，All 或缺省为通配"
// @Param post_type query string false "发布类型，All 或缺省为通配"
// @Param min_price query number false "最低价（含）"
// @Param max_price query number false "最高价（含）"
// @Param sort_by query string false "Newest / PriceLowToHigh / PriceHighToLow / Nearest" default(Newest)
// @Param lat query number false "调用方纬度"
// @Param lng query number false "调用方经度"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ListingListResp
// @Router /api/listings [get]
func (ctrl *ListingController) SearchListings(c *gin.Context) {
	criteria := service.FilterCriteria{
		Query:     c.Query("query"),
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
		PostType:  c.Query("post_type"),
		SortBy:    service.SortMode(c.DefaultQuery("sort_by", string(service.SortNewest))),
	}

	var parseErr error
	criteria.MinPrice, parseErr = parseFloatQuery(c, "min_price")
	if parseErr != nil {
		writeError(c, parseErr)
		return
	}
	criteria.MaxPrice, parseErr = parseFloatQuery(c, "max_price")
	if parseErr != nil {
		writeError(c, parseErr)
		return
	}
	criteria.OriginLat, parseErr = parseFloatQuery(c, "lat")
	if parseErr != nil {
		writeError(c, parseErr)
		return
	}
	criteria.OriginLng, parseErr = parseFloatQuery(c, "lng")
	if parseErr != nil {
		writeError(c, parseErr)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	ctx := c.Request.Context()
	result, err := ctrl.listingService.Search(ctx, criteria, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	respList := make([]dto.ListingResp, 0, len(result.Results))
	for i := range result.Results {
		r := &result.Results[i]
		respList = append(respList, ctrl.listingService.ToListingResp(&r.Listing, r.DistanceKm))
	}

	c.JSON(200, dto.ListingListResp{
		Code:     0,
		Message:  "success",
		Data:     respList,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// GetListing 获取商品详情
// @Summary 获取单个商品详情
// @Tags Listing
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ListingResp
// @Router /api/listings/{id} [get]
func (ctrl *ListingController) GetListing(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	listing, err := ctrl.listingService.GetListing(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    ctrl.listingService.ToListingResp(listing, nil),
	})
}

// GetMyListings 获取当前卖家的商品
// @Summary 获取当前卖家发布的全部商品
// @Tags Listing
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ListingListResp
// @Router /api/listings/mine [get]
func (ctrl *ListingController) GetMyListings(c *gin.Context) {
	sellerID := middleware.GetActorID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	ctx := c.Request.Context()
	listings, total, err := ctrl.listingService.ListMine(ctx, sellerID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	respList := make([]dto.ListingResp, 0, len(listings))
	for i := range listings {
		respList = append(respList, ctrl.listingService.ToListingResp(&listings[i], nil))
	}

	c.JSON(200, dto.ListingListResp{
		Code:     0,
		Message:  "success",
		Data:     respList,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ==================== CRUD 接口 ====================

// CreateListing 发布商品
// @Summary 发布商品，状态固定为在售
// @Tags Listing
// @Accept json
// @Produce json
// @Param body body dto.CreateListingReq true "商品信息"
// @Success 201 {object} dto.ListingResp
// @Router /api/listings [post]
func (ctrl *ListingController) CreateListing(c *gin.Context) {
	var req dto.CreateListingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	listing, err := ctrl.listingService.CreateListing(ctx, middleware.GetActorID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"code":    0,
		"message": "success",
		"data":    ctrl.listingService.ToListingResp(listing, nil),
	})
}

// UpdateListing 更新商品
// @Summary 更新商品信息（仅卖家本人，商品在售时）
// @Tags Listing
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param body body dto.UpdateListingReq true "更新内容"
// @Success 200 {object} dto.ListingResp
// @Router /api/listings/{id} [put]
func (ctrl *ListingController) UpdateListing(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req dto.UpdateListingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	listing, err := ctrl.listingService.UpdateListing(ctx, middleware.GetActorID(c), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "更新成功",
		"data":    ctrl.listingService.ToListingResp(listing, nil),
	})
}

// DeleteListing 删除商品
// @Summary 删除商品（软删，仅在售商品）
// @Tags Listing
// @Param id path int true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/listings/{id} [delete]
func (ctrl *ListingController) DeleteListing(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := ctrl.listingService.DeleteListing(ctx, middleware.GetActorID(c), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "删除成功"})
}

// ==================== 参数解析 ====================

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation("id", "invalid listing id")
	}
	return id, nil
}

func parseFloatQuery(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errs.Validation(name, "must be a number")
	}
	return &v, nil
}
