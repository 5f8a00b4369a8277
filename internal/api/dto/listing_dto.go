package dto

import "trustmart_v1_202609/internal/model"

// ==================== 请求 ====================

// CreateListingReq 创建商品请求
type CreateListingReq struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	PostType    string   `json:"post_type" binding:"required"`

	// 按 post_type 取对应一组，跨类型传入会被拒绝
	ServiceAttrs *model.ServiceAttributes `json:"service_attrs,omitempty"`
	FarmerAttrs  *model.FarmerAttributes  `json:"farmer_attrs,omitempty"`
	StudentAttrs *model.StudentAttributes `json:"student_attrs,omitempty"`

	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// UpdateListingReq 更新商品请求（仅卖家本人，且商品在售时）
type UpdateListingReq struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	LocationName *string  `json:"location_name,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// ==================== 响应 ====================

// ListingResp 商品响应
type ListingResp struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Price        float64  `json:"price"`
	Category     string   `json:"category"`
	Condition    string   `json:"condition,omitempty"`
	PostType     string   `json:"post_type"`
	Attributes   any      `json:"attributes,omitempty"`
	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	SellerID     int64    `json:"seller_id"`
	Status       string   `json:"status"`
	Images       []string `json:"images,omitempty"`
	CreatedAt    string   `json:"created_at"`

	// 仅在调用方提供坐标且商品有坐标时返回，一位小数
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// ListingListResp 商品列表响应
type ListingListResp struct {
	Code     int           `json:"code"`
	Message  string        `json:"message"`
	Data     []ListingResp `json:"data"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
