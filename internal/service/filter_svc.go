package service

import (
	"sort"
	"strings"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
	"trustmart_v1_202609/pkg/geo"
)

// ==================== 排序方式 ====================

// SortMode 排序方式
type SortMode string

const (
	SortNewest          SortMode = "Newest"
	SortPriceLowToHigh  SortMode = "PriceLowToHigh"
	SortPriceHighToLow  SortMode = "PriceHighToLow"
	SortNearest         SortMode = "Nearest" // 需要调用方坐标
	filterWildcard               = "All"     // 分类/成色/类型的通配哨兵值
)

// ValidSortMode 校验排序取值
func ValidSortMode(m SortMode) bool {
	switch m {
	case SortNewest, SortPriceLowToHigh, SortPriceHighToLow, SortNearest, "":
		return true
	}
	return false
}

// ==================== 筛选条件 ====================

// FilterCriteria 筛选条件（值对象，不落库）
type FilterCriteria struct {
	Query     string
	Category  string
	Condition string
	PostType  string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    SortMode

	// 调用方坐标，用于距离展示 / Nearest 排序
	OriginLat *float64
	OriginLng *float64
}

// Validate 边界校验，非法区间在触达存储层之前拒绝
func (c *FilterCriteria) Validate() error {
	if c.MinPrice != nil && *c.MinPrice < 0 {
		return errs.Validation("min_price", "must be non-negative")
	}
	if c.MaxPrice != nil && *c.MaxPrice < 0 {
		return errs.Validation("max_price", "must be non-negative")
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return errs.Validation("min_price", "must not exceed max_price")
	}
	if !ValidSortMode(c.SortBy) {
		return errs.Validation("sort_by", "unknown sort mode "+string(c.SortBy))
	}
	if c.SortBy == SortNearest && !c.hasOrigin() {
		return errs.Validation("sort_by", "Nearest requires caller coordinates")
	}
	return nil
}

func (c *FilterCriteria) hasOrigin() bool {
	return c.OriginLat != nil && c.OriginLng != nil
}

// ==================== 结果 ====================

// SearchResult 单条结果，距离仅在调用方提供坐标且商品有坐标时附带
type SearchResult struct {
	Listing    model.Listing
	DistanceKm *float64
}

// ==================== 筛选引擎 ====================

// FilterEngine 纯函数式筛选引擎：无状态，不修改入参，可跨查询并行
type FilterEngine struct{}

// NewFilterEngine 创建筛选引擎
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{}
}

// Search 过滤 + 排序，返回新序列，零命中返回空切片而非错误
func (e *FilterEngine) Search(listings []model.Listing, c FilterCriteria) ([]SearchResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(c.Query))
	results := make([]SearchResult, 0, len(listings))

	for i := range listings {
		l := listings[i]
		if !matches(&l, query, &c) {
			continue
		}
		r := SearchResult{Listing: l}
		if c.hasOrigin() {
			if d, ok := geo.DistanceBetween(c.OriginLat, c.OriginLng, l.Latitude, l.Longitude); ok {
				rounded := geo.RoundKm(d)
				r.DistanceKm = &rounded
			}
		}
		results = append(results, r)
	}

	sortResults(results, c.SortBy)
	return results, nil
}

// matches 所有启用的谓词取 AND，任一不过即淘汰
func matches(l *model.Listing, query string, c *FilterCriteria) bool {
	if query != "" && !strings.Contains(strings.ToLower(l.Title), query) {
		return false
	}
	if !wildcardMatch(c.Category, l.Category) {
		return false
	}
	if !wildcardMatch(c.Condition, string(l.Condition)) {
		return false
	}
	if !wildcardMatch(c.PostType, string(l.PostType)) {
		return false
	}
	if c.MinPrice != nil && l.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && l.Price > *c.MaxPrice {
		return false
	}
	return true
}

// wildcardMatch 空值或 "All" 视为通配
func wildcardMatch(want, got string) bool {
	return want == "" || want == filterWildcard || want == got
}

// sortResults 排序及文档化的并列打破规则，结果完全确定，与输入顺序无关
func sortResults(results []SearchResult, mode SortMode) {
	switch mode {
	case SortPriceLowToHigh:
		sort.Slice(results, func(i, j int) bool {
			a, b := &results[i].Listing, &results[j].Listing
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return newerFirst(a, b)
		})
	case SortPriceHighToLow:
		sort.Slice(results, func(i, j int) bool {
			a, b := &results[i].Listing, &results[j].Listing
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return newerFirst(a, b)
		})
	case SortNearest:
		// 缺坐标的商品排最后
		sort.Slice(results, func(i, j int) bool {
			di, dj := results[i].DistanceKm, results[j].DistanceKm
			if (di == nil) != (dj == nil) {
				return di != nil
			}
			if di != nil && dj != nil && *di != *dj {
				return *di < *dj
			}
			return newerFirst(&results[i].Listing, &results[j].Listing)
		})
	default: // SortNewest
		sort.Slice(results, func(i, j int) bool {
			a, b := &results[i].Listing, &results[j].Listing
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}
}

// newerFirst 价格/距离并列时的打破规则：createdAt 降序，再按 id 升序兜底
func newerFirst(a, b *model.Listing) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Paginate 对已排序结果切页，越界返回空页
func Paginate(results []SearchResult, page, pageSize int) []SearchResult {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(results) {
		return []SearchResult{}
	}
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}
