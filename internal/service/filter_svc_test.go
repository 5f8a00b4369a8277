package service

import (
	"errors"
	"testing"
	"time"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
)

// ==================== 测试辅助函数 ====================

func fp(v float64) *float64 { return &v }

func makeListing(id int64, title string, price float64, category string,
	cond model.Condition, postType model.PostType, createdAt time.Time) model.Listing {
	return model.Listing{
		BaseModel: model.BaseModel{ID: id, CreatedAt: createdAt},
		Title:     title,
		Price:     price,
		Category:  category,
		Condition: cond,
		PostType:  postType,
		Status:    model.ListingStatusAvailable,
	}
}

func campusListings() []model.Listing {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []model.Listing{
		makeListing(1, "Sony WH-1000XM4 Headphones", 120, "Electronics",
			model.ConditionUsed, model.PostTypeProduct, base.Add(3*time.Hour)),
		makeListing(2, "Sony WH-1000XM4 (barely used)", 95, "Electronics",
			model.ConditionUsed, model.PostTypeProduct, base.Add(2*time.Hour)),
		makeListing(3, "Calculus Textbook", 40, "Books",
			model.ConditionUsed, model.PostTypeProduct, base.Add(1*time.Hour)),
		makeListing(4, "Guitar Lessons", 25, "Music",
			"", model.PostTypeService, base.Add(4*time.Hour)),
		makeListing(5, "Fresh Tomatoes", 8, "Produce",
			model.ConditionNew, model.PostTypeFarmer, base),
	}
}

// ==================== 谓词组合 ====================

func TestFilterEngine_AllPredicatesAND(t *testing.T) {
	engine := NewFilterEngine()
	listings := campusListings()

	// 标题 + 分类 + 成色 + 价格区间同时生效
	results, err := engine.Search(listings, FilterCriteria{
		Query:     "sony xm4",
		Category:  "Electronics",
		Condition: "Used",
		MinPrice:  fp(100),
		MaxPrice:  fp(150),
	})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	// "sony xm4" 不是任何标题的连续子串，零命中
	if len(results) != 0 {
		t.Fatalf("期望 0 条（子串不连续），得到 %d", len(results))
	}

	results, err = engine.Search(listings, FilterCriteria{
		Query:    "xm4",
		Category: "Electronics",
		MinPrice: fp(100),
		MaxPrice: fp(150),
	})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if len(results) != 1 || results[0].Listing.ID != 1 {
		t.Fatalf("期望只命中 id=1，得到 %+v", results)
	}

	// 放宽下限，两条都进来
	results, _ = engine.Search(listings, FilterCriteria{
		Query:    "xm4",
		Category: "Electronics",
		MinPrice: fp(90),
	})
	if len(results) != 2 {
		t.Fatalf("期望 2 条，得到 %d", len(results))
	}

	// 价格区间是闭区间：上限 100 排除 120 那条，恰好落在边界的包含
	results, _ = engine.Search(listings, FilterCriteria{Query: "sony", MaxPrice: fp(100)})
	if len(results) != 1 || results[0].Listing.ID != 2 {
		t.Fatalf("上限 100 应只留 95 那条，得到 %+v", results)
	}
	results, _ = engine.Search(listings, FilterCriteria{Query: "sony", MinPrice: fp(95), MaxPrice: fp(120)})
	if len(results) != 2 {
		t.Fatalf("边界值应包含在区间内，期望 2 条，得到 %d", len(results))
	}
}

func TestFilterEngine_Wildcards(t *testing.T) {
	engine := NewFilterEngine()
	listings := campusListings()

	// "All" 与空串等价于不过滤
	forAll, _ := engine.Search(listings, FilterCriteria{Category: "All", Condition: "All", PostType: "All"})
	forEmpty, _ := engine.Search(listings, FilterCriteria{})
	if len(forAll) != len(listings) || len(forEmpty) != len(listings) {
		t.Fatalf("通配应返回全部 %d 条, 得到 %d / %d", len(listings), len(forAll), len(forEmpty))
	}
}

func TestFilterEngine_QueryCaseInsensitive(t *testing.T) {
	engine := NewFilterEngine()
	results, err := engine.Search(campusListings(), FilterCriteria{Query: "  SONY  "})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("大小写与首尾空白不应影响命中，期望 2 条，得到 %d", len(results))
	}
}

// ==================== 排序 ====================

func TestFilterEngine_SortNewest(t *testing.T) {
	engine := NewFilterEngine()
	results, _ := engine.Search(campusListings(), FilterCriteria{SortBy: SortNewest})

	want := []int64{4, 1, 2, 3, 5}
	for i, id := range want {
		if results[i].Listing.ID != id {
			t.Fatalf("Newest 排序第 %d 位期望 id=%d，得到 %d", i, id, results[i].Listing.ID)
		}
	}
}

func TestFilterEngine_SortByPrice(t *testing.T) {
	engine := NewFilterEngine()

	asc, _ := engine.Search(campusListings(), FilterCriteria{SortBy: SortPriceLowToHigh})
	wantAsc := []int64{5, 4, 3, 2, 1}
	for i, id := range wantAsc {
		if asc[i].Listing.ID != id {
			t.Fatalf("低到高第 %d 位期望 id=%d，得到 %d", i, id, asc[i].Listing.ID)
		}
	}

	desc, _ := engine.Search(campusListings(), FilterCriteria{SortBy: SortPriceHighToLow})
	wantDesc := []int64{1, 2, 3, 4, 5}
	for i, id := range wantDesc {
		if desc[i].Listing.ID != id {
			t.Fatalf("高到低第 %d 位期望 id=%d，得到 %d", i, id, desc[i].Listing.ID)
		}
	}
}

func TestFilterEngine_PriceTieBreak(t *testing.T) {
	engine := NewFilterEngine()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 同价：较新的排前；时间也相同则 id 小的排前
	listings := []model.Listing{
		makeListing(10, "Lamp A", 20, "Home", model.ConditionUsed, model.PostTypeProduct, base),
		makeListing(11, "Lamp B", 20, "Home", model.ConditionUsed, model.PostTypeProduct, base.Add(time.Hour)),
		makeListing(12, "Lamp C", 20, "Home", model.ConditionUsed, model.PostTypeProduct, base),
	}

	results, _ := engine.Search(listings, FilterCriteria{SortBy: SortPriceLowToHigh})
	want := []int64{11, 10, 12}
	for i, id := range want {
		if results[i].Listing.ID != id {
			t.Fatalf("并列打破第 %d 位期望 id=%d，得到 %d", i, id, results[i].Listing.ID)
		}
	}
}

func TestFilterEngine_SortNearest(t *testing.T) {
	engine := NewFilterEngine()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	near := makeListing(21, "Bike near", 50, "Sports", model.ConditionUsed, model.PostTypeProduct, base)
	near.Latitude, near.Longitude = fp(37.4280), fp(-122.1700)
	far := makeListing(22, "Bike far", 50, "Sports", model.ConditionUsed, model.PostTypeProduct, base)
	far.Latitude, far.Longitude = fp(37.4419), fp(-122.1430)
	noCoords := makeListing(23, "Bike unknown", 50, "Sports", model.ConditionUsed, model.PostTypeProduct, base)

	results, err := engine.Search([]model.Listing{far, noCoords, near}, FilterCriteria{
		SortBy:    SortNearest,
		OriginLat: fp(37.4275),
		OriginLng: fp(-122.1697),
	})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}

	want := []int64{21, 22, 23} // 缺坐标的排最后
	for i, id := range want {
		if results[i].Listing.ID != id {
			t.Fatalf("Nearest 第 %d 位期望 id=%d，得到 %d", i, id, results[i].Listing.ID)
		}
	}
	if results[0].DistanceKm == nil || results[1].DistanceKm == nil {
		t.Fatal("有坐标的结果应附带距离")
	}
	if results[2].DistanceKm != nil {
		t.Fatal("缺坐标的结果不应附带距离")
	}
	if *results[0].DistanceKm != 0.1 {
		t.Errorf("近处距离应四舍五入到 0.1，得到 %f", *results[0].DistanceKm)
	}
}

func TestFilterEngine_NearestWithoutOrigin(t *testing.T) {
	engine := NewFilterEngine()
	_, err := engine.Search(campusListings(), FilterCriteria{SortBy: SortNearest})
	var verr *errs.ValidationError
	if err == nil || !errors.As(err, &verr) {
		t.Fatalf("Nearest 缺起点坐标应返回校验错误，得到 %v", err)
	}
}

// ==================== 校验与纯函数性质 ====================

func TestFilterCriteria_Validate(t *testing.T) {
	cases := []struct {
		name     string
		criteria FilterCriteria
		wantErr  bool
	}{
		{"负的下限", FilterCriteria{MinPrice: fp(-1)}, true},
		{"负的上限", FilterCriteria{MaxPrice: fp(-5)}, true},
		{"下限超上限", FilterCriteria{MinPrice: fp(100), MaxPrice: fp(50)}, true},
		{"未知排序", FilterCriteria{SortBy: "Cheapest"}, true},
		{"合法区间", FilterCriteria{MinPrice: fp(10), MaxPrice: fp(10)}, false},
		{"空条件", FilterCriteria{}, false},
	}
	for _, c := range cases {
		err := c.criteria.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: 期望 err=%v，得到 %v", c.name, c.wantErr, err)
		}
	}
}

func TestFilterEngine_DoesNotMutateInput(t *testing.T) {
	engine := NewFilterEngine()
	listings := campusListings()
	originalOrder := make([]int64, len(listings))
	for i := range listings {
		originalOrder[i] = listings[i].ID
	}

	if _, err := engine.Search(listings, FilterCriteria{SortBy: SortPriceHighToLow}); err != nil {
		t.Fatalf("搜索失败: %v", err)
	}

	for i := range listings {
		if listings[i].ID != originalOrder[i] {
			t.Fatal("搜索不得改动入参切片的顺序")
		}
	}
}

func TestFilterEngine_EmptyResult(t *testing.T) {
	engine := NewFilterEngine()
	results, err := engine.Search(campusListings(), FilterCriteria{Query: "nonexistent gadget"})
	if err != nil {
		t.Fatalf("零命中不是错误: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("零命中应返回空切片，得到 %v", results)
	}
}

// ==================== 分页 ====================

func TestPaginate(t *testing.T) {
	engine := NewFilterEngine()
	all, _ := engine.Search(campusListings(), FilterCriteria{SortBy: SortNewest})

	page1 := Paginate(all, 1, 2)
	if len(page1) != 2 || page1[0].Listing.ID != 4 {
		t.Fatalf("第一页期望 [4 1]，得到 %+v", page1)
	}
	page3 := Paginate(all, 3, 2)
	if len(page3) != 1 {
		t.Fatalf("末页期望 1 条，得到 %d", len(page3))
	}
	if out := Paginate(all, 10, 2); len(out) != 0 {
		t.Fatalf("越界页应返回空页，得到 %d 条", len(out))
	}
}
