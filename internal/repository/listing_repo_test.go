package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
)

// ==================== 测试辅助函数 ====================

func setupRepoTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Listing{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func createListing(t *testing.T, repo ListingRepository, sellerID int64, status model.ListingStatus) *model.Listing {
	listing := &model.Listing{
		Title:    "Calculus Textbook",
		Price:    40,
		PostType: model.PostTypeProduct,
		SellerID: sellerID,
		Status:   status,
	}
	if err := repo.Create(context.Background(), listing); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return listing
}

// ==================== SetStatus CAS 语义 ====================

func TestListingRepo_SetStatus(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()
	listing := createListing(t, repo, 1, model.ListingStatusAvailable)

	if err := repo.SetStatus(ctx, listing.ID, model.ListingStatusAvailable, model.ListingStatusReserved); err != nil {
		t.Fatalf("前置状态匹配时变更应成功: %v", err)
	}

	got, err := repo.GetByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got.Status != model.ListingStatusReserved {
		t.Errorf("期望 reserved，得到 %s", got.Status)
	}
}

func TestListingRepo_SetStatus_Conflict(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()
	listing := createListing(t, repo, 1, model.ListingStatusAvailable)

	// 第一次抢占成功，第二次前置状态已不符
	if err := repo.SetStatus(ctx, listing.ID, model.ListingStatusAvailable, model.ListingStatusReserved); err != nil {
		t.Fatalf("首次变更失败: %v", err)
	}
	err := repo.SetStatus(ctx, listing.ID, model.ListingStatusAvailable, model.ListingStatusReserved)

	var cerr *errs.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("前置状态不符应返回冲突，得到 %v", err)
	}

	// 状态未被第二次调用改动
	got, _ := repo.GetByID(ctx, listing.ID)
	if got.Status != model.ListingStatusReserved {
		t.Errorf("输家不应改动状态，得到 %s", got.Status)
	}
}

func TestListingRepo_SetStatus_NotFound(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))

	err := repo.SetStatus(context.Background(), 9999, model.ListingStatusAvailable, model.ListingStatusReserved)
	var nerr *errs.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("不存在的商品应返回 not found，得到 %v", err)
	}
}

// ==================== 卖家更新与状态互斥 ====================

func TestListingRepo_Update_LosesToReservation(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()
	listing := createListing(t, repo, 1, model.ListingStatusAvailable)

	// 卖家先读出待编辑的行
	loaded, err := repo.GetByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}

	// 编辑期间买家完成抢占
	if err := repo.SetStatus(ctx, listing.ID, model.ListingStatusAvailable, model.ListingStatusReserved); err != nil {
		t.Fatalf("抢占失败: %v", err)
	}

	// 带着过期快照写回必须冲突，绝不能把 status 拉回 available
	loaded.Title = "Calculus Textbook (3rd ed)"
	err = repo.Update(ctx, loaded)
	var cerr *errs.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("锁定中的商品写回应冲突，得到 %v", err)
	}

	got, _ := repo.GetByID(ctx, listing.ID)
	if got.Status != model.ListingStatusReserved {
		t.Errorf("商品应保持 reserved，得到 %s", got.Status)
	}
	if got.Title != "Calculus Textbook" {
		t.Errorf("冲突的写回不应改动任何列，得到 %q", got.Title)
	}
}

func TestListingRepo_Update_NeverWritesStatus(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()
	listing := createListing(t, repo, 1, model.ListingStatusAvailable)

	loaded, _ := repo.GetByID(ctx, listing.ID)
	loaded.Title = "Calculus Textbook (annotated)"
	loaded.Status = model.ListingStatusSold // 被篡改的内存快照

	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	got, _ := repo.GetByID(ctx, listing.ID)
	if got.Title != "Calculus Textbook (annotated)" {
		t.Errorf("可编辑列应更新，得到 %q", got.Title)
	}
	if got.Status != model.ListingStatusAvailable {
		t.Errorf("status 不得经由 Update 写入，得到 %s", got.Status)
	}
}

func TestListingRepo_Delete_LockedListing(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()
	listing := createListing(t, repo, 1, model.ListingStatusReserved)

	err := repo.Delete(ctx, listing.ID)
	var cerr *errs.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("锁定中的商品删除应冲突，得到 %v", err)
	}

	if _, err := repo.GetByID(ctx, listing.ID); err != nil {
		t.Errorf("冲突的删除不应动行: %v", err)
	}
}

// ==================== 查询 ====================

func TestListingRepo_ListByStatus(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()

	createListing(t, repo, 1, model.ListingStatusAvailable)
	createListing(t, repo, 1, model.ListingStatusAvailable)
	createListing(t, repo, 2, model.ListingStatusSold)

	available, err := repo.ListByStatus(ctx, model.ListingStatusAvailable)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(available) != 2 {
		t.Errorf("期望 2 条在售，得到 %d", len(available))
	}
}

func TestListingRepo_ListBySeller(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()

	createListing(t, repo, 1, model.ListingStatusAvailable)
	createListing(t, repo, 1, model.ListingStatusReserved)
	createListing(t, repo, 2, model.ListingStatusAvailable)

	mine, total, err := repo.ListBySeller(ctx, 1, 1, 20)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Errorf("卖家 1 应有 2 条（含已锁定），得到 total=%d len=%d", total, len(mine))
	}
}

func TestListingRepo_Delete_SoftDelete(t *testing.T) {
	repo := NewListingRepository(setupRepoTestDB(t))
	ctx := context.Background()
	listing := createListing(t, repo, 1, model.ListingStatusAvailable)

	if err := repo.Delete(ctx, listing.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	_, err := repo.GetByID(ctx, listing.ID)
	var nerr *errs.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("删除后查询应返回 not found，得到 %v", err)
	}
}
