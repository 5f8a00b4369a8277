package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trustmart_v1_202609/internal/controller"
	"trustmart_v1_202609/internal/middleware"
	"trustmart_v1_202609/internal/model"
	"trustmart_v1_202609/internal/repository"
	"trustmart_v1_202609/internal/router"
	"trustmart_v1_202609/internal/service"
	"trustmart_v1_202609/internal/task"
	"trustmart_v1_202609/pkg/config"
	"trustmart_v1_202609/pkg/database"
	"trustmart_v1_202609/pkg/logger"
	"trustmart_v1_202609/pkg/utils"
)

func main() {
	// 1. 加载配置
	cfg := config.Load("")

	// 2. 初始化日志
	zlog := logger.New(cfg.Server.Mode)
	defer zlog.Sync()

	// 3. 初始化数据库
	db := initDatabase(cfg)

	// 4. 初始化依赖
	deps := initDependencies(db, cfg, zlog)

	// 5. 启动定时任务
	tm := initTasks(deps, cfg)
	defer tm.Stop()

	// 6. 初始化路由
	r := router.SetupRouter(deps.Controllers, zlog, &router.Options{
		Mode:               cfg.Server.Mode,
		TransitionCooldown: time.Duration(cfg.RateLimit.TransitionCooldownSeconds) * time.Second,
	})

	// 7. 启动服务
	startServer(r, cfg)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Listing     repository.ListingRepository
	Transaction repository.TransactionRepository
	EscrowUow   *repository.EscrowUnitOfWork
}

// Services 服务集合
type Services struct {
	Filter  *service.FilterEngine
	Payment service.PaymentGateway
	Listing *service.ListingService
	Escrow  *service.EscrowService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(cfg.Database.DSN,
		&database.Options{
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			LogSQL:       cfg.Server.Mode != "release",
		},
		&model.Listing{},
		&model.EscrowTransaction{},
		&model.TransactionLedger{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB, cfg *config.Config, zlog *zap.Logger) *Dependencies {
	// -------- 认证配置 --------
	jwtCfg := middleware.DefaultJWTConfig()
	jwtCfg.SecretKey = cfg.Auth.JWTSecret
	jwtCfg.Issuer = cfg.Auth.Issuer
	middleware.SetJWTConfig(jwtCfg)

	// -------- Repo 层 --------
	repos := &Repositories{
		Listing:     repository.NewListingRepository(db),
		Transaction: repository.NewTransactionRepository(db),
		EscrowUow:   repository.NewEscrowUnitOfWork(db),
	}

	// -------- 业务服务 --------
	searchCache := utils.NewTTLCache()
	filterEngine := service.NewFilterEngine()

	paymentGateway := service.NewPaymentService(&service.PaymentConfig{
		Enabled:    cfg.Payment.Enabled,
		BaseURL:    cfg.Payment.BaseURL,
		APIKey:     cfg.Payment.APIKey,
		Timeout:    time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
		RetryCount: cfg.Payment.RetryCount,
	})

	services := &Services{
		Filter:  filterEngine,
		Payment: paymentGateway,
		Listing: service.NewListingService(repos.Listing, filterEngine, searchCache),
		Escrow: service.NewEscrowService(repos.EscrowUow, paymentGateway, searchCache,
			&service.EscrowConfig{
				ServiceFee:        cfg.Escrow.ServiceFee,
				AutoReleaseWindow: cfg.Escrow.AutoReleaseWindow(),
			}, zlog),
	}

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Listing:     controller.NewListingController(services.Listing),
		Transaction: controller.NewTransactionController(services.Escrow),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies, cfg *config.Config) *task.TaskManager {
	tm := task.NewTaskManager(deps.Services.Escrow, &task.TaskManagerConfig{
		ReleaseEnabled:   true,
		ReleaseCron:      cfg.Escrow.ReleaseCron,
		ReleaseBatchSize: cfg.Escrow.ReleaseBatchSize,
	})
	tm.Start()
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, cfg *config.Config) {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
