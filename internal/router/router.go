package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trustmart_v1_202609/internal/controller"
	"trustmart_v1_202609/internal/middleware"
)

// Controllers 控制器集合
type Controllers struct {
	Listing     *controller.ListingController
	Transaction *controller.TransactionController
}

// Options 路由选项
type Options struct {
	Mode               string        // gin 运行模式
	TransitionCooldown time.Duration // 交易变更接口冷却间隔
}

// SetupRouter 注册所有路由
func SetupRouter(ctl *Controllers, logger *zap.Logger, opts *Options) *gin.Engine {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api")
	{
		// listing 商品
		listings := api.Group("/listings")
		{
			// 公开搜索：可选认证
			listings.GET("", middleware.OptionalAuth(), ctl.Listing.SearchListings)
			listings.GET("/:id", middleware.OptionalAuth(), ctl.Listing.GetListing)

			// 卖家接口：强制认证
			authed := listings.Group("", middleware.ActorAuth())
			{
				authed.GET("/mine", ctl.Listing.GetMyListings)
				authed.POST("", ctl.Listing.CreateListing)
				authed.PUT("/:id", ctl.Listing.UpdateListing)
				authed.DELETE("/:id", ctl.Listing.DeleteListing)
			}
		}

		// transaction 托管交易：全部强制认证
		transactions := api.Group("/transactions", middleware.ActorAuth())
		{
			transactions.GET("/mine", ctl.Transaction.GetMyTransactions)
			transactions.GET("/:id", ctl.Transaction.GetTransaction)
			transactions.GET("/:id/ledger", ctl.Transaction.GetLedger)

			// 变更接口带冷却限流；幂等规则保证重放也不会出错
			mutating := transactions.Group("", middleware.MutationCooldown(opts.TransitionCooldown))
			{
				mutating.POST("", ctl.Transaction.CreateTransaction)
				mutating.POST("/:id/transition", ctl.Transaction.Transition)
			}
		}
	}

	return r
}
