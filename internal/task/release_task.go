package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"trustmart_v1_202609/internal/service"
)

// ==================== AutoReleaseTask 超时自动放款任务 ====================

// AutoReleaseTask 终审阶段超期未操作的交易自动放款
// 延迟触发、可重试的定时迁移，不是阻塞等待；单笔失败下一轮重试
type AutoReleaseTask struct {
	escrowService *service.EscrowService
	cron          *cron.Cron
	spec          string

	batchSize int
}

// NewAutoReleaseTask 创建自动放款任务
func NewAutoReleaseTask(escrowService *service.EscrowService, spec string) *AutoReleaseTask {
	if spec == "" {
		spec = "0 */10 * * * *" // 每 10 分钟
	}
	return &AutoReleaseTask{
		escrowService: escrowService,
		cron:          cron.New(cron.WithSeconds()),
		spec:          spec,
		batchSize:     100,
	}
}

// SetBatchSize 设置单轮处理上限
func (t *AutoReleaseTask) SetBatchSize(n int) {
	if n > 0 {
		t.batchSize = n
	}
}

// Start 启动定时任务
func (t *AutoReleaseTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[AutoReleaseTask] 执行首次超期扫描...")
		t.runOnce(ctx)
	}()

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.runOnce(ctx)
	})
	if err != nil {
		log.Printf("[AutoReleaseTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Printf("[AutoReleaseTask] 已启动 (%s)", t.spec)
}

// Stop 停止任务
func (t *AutoReleaseTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[AutoReleaseTask] 已停止")
}

// runOnce 单轮扫描
func (t *AutoReleaseTask) runOnce(ctx context.Context) {
	released, err := t.escrowService.ReleaseExpired(ctx, t.batchSize)
	if err != nil {
		log.Printf("[AutoReleaseTask] 扫描失败: %v", err)
		return
	}
	if released > 0 {
		log.Printf("[AutoReleaseTask] 本轮自动放款 %d 笔", released)
	}
}

// ReleaseNow 立即触发一轮扫描（手动）
func (t *AutoReleaseTask) ReleaseNow() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.runOnce(ctx)
	}()
}
