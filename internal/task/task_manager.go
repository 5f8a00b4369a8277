package task

import (
	"log"

	"trustmart_v1_202609/internal/service"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理后台定时任务
// 当前只有自动放款一类；新任务按 AutoReleaseTask 的 Start/Stop 约定挂进来
type TaskManager struct {
	releaseTask *AutoReleaseTask
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	ReleaseEnabled   bool
	ReleaseCron      string
	ReleaseBatchSize int
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		ReleaseEnabled:   true,
		ReleaseCron:      "0 */10 * * * *",
		ReleaseBatchSize: 100,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(escrowService *service.EscrowService, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	if cfg.ReleaseEnabled && escrowService != nil {
		tm.releaseTask = NewAutoReleaseTask(escrowService, cfg.ReleaseCron)
		tm.releaseTask.SetBatchSize(cfg.ReleaseBatchSize)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	if tm.releaseTask != nil {
		tm.releaseTask.Start()
	}
	log.Println("[TaskManager] 定时任务已启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.releaseTask != nil {
		tm.releaseTask.Stop()
	}
	log.Println("[TaskManager] 定时任务已停止")
}

// ==================== 手动触发接口 ====================

// TriggerRelease 触发一轮自动放款扫描
func (tm *TaskManager) TriggerRelease() error {
	if tm.releaseTask == nil {
		return ErrTaskDisabled
	}
	tm.releaseTask.ReleaseNow()
	return nil
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
