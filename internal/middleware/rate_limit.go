package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== MutationLimiter 变更限流器 ====================

// MutationLimiter 交易变更限流器
// 防止同一操作者对交易接口的重放风暴；正确性由状态机幂等规则兜底，
// 这里只是减轻无谓的写放大
type MutationLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &MutationLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *MutationLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "actor:42:/api/transactions"
// interval: 冷却间隔
func (r *MutationLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 清除限流键（测试用）
func (r *MutationLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Gin 中间件 ====================

// MutationCooldown 对变更接口按操作者+路径做冷却限流
func MutationCooldown(interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if interval <= 0 {
			c.Next()
			return
		}

		// 路径参数进键：同一操作者推进不同交易互不占用冷却桶
		key := fmt.Sprintf("actor:%d:%s", GetActorID(c), c.FullPath())
		for _, p := range c.Params {
			key += ":" + p.Value
		}
		result := globalLimiter.Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":        429,
				"message":     "操作过于频繁，请稍后重试",
				"retry_after": result.RetryAfter.Seconds(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
