package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 测试辅助函数 ====================

func newCooldownRouter(interval time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/transactions/:id/transition",
		func(c *gin.Context) { c.Set(ContextKeyActorID, int64(1)) },
		MutationCooldown(interval),
		func(c *gin.Context) { c.JSON(200, gin.H{"code": 0}) },
	)
	return r
}

func doTransition(r *gin.Engine, txnID string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/transactions/"+txnID+"/transition", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

// ==================== 冷却限流 ====================

func TestMutationCooldown_PerTransactionBucket(t *testing.T) {
	r := newCooldownRouter(time.Minute)

	if code := doTransition(r, "txn-a"); code != 200 {
		t.Fatalf("首次请求应放行，得到 %d", code)
	}
	// 不同交易不共享冷却桶
	if code := doTransition(r, "txn-b"); code != 200 {
		t.Fatalf("另一笔交易应放行，得到 %d", code)
	}
	// 同一交易在冷却期内重复提交被限
	if code := doTransition(r, "txn-a"); code != 429 {
		t.Fatalf("冷却期内重复提交应 429，得到 %d", code)
	}
}

func TestMutationCooldown_Disabled(t *testing.T) {
	r := newCooldownRouter(0)
	for i := 0; i < 3; i++ {
		if code := doTransition(r, "txn-c"); code != 200 {
			t.Fatalf("冷却间隔为 0 时应全部放行，得到 %d", code)
		}
	}
}

func TestMutationLimiter_Check(t *testing.T) {
	limiter := &MutationLimiter{}

	if got := limiter.Check("k1", 50*time.Millisecond); !got.Allowed {
		t.Fatal("首次检查应放行")
	}
	got := limiter.Check("k1", 50*time.Millisecond)
	if got.Allowed {
		t.Fatal("冷却期内应拒绝")
	}
	if got.RetryAfter <= 0 || got.RetryAfter > 50*time.Millisecond {
		t.Errorf("剩余冷却时间不合理: %v", got.RetryAfter)
	}

	limiter.Reset("k1")
	if got := limiter.Check("k1", 50*time.Millisecond); !got.Allowed {
		t.Fatal("重置后应放行")
	}
}
