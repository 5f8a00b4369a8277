package controller

import (
	"time"

	"github.com/gin-gonic/gin"

	"trustmart_v1_202609/internal/api/dto"
	"trustmart_v1_202609/internal/middleware"
	"trustmart_v1_202609/internal/model"
	"trustmart_v1_202609/internal/service"
)

type TransactionController struct {
	escrowService *service.EscrowService
}

func NewTransactionController(escrowService *service.EscrowService) *TransactionController {
	return &TransactionController{escrowService: escrowService}
}

// ==================== 创建接口 ====================

// CreateTransaction 发起购买
// @Summary 对在售商品发起托管购买，抢占失败返回 409
// @Tags Transaction
// @Accept json
// @Produce json
// @Param body body dto.CreateTransactionReq true "购买参数"
// @Success 201 {object} dto.TransactionResp
// @Router /api/transactions [post]
func (ctrl *TransactionController) CreateTransaction(c *gin.Context) {
	var req dto.CreateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	txn, err := ctrl.escrowService.CreateTransaction(ctx, req.ListingID, middleware.GetActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"code":    0,
		"message": "success",
		"data":    toTransactionResp(txn),
	})
}

// ==================== 查询接口 ====================

// GetTransaction 查询交易详情
// @Summary 查询托管交易（仅交易双方可见）
// @Tags Transaction
// @Param id path string true "交易ID"
// @Success 200 {object} dto.TransactionResp
// @Router /api/transactions/{id} [get]
func (ctrl *TransactionController) GetTransaction(c *gin.Context) {
	actor := service.Actor{ID: middleware.GetActorID(c)}

	ctx := c.Request.Context()
	txn, err := ctrl.escrowService.GetTransaction(ctx, c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    toTransactionResp(txn),
	})
}

// GetMyTransactions 查询我参与的交易
// @Summary 查询当前操作者作为买方或卖方的全部交易
// @Tags Transaction
// @Success 200 {object} dto.TransactionListResp
// @Router /api/transactions/mine [get]
func (ctrl *TransactionController) GetMyTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	txns, err := ctrl.escrowService.ListByActor(ctx, middleware.GetActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	respList := make([]dto.TransactionResp, 0, len(txns))
	for i := range txns {
		respList = append(respList, toTransactionResp(&txns[i]))
	}

	c.JSON(200, dto.TransactionListResp{
		Code:    0,
		Message: "success",
		Data:    respList,
		Total:   len(respList),
	})
}

// GetLedger 查询交易流水
// @Summary 查询交易的状态迁移流水（审计）
// @Tags Transaction
// @Param id path string true "交易ID"
// @Success 200 {object} []dto.LedgerEntryResp
// @Router /api/transactions/{id}/ledger [get]
func (ctrl *TransactionController) GetLedger(c *gin.Context) {
	actor := service.Actor{ID: middleware.GetActorID(c)}

	ctx := c.Request.Context()
	recs, err := ctrl.escrowService.Ledger(ctx, c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	respList := make([]dto.LedgerEntryResp, 0, len(recs))
	for _, rec := range recs {
		respList = append(respList, dto.LedgerEntryResp{
			FromState: string(rec.FromState),
			ToState:   string(rec.ToState),
			ActorID:   rec.ActorID,
			ActorRole: rec.ActorRole,
			CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}

// ==================== 状态迁移接口 ====================

// Transition 执行状态迁移
// @Summary 对交易执行动作（confirm_schedule / approve_item / release / cancel / dispute）
// @Tags Transaction
// @Accept json
// @Produce json
// @Param id path string true "交易ID"
// @Param body body dto.TransitionReq true "迁移动作"
// @Success 200 {object} dto.TransactionResp
// @Router /api/transactions/{id}/transition [post]
func (ctrl *TransactionController) Transition(c *gin.Context) {
	var req dto.TransitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	actor := service.Actor{ID: middleware.GetActorID(c)}

	ctx := c.Request.Context()
	txn, err := ctrl.escrowService.Transition(ctx, c.Param("id"), model.EscrowAction(req.Action), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    toTransactionResp(txn),
	})
}

// ==================== 转换 ====================

func toTransactionResp(t *model.EscrowTransaction) dto.TransactionResp {
	fmtTime := func(p *time.Time) string {
		if p == nil {
			return ""
		}
		return p.Format(time.RFC3339)
	}

	return dto.TransactionResp{
		ID:              t.ID,
		Reference:       t.Reference(),
		ListingID:       t.ListingID,
		BuyerID:         t.BuyerID,
		SellerID:        t.SellerID,
		ItemAmount:      t.ItemAmount,
		ServiceFee:      t.ServiceFee,
		GrandTotal:      t.GrandTotal(),
		State:           string(t.State),
		PaymentLockedAt: t.PaymentLockedAt.Format(time.RFC3339),
		InspectionAt:    fmtTime(t.InspectionAt),
		FinalApprovalAt: fmtTime(t.FinalApprovalAt),
		ReleasedAt:      fmtTime(t.ReleasedAt),
		DisputedAt:      fmtTime(t.DisputedAt),
		CancelledAt:     fmtTime(t.CancelledAt),
	}
}
