package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"trustmart_v1_202609/internal/errs"
	"trustmart_v1_202609/internal/model"
)

// ==================== 支付通道接口 ====================

// PaymentGateway 外部支付处理方的交接点
// 真正的资金划转在外部完成，这里只负责按状态机节点发出指令
type PaymentGateway interface {
	// Lock 创建交易时冻结买家资金
	Lock(ctx context.Context, txn *model.EscrowTransaction) error
	// Release 放款给卖家
	Release(ctx context.Context, txn *model.EscrowTransaction) error
	// Refund 取消后退款给买家
	Refund(ctx context.Context, txn *model.EscrowTransaction) error
}

// ==================== 配置 ====================

// PaymentConfig 支付通道配置
type PaymentConfig struct {
	Enabled    bool
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// ==================== resty 实现 ====================

type paymentService struct {
	client *resty.Client
}

// NewPaymentService 创建支付通道客户端
// Enabled 为 false 时返回空实现（本地开发 / 测试）
func NewPaymentService(cfg *PaymentConfig) PaymentGateway {
	if cfg == nil || !cfg.Enabled {
		return &noopGateway{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.RetryCount
	if retries <= 0 {
		retries = 3
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(retries)
	client.SetHeader("x-api-key", cfg.APIKey)

	return &paymentService{client: client}
}

// paymentInstruction 发给支付处理方的指令体
type paymentInstruction struct {
	Reference  string  `json:"reference"`
	BuyerID    int64   `json:"buyer_id"`
	SellerID   int64   `json:"seller_id"`
	ItemAmount float64 `json:"item_amount"`
	ServiceFee float64 `json:"service_fee"`
	GrandTotal float64 `json:"grand_total"`
}

func (s *paymentService) Lock(ctx context.Context, txn *model.EscrowTransaction) error {
	return s.post(ctx, "/escrow/lock", txn)
}

func (s *paymentService) Release(ctx context.Context, txn *model.EscrowTransaction) error {
	return s.post(ctx, "/escrow/release", txn)
}

func (s *paymentService) Refund(ctx context.Context, txn *model.EscrowTransaction) error {
	return s.post(ctx, "/escrow/refund", txn)
}

func (s *paymentService) post(ctx context.Context, path string, txn *model.EscrowTransaction) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&paymentInstruction{
			Reference:  txn.Reference(),
			BuyerID:    txn.BuyerID,
			SellerID:   txn.SellerID,
			ItemAmount: txn.ItemAmount,
			ServiceFee: txn.ServiceFee,
			GrandTotal: txn.GrandTotal(),
		}).
		Post(path)
	if err != nil {
		return errs.Timeout("payment gateway "+path, err)
	}
	if resp.StatusCode() >= 300 {
		return errs.Timeout("payment gateway "+path,
			fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	return nil
}

// ==================== 空实现 ====================

type noopGateway struct{}

func (g *noopGateway) Lock(ctx context.Context, txn *model.EscrowTransaction) error    { return nil }
func (g *noopGateway) Release(ctx context.Context, txn *model.EscrowTransaction) error { return nil }
func (g *noopGateway) Refund(ctx context.Context, txn *model.EscrowTransaction) error  { return nil }
