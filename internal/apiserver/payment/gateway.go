// Package payment 支付发起与网关回调结算
package payment

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GatewayConfig aamarpay 网关配置
type GatewayConfig struct {
	StoreID      string
	SignatureKey string
	BaseURL      string // 沙箱或生产环境地址
	FrontendURL  string // 成功/失败/取消跳转的前端地址
	Timeout      time.Duration
}

// Configured 发起支付所需的配置是否齐全
func (c GatewayConfig) Configured() bool {
	return c.StoreID != "" && c.SignatureKey != "" && c.BaseURL != "" && c.FrontendURL != ""
}

// Gateway aamarpay 网关客户端
type Gateway struct {
	cfg    GatewayConfig
	client *http.Client
}

// NewGateway 创建网关客户端，外呼超时有界
func NewGateway(cfg GatewayConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// SessionRequest 发起支付会话所需参数
type SessionRequest struct {
	PaymentID     string
	TransactionID string
	Amount        float64
	Currency      string
	CustomerName  string
	CustomerEmail string
	Description   string
}

type sessionResponse struct {
	Result         string `json:"result"`
	PaymentURL     string `json:"payment_url"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// CreateSession 向网关提交签名表单，返回跳转地址
//
// 签名密钥只进请求体，任何日志与错误信息都不得携带。
func (g *Gateway) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	callback := strings.TrimRight(g.cfg.FrontendURL, "/")
	form := url.Values{}
	form.Set("store_id", g.cfg.StoreID)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", callback+"/payment/success?paymentId="+url.QueryEscape(req.PaymentID))
	form.Set("fail_url", callback+"/payment/fail?paymentId="+url.QueryEscape(req.PaymentID))
	form.Set("cancel_url", callback+"/payment/cancel?paymentId="+url.QueryEscape(req.PaymentID))
	form.Set("amount", fmt.Sprintf("%.2f", req.Amount))
	form.Set("currency", req.Currency)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("desc", req.Description)
	form.Set("opt_a", req.PaymentID)
	form.Set("signature_key", g.cfg.SignatureKey)
	form.Set("type", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(g.cfg.BaseURL, "/")+"/jsonpost.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("malformed gateway response: %w", err)
	}
	pageURL := sr.GatewayPageURL
	if pageURL == "" {
		pageURL = sr.PaymentURL
	}
	if pageURL == "" {
		return "", fmt.Errorf("gateway response carries no redirect url")
	}
	return pageURL, nil
}

// WebhookPayload 网关回调载荷
//
// Raw 保留全部表单字段原样入库，用于审计。
type WebhookPayload struct {
	TransactionID string // mer_txnid
	Status        string // pay_status: Successful | Canceled | Failed ...
	Amount        string
	PaymentID     string // opt_a: 发起时带过去的内部支付 ID
	Signature     string // signature_received
	Raw           map[string]string
}

// ParseWebhook 从回调表单解析载荷，关键字段缺失返回错误
func ParseWebhook(r *http.Request) (*WebhookPayload, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse webhook form: %w", err)
	}
	raw := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		raw[k] = r.PostForm.Get(k)
	}

	p := &WebhookPayload{
		TransactionID: raw["mer_txnid"],
		Status:        raw["pay_status"],
		Amount:        raw["amount"],
		PaymentID:     raw["opt_a"],
		Signature:     raw["signature_received"],
		Raw:           raw,
	}
	if p.TransactionID == "" || p.Status == "" || p.PaymentID == "" {
		return nil, fmt.Errorf("webhook payload missing required fields")
	}
	return p, nil
}

// VerifySignature 本地重算签名并做常数时间比较
//
// 签名 = md5(store_id|mer_txnid|amount|signature_key)，
// 任何不匹配一律视为伪造，拒绝进入结算。
func (g *Gateway) VerifySignature(p *WebhookPayload) bool {
	if p.Signature == "" {
		return false
	}
	sum := md5.Sum([]byte(g.cfg.StoreID + "|" + p.TransactionID + "|" + p.Amount + "|" + g.cfg.SignatureKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(p.Signature))) == 1
}

// Sign 计算回调签名（测试与工具使用）
func Sign(storeID, txnID, amount, signatureKey string) string {
	sum := md5.Sum([]byte(storeID + "|" + txnID + "|" + amount + "|" + signatureKey))
	return hex.EncodeToString(sum[:])
}
