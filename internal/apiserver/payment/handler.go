package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/apiserver/notification"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Handler 支付 HTTP 处理器
type Handler struct {
	payments storage.PaymentStore
	users    storage.UserStore
	gateway  *Gateway
	emitter  *notification.Emitter
}

// NewHandler 创建支付处理器
func NewHandler(payments storage.PaymentStore, users storage.UserStore, gw *Gateway, emitter *notification.Emitter) *Handler {
	return &Handler{payments: payments, users: users, gateway: gw, emitter: emitter}
}

// RegisterRoutes 注册支付路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/initiate", h.handleInitiate)
	mux.HandleFunc("POST /api/v1/payments/webhook", h.handleWebhook)
	mux.HandleFunc("GET /api/v1/payments/history", h.handleHistory)
}

type initiateRequest struct {
	Package  model.PackageName `json:"package"`
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
}

type initiateResponse struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

// handleInitiate 发起支付
//
// pending 记录先于网关外呼落库：外呼失败时记录保留，
// 审计与对账都能看到这笔未完成的意向。
func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	if !h.gateway.cfg.Configured() {
		log.Printf("[payment] initiate rejected: gateway not configured")
		httpapi.WriteError(w, httpapi.Internal("payment gateway is not configured"))
		return
	}

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, httpapi.BadRequest("invalid request body"))
		return
	}
	if !req.Package.Valid() {
		httpapi.WriteError(w, httpapi.BadRequest("unknown membership package"))
		return
	}
	if req.Amount <= 0 {
		httpapi.WriteError(w, httpapi.BadRequest("amount must be positive"))
		return
	}
	if req.Currency == "" {
		req.Currency = "BDT"
	}

	account, err := h.users.GetUserByID(r.Context(), user.ID)
	if err != nil {
		log.Printf("[payment] load user failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	now := time.Now().UTC()
	p := &model.Payment{
		ID:            model.NewID("pay"),
		UserID:        user.ID,
		Package:       req.Package,
		Amount:        req.Amount,
		Currency:      req.Currency,
		TransactionID: fmt.Sprintf("txn_%d_%s", now.UnixMilli(), user.ID),
		Status:        model.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.payments.CreatePayment(r.Context(), p); err != nil {
		log.Printf("[payment] create pending row failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	redirectURL, err := h.gateway.CreateSession(r.Context(), SessionRequest{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerName:  account.Name,
		CustomerEmail: account.Email,
		Description:   string(req.Package) + " membership",
	})
	if err != nil {
		// pending 记录保留，等待人工对账或重试
		log.Printf("[payment] gateway session for %s failed: %v", p.ID, err)
		httpapi.WriteError(w, httpapi.Internal("payment gateway is unavailable"))
		return
	}

	log.Printf("[payment] initiated: %s by %s (%s)", p.ID, user.ID, req.Package)
	httpapi.WriteData(w, http.StatusOK, "payment initiated", initiateResponse{
		PaymentID:   p.ID,
		RedirectURL: redirectURL,
	})
}

// handleWebhook 网关回调结算
//
// 至少一次投递语义：重复回调与并发回调都必须幂等。
// 签名校验先于任何状态变更；校验失败按 200 应答但不落任何写，
// 避免网关对伪造/损坏载荷无限重试。
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := ParseWebhook(r)
	if err != nil {
		log.Printf("[payment] malformed webhook: %v", err)
		httpapi.WriteJSON(w, http.StatusOK, httpapi.Envelope{
			Success: false,
			Message: "malformed payload",
		})
		return
	}

	if !h.gateway.VerifySignature(payload) {
		log.Printf("[payment] webhook signature mismatch for txn %s", payload.TransactionID)
		httpapi.WriteJSON(w, http.StatusOK, httpapi.Envelope{
			Success: false,
			Message: "signature verification failed",
		})
		return
	}

	existing, err := h.payments.GetPayment(r.Context(), payload.PaymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpapi.WriteError(w, httpapi.NotFound("payment not found"))
			return
		}
		log.Printf("[payment] load payment %s failed: %v", payload.PaymentID, err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	if existing.Status.Terminal() {
		httpapi.WriteData(w, http.StatusOK, "Payment already processed", existing)
		return
	}

	now := time.Now().UTC()
	settlement := model.PaymentSettlement{
		TransactionID:   payload.TransactionID,
		GatewayResponse: payload.Raw,
	}
	switch payload.Status {
	case "Successful":
		expires := now.AddDate(0, model.MembershipDuration(existing.Package), 0)
		settlement.Status = model.PaymentStatusSucceeded
		settlement.PaidAt = &now
		settlement.ExpiresAt = &expires
	case "Canceled":
		settlement.Status = model.PaymentStatusCancelled
	default:
		settlement.Status = model.PaymentStatusFailed
	}

	settled, applied, err := h.payments.SettlePayment(r.Context(), existing.ID, settlement)
	if err != nil {
		log.Printf("[payment] settle %s failed: %v", existing.ID, err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	if !applied {
		// 并发投递竞态：另一条回调先一步完成结算
		httpapi.WriteData(w, http.StatusOK, "Payment already processed", settled)
		return
	}

	if settled.Status == model.PaymentStatusSucceeded {
		membership := &model.Membership{
			TakenAt:   now,
			ExpiresAt: *settlement.ExpiresAt,
			Package:   model.MembershipPackage{Name: settled.Package, Price: settled.Amount},
		}
		if err := h.users.SetUserMembership(r.Context(), settled.UserID, membership); err != nil {
			log.Printf("[payment] membership update for %s failed: %v", settled.UserID, err)
		}
		h.emitter.Emit(r.Context(), settled.UserID, "",
			model.NotificationPaymentSuccess,
			"Your "+string(settled.Package)+" membership is now active", "/payments/history")
	}

	log.Printf("[payment] settled: %s -> %s", settled.ID, settled.Status)
	httpapi.WriteData(w, http.StatusOK, "payment processed", settled)
}

// handleHistory 当前用户的支付记录，按创建时间倒序
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	list, err := h.payments.ListPaymentsByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("[payment] history for %s failed: %v", user.ID, err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "payments retrieved", list)
}
