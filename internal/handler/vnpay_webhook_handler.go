package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"nhadat/config"
	"nhadat/internal/service"

	"github.com/gin-gonic/gin"
)

// VNPayWebhookHandler owns the two gateway callback entry points. Either,
// both or neither may arrive, in any order, with duplicates; all the
// verification and idempotency rules live in PaymentService.ProcessCallback
// so the two entry points cannot diverge.
type VNPayWebhookHandler struct {
	cfg        *config.Config
	paymentSvc *service.PaymentService
	notifSvc   *service.NotificationService
}

func NewVNPayWebhookHandler(cfg *config.Config, paymentSvc *service.PaymentService, notifSvc *service.NotificationService) *VNPayWebhookHandler {
	return &VNPayWebhookHandler{cfg: cfg, paymentSvc: paymentSvc, notifSvc: notifSvc}
}

// HandleReturn serves the user-facing redirect leg. The browser is sent on
// to the frontend result page with a status query parameter.
func (h *VNPayWebhookHandler) HandleReturn(c *gin.Context) {
	params := c.Request.URL.Query()
	res, err := h.paymentSvc.ProcessCallback(params)
	if err != nil {
		log.Printf("[VNPAY return] ref=%s rejected: %v", params.Get("vnp_TxnRef"), err)
		h.redirectResult(c, callbackErrorStatus(err), params.Get("vnp_TxnRef"))
		return
	}
	if !res.Duplicate {
		h.notifSvc.NotifyDepositResult(res.UserID, res.Amount, res.Reference, res.Success)
	}
	status := "failed"
	if res.Success {
		status = "success"
	}
	log.Printf("[VNPAY return] ref=%s status=%s duplicate=%t", res.Reference, res.Status, res.Duplicate)
	h.redirectResult(c, status, res.Reference)
}

// HandleIpn serves the server-to-server leg and answers in VNPay's
// machine-readable acknowledgement shape. A duplicate delivery is answered
// as already-confirmed without mutating anything; a failed payment is still
// RspCode 00 because the notification itself was processed.
func (h *VNPayWebhookHandler) HandleIpn(c *gin.Context) {
	params := c.Request.URL.Query()
	res, err := h.paymentSvc.ProcessCallback(params)
	if err != nil {
		log.Printf("[VNPAY ipn] ref=%s rejected: %v", params.Get("vnp_TxnRef"), err)
		code, msg := ipnErrorResponse(err)
		c.JSON(http.StatusOK, gin.H{"RspCode": code, "Message": msg})
		return
	}
	if res.Duplicate {
		log.Printf("[VNPAY ipn] ref=%s already %s, no-op", res.Reference, res.Status)
		c.JSON(http.StatusOK, gin.H{"RspCode": "02", "Message": "Order already confirmed"})
		return
	}
	h.notifSvc.NotifyDepositResult(res.UserID, res.Amount, res.Reference, res.Success)
	log.Printf("[VNPAY ipn] ref=%s final status=%s", res.Reference, res.Status)
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}

func (h *VNPayWebhookHandler) redirectResult(c *gin.Context, status, reference string) {
	q := url.Values{}
	q.Set("status", status)
	if reference != "" {
		q.Set("reference", reference)
	}
	c.Redirect(http.StatusFound, h.cfg.VNPay.ResultURL+"?"+q.Encode())
}

func callbackErrorStatus(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return "invalid-signature"
	case errors.Is(err, service.ErrOrderNotFound):
		return "not-found"
	case errors.Is(err, service.ErrAmountMismatch):
		return "amount-mismatch"
	}
	return "error"
}

func ipnErrorResponse(err error) (string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return "97", "Invalid Checksum"
	case errors.Is(err, service.ErrOrderNotFound):
		return "01", "Order Not Found"
	case errors.Is(err, service.ErrAmountMismatch):
		return "04", "Invalid Amount"
	}
	return "99", "Unknown Error"
}
