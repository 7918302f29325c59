package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/diegonaranjo/fiserv-gateway/internal/dto"
	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/middleware"
	"github.com/diegonaranjo/fiserv-gateway/internal/service"
)

type PaymentHandler struct {
	payments      *service.PaymentService
	notifications *service.NotificationService
	returnURL     string
}

func NewPaymentHandler(
	payments *service.PaymentService,
	notifications *service.NotificationService,
	returnURL string,
) *PaymentHandler {
	return &PaymentHandler{
		payments:      payments,
		notifications: notifications,
		returnURL:     returnURL,
	}
}

// Prepare opens a transaction and returns the signed redirect parameters
// for the hosted payment page.
func (h *PaymentHandler) Prepare(c *gin.Context) {
	var req dto.PrepareRedirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	result, err := h.payments.Prepare(c.Request.Context(), service.PrepareRequest{
		OrderID:           req.OrderID,
		CardBrand:         req.CardBrand,
		Installments:      req.Installments,
		InterestRate:      req.InterestRate,
		TotalWithInterest: req.TotalWithInterest,
		Billing:           partnerFromPayload(req.Billing),
		Shipping:          partnerFromPayload(req.Shipping),
	})
	if err != nil {
		status, resp := middleware.MapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.PrepareRedirectResponse{
		Reference: result.Reference,
		APIURL:    result.APIURL,
		Params:    result.Params,
	})
}

// Status reports a transaction's current state so the merchant site can
// poll after the shopper returns from the hosted payment page.
func (h *PaymentHandler) Status(c *gin.Context) {
	txn, err := h.payments.Status(c.Request.Context(), c.Param("reference"))
	if err != nil {
		status, resp := middleware.MapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionResponse{
		Reference:         txn.Reference,
		OrderID:           txn.OrderID,
		State:             string(txn.State),
		Amount:            txn.Amount,
		TotalWithInterest: txn.TotalWithInterest,
		InterestAmount:    txn.InterestAmount,
		Installments:      txn.Installments,
		CardBrand:         txn.CardBrand,
		CardLast4:         txn.CardLast4,
		ErrorMessage:      txn.ErrorMessage,
		UpdatedAt:         txn.UpdatedAt,
	})
}

// Notify receives the server-to-server notification. The gateway only needs
// a 200; the body is informational.
func (h *PaymentHandler) Notify(c *gin.Context) {
	var form dto.GatewayCallbackForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "malformed notification: " + err.Error(),
		})
		return
	}

	if err := h.notifications.HandleNotification(c.Request.Context(), notificationFromForm(form)); err != nil {
		status, resp := middleware.MapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Return receives the browser redirect after payment. Errors are logged but
// the shopper is always sent back to the merchant status page.
func (h *PaymentHandler) Return(c *gin.Context) {
	var form dto.GatewayCallbackForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn().Err(err).Msg("malformed payment return")
		c.Redirect(http.StatusFound, h.returnURL)
		return
	}

	if err := h.notifications.HandleFeedback(c.Request.Context(), notificationFromForm(form)); err != nil {
		log.Warn().Err(err).Str("reference", form.OID).Msg("payment return processing")
	}
	c.Redirect(http.StatusFound, h.returnURL)
}

// Fail receives the browser redirect for a failed attempt.
func (h *PaymentHandler) Fail(c *gin.Context) {
	var form dto.GatewayCallbackForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn().Err(err).Msg("malformed payment failure")
		c.Redirect(http.StatusFound, h.returnURL)
		return
	}

	reason := form.FailReason
	if reason == "" {
		reason = form.StatusMessage
	}
	if err := h.notifications.HandleFailure(c.Request.Context(), form.OID, reason); err != nil {
		log.Warn().Err(err).Str("reference", form.OID).Msg("payment failure processing")
	}
	c.Redirect(http.StatusFound, h.returnURL)
}

func partnerFromPayload(p dto.PartnerPayload) fiserv.Partner {
	return fiserv.Partner{
		Name:        p.Name,
		Company:     p.Company,
		Street:      p.Street,
		Street2:     p.Street2,
		City:        p.City,
		StateCode:   p.StateCode,
		CountryCode: p.CountryCode,
		Zip:         p.Zip,
		Phone:       p.Phone,
		Email:       p.Email,
	}
}

func notificationFromForm(form dto.GatewayCallbackForm) service.Notification {
	return service.Notification{
		OrderID:          form.OID,
		Status:           form.Status,
		ApprovalCode:     form.ApprovalCode,
		ChargeTotal:      form.ChargeTotal,
		Currency:         form.Currency,
		TxnDatetime:      form.TxnDatetime,
		CardNumber:       form.CardNumber,
		CardHolder:       form.BName,
		PaymentMethod:    form.PaymentMethod,
		Installments:     form.NumberOfInstallments,
		ProviderTxnID:    form.IPGTransactionID,
		NotificationHash: form.NotificationHash,
		ResponseHash:     form.ResponseHash,
		FailReason:       form.FailReason,
		StatusMessage:    form.StatusMessage,
	}
}
