package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/diegonaranjo/fiserv-gateway/internal/dto"
	"github.com/diegonaranjo/fiserv-gateway/internal/middleware"
	"github.com/diegonaranjo/fiserv-gateway/internal/service"
)

type InstallmentHandler struct {
	svc *service.InstallmentService
}

func NewInstallmentHandler(svc *service.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{svc: svc}
}

// Options computes the installment options for a card brand over an amount.
func (h *InstallmentHandler) Options(c *gin.Context) {
	brand := c.Query("card_brand")
	if brand == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{Error: "card_brand is required"})
		return
	}
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{Error: "amount must be a positive number"})
		return
	}

	options, err := h.svc.Options(c.Request.Context(), brand, amount)
	if err != nil {
		status, resp := middleware.MapError(err)
		c.JSON(status, resp)
		return
	}

	out := make([]dto.InstallmentOptionResponse, len(options))
	for i, opt := range options {
		out[i] = dto.InstallmentOptionResponse{
			Installments:      opt.Installments,
			InterestRate:      opt.InterestRate,
			Coefficient:       opt.Coefficient,
			TotalWithInterest: opt.TotalWithInterest.StringFixed(2),
			InstallmentAmount: opt.InstallmentAmount.StringFixed(2),
			SendCode:          opt.SendCode,
		}
	}

	c.JSON(http.StatusOK, dto.InstallmentOptionsResponse{
		CardBrand: brand,
		Amount:    amount,
		Options:   out,
	})
}

// Cards lists the active card brands.
func (h *InstallmentHandler) Cards(c *gin.Context) {
	brands, err := h.svc.Brands(c.Request.Context())
	if err != nil {
		status, resp := middleware.MapError(err)
		c.JSON(status, resp)
		return
	}

	out := make([]dto.CardBrandResponse, len(brands))
	for i, b := range brands {
		out[i] = dto.CardBrandResponse{
			Code:   b.Code,
			Name:   b.Name,
			Credit: b.Credit,
			Debit:  b.Debit,
		}
	}

	c.JSON(http.StatusOK, gin.H{"cards": out})
}
