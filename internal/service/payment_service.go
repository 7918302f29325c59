package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diegonaranjo/fiserv-gateway/internal/config"
	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
)

// PrepareRequest carries everything needed to open (or reuse) a transaction
// and assemble the hosted payment page redirect for it.
type PrepareRequest struct {
	OrderID           string
	CardBrand         string
	Installments      int
	InterestRate      float64
	TotalWithInterest float64 // zero when the selected plan carries no interest
	Billing           fiserv.Partner
	Shipping          fiserv.Partner
}

// PrepareResult is the redirect payload plus the transaction it settles.
type PrepareResult struct {
	Reference string
	APIURL    string
	Params    map[string]string
}

// PaymentService opens transactions and builds gateway redirects. A pending
// or draft transaction on the same order is reused instead of piling up a
// new row per checkout attempt.
type PaymentService struct {
	transactions TransactionStore
	orders       OrderStore
	cards        CardConfigStore
	audit        AuditSink
	cfg          *config.Config
	now          func() time.Time
}

func NewPaymentService(
	transactions TransactionStore,
	orders OrderStore,
	cards CardConfigStore,
	audit AuditSink,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		transactions: transactions,
		orders:       orders,
		cards:        cards,
		audit:        audit,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Status returns the transaction a gateway reference points at, for
// merchant polling after the browser returns.
func (s *PaymentService) Status(ctx context.Context, reference string) (*model.Transaction, error) {
	return s.transactions.GetByReference(ctx, reference)
}

// Prepare opens or reuses a transaction for the order and returns the signed
// parameter set for the hosted payment page.
func (s *PaymentService) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResult, error) {
	if req.CardBrand != "" && !fiserv.IsSupportedBrand(req.CardBrand) {
		return nil, fmt.Errorf("%w: %s", fiserv.ErrUnsupportedCardBrand, req.CardBrand)
	}
	if req.CardBrand != "" {
		cardConfig, err := s.cards.GetByCode(ctx, req.CardBrand)
		if err != nil {
			return nil, err
		}
		if cardConfig == nil {
			return nil, fmt.Errorf("%w: %s not enabled", fiserv.ErrUnsupportedCardBrand, req.CardBrand)
		}
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	amount := order.AmountTotal
	totalWithInterest := req.TotalWithInterest

	// Amount carries the interest-inclusive total from preparation on, so
	// Amount minus InterestAmount always recovers the base order amount.
	settledAmount := amount
	interestAmount := 0.0
	if totalWithInterest > 0 {
		settledAmount = totalWithInterest
		interestAmount = fiserv.ToFloat(
			decimal.NewFromFloat(totalWithInterest).Sub(decimal.NewFromFloat(amount)))
	}

	txn, err := s.transactions.FindReusable(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		txn = &model.Transaction{
			Reference: fmt.Sprintf("%s-%d", order.Name, s.now().Unix()),
			OrderID:   order.ID,
			State:     model.StateDraft,
		}
	}

	txn.Amount = settledAmount
	txn.TotalWithInterest = totalWithInterest
	txn.InterestAmount = interestAmount
	txn.InterestRate = req.InterestRate
	txn.Installments = req.Installments
	txn.CardBrand = req.CardBrand

	if txn.ID == "" {
		err = s.transactions.Insert(ctx, txn)
	} else {
		err = s.transactions.Update(ctx, txn)
	}
	if err != nil {
		return nil, err
	}

	payload, err := fiserv.BuildRedirect(fiserv.RedirectRequest{
		StoreName:           s.cfg.StoreName,
		SharedSecret:        s.cfg.SharedSecret,
		Environment:         s.cfg.Environment,
		Reference:           txn.Reference,
		CardBrand:           req.CardBrand,
		Installments:        req.Installments,
		InterestRate:        req.InterestRate,
		Amount:              decimal.NewFromFloat(amount),
		TotalWithInterest:   decimal.NewFromFloat(totalWithInterest),
		BaseURL:             s.cfg.BaseURL,
		DynamicMerchantName: s.cfg.MerchantName,
		Billing:             req.Billing,
		Shipping:            req.Shipping,
		Now:                 s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, "redirect", txn.Reference, map[string]any{
		"order":        order.Name,
		"brand":        req.CardBrand,
		"installments": req.Installments,
		"charge_total": payload.Params["chargetotal"],
	})

	return &PrepareResult{
		Reference: txn.Reference,
		APIURL:    payload.APIURL,
		Params:    payload.Params,
	}, nil
}
