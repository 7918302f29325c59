package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
)

// InstallmentService computes the installment options offered for a card
// brand at checkout.
type InstallmentService struct {
	cards CardConfigStore
}

func NewInstallmentService(cards CardConfigStore) *InstallmentService {
	return &InstallmentService{cards: cards}
}

// Options returns the computed installment options for a brand over a base
// amount. The brand config and its plans load concurrently; an unknown or
// inactive brand yields an unsupported-brand error.
func (s *InstallmentService) Options(ctx context.Context, brandCode string, amount float64) ([]fiserv.InstallmentOption, error) {
	var (
		cardConfig *model.CardConfig
		plans      []model.InstallmentPlan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cardConfig, err = s.cards.GetByCode(gctx, brandCode)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = s.cards.ActivePlans(gctx, brandCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cardConfig == nil {
		return nil, fmt.Errorf("%w: %s", fiserv.ErrUnsupportedCardBrand, brandCode)
	}

	gatewayPlans := make([]fiserv.Plan, 0, len(plans))
	for _, p := range plans {
		gatewayPlans = append(gatewayPlans, fiserv.Plan{
			Label:        p.Label,
			Installments: p.Installments,
			InterestRate: p.InterestRate,
			SendCode:     p.SendCode,
		})
	}

	return fiserv.InstallmentOptions(decimal.NewFromFloat(amount), gatewayPlans), nil
}

// Brands lists the active card brand configurations.
func (s *InstallmentService) Brands(ctx context.Context) ([]model.CardConfig, error) {
	return s.cards.ListActive(ctx)
}
