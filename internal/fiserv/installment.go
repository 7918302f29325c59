package fiserv

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// PlanZLabel names the Naranja single-settlement plan. It carries a blended
// coefficient and is never divided into installments.
const PlanZLabel = "Plan Z"

// Plan is one configured installment plan for a card brand.
type Plan struct {
	Label        string  // "1", "3", ... or "Plan Z"
	Installments int     // settlement count; ignored for Plan Z
	InterestRate float64 // percentage, e.g. 10.0
	SendCode     string  // gateway-facing numberOfInstallments value
}

// InstallmentOption is a computed payment option for a base amount.
type InstallmentOption struct {
	Installments      string          `json:"installments"`
	Coefficient       float64         `json:"coefficient"`
	InterestRate      float64         `json:"interest_rate"`
	TotalWithInterest decimal.Decimal `json:"total_with_interest"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	SendCode          string          `json:"installment_to_send"`
}

// Coefficient converts an interest rate percentage to its price multiplier.
func Coefficient(interestRate float64) decimal.Decimal {
	rate := decimal.NewFromFloat(interestRate)
	return decimal.New(1, 0).Add(rate.Div(decimal.New(100, 0)))
}

// InstallmentOptions computes the payment options for a base amount over the
// given plans. Per plan: total = round(amount * coefficient, 2) and the
// per-installment amount = round(total / count, 2). Plan Z settles in a
// single payment, so its installment amount equals its total. Options sort
// ascending by installment count with Plan Z always last.
func InstallmentOptions(amount decimal.Decimal, plans []Plan) []InstallmentOption {
	options := make([]InstallmentOption, 0, len(plans))
	for _, plan := range plans {
		coef := Coefficient(plan.InterestRate)
		total := amount.Mul(coef).Round(2)

		var perInstallment decimal.Decimal
		if plan.Label == PlanZLabel {
			perInstallment = total
		} else {
			if plan.Installments <= 0 {
				continue
			}
			perInstallment = total.Div(decimal.NewFromInt(int64(plan.Installments))).Round(2)
		}

		coefFloat, _ := coef.Float64()
		options = append(options, InstallmentOption{
			Installments:      plan.Label,
			Coefficient:       coefFloat,
			InterestRate:      plan.InterestRate,
			TotalWithInterest: total,
			InstallmentAmount: perInstallment,
			SendCode:          plan.SendCode,
		})
	}

	sort.Slice(options, func(i, j int) bool {
		return installmentSortKey(options[i].Installments) < installmentSortKey(options[j].Installments)
	})
	return options
}

func installmentSortKey(label string) int {
	if label == PlanZLabel {
		return 999
	}
	n, err := strconv.Atoi(label)
	if err != nil {
		return 998
	}
	return n
}
