package fiserv

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoefficient(t *testing.T) {
	assert.True(t, Coefficient(0).Equal(decimal.RequireFromString("1")))
	assert.True(t, Coefficient(10).Equal(decimal.RequireFromString("1.1")))
	assert.True(t, Coefficient(44).Equal(decimal.RequireFromString("1.44")))
}

func TestInstallmentOptions(t *testing.T) {
	amount := decimal.NewFromInt(1000)

	t.Run("naranja plans", func(t *testing.T) {
		options := InstallmentOptions(amount, []Plan{
			{Label: "6", Installments: 6, InterestRate: 18, SendCode: "6"},
			{Label: "3", Installments: 3, InterestRate: 10, SendCode: "3"},
			{Label: "1", Installments: 1, InterestRate: 0, SendCode: "1"},
		})
		require.Len(t, options, 3)

		assert.Equal(t, "1", options[0].Installments)
		assert.Equal(t, "1000.00", options[0].TotalWithInterest.StringFixed(2))
		assert.Equal(t, "1000.00", options[0].InstallmentAmount.StringFixed(2))

		assert.Equal(t, "3", options[1].Installments)
		assert.Equal(t, "1100.00", options[1].TotalWithInterest.StringFixed(2))
		assert.Equal(t, "366.67", options[1].InstallmentAmount.StringFixed(2))

		assert.Equal(t, "6", options[2].Installments)
		assert.Equal(t, "1180.00", options[2].TotalWithInterest.StringFixed(2))
		assert.Equal(t, "196.67", options[2].InstallmentAmount.StringFixed(2))
	})

	t.Run("plan z sorts last and skips division", func(t *testing.T) {
		options := InstallmentOptions(amount, []Plan{
			{Label: PlanZLabel, InterestRate: 25, SendCode: "1"},
			{Label: "12", Installments: 12, InterestRate: 44, SendCode: "12"},
			{Label: "3", Installments: 3, InterestRate: 10, SendCode: "3"},
		})
		require.Len(t, options, 3)

		assert.Equal(t, "3", options[0].Installments)
		assert.Equal(t, "12", options[1].Installments)
		assert.Equal(t, PlanZLabel, options[2].Installments)

		planZ := options[2]
		assert.Equal(t, "1250.00", planZ.TotalWithInterest.StringFixed(2))
		assert.True(t, planZ.InstallmentAmount.Equal(planZ.TotalWithInterest))
	})

	t.Run("invalid installment count dropped", func(t *testing.T) {
		options := InstallmentOptions(amount, []Plan{
			{Label: "0", Installments: 0, InterestRate: 5},
			{Label: "3", Installments: 3, InterestRate: 10},
		})
		require.Len(t, options, 1)
		assert.Equal(t, "3", options[0].Installments)
	})

	t.Run("no plans", func(t *testing.T) {
		assert.Empty(t, InstallmentOptions(amount, nil))
	})
}
