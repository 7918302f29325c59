package model

import (
	"time"
)

// TransactionState is the lifecycle state of a payment transaction.
// done, cancelled and error are terminal for the normal flow; error may be
// revisited by a corrective notification.
type TransactionState string

const (
	StateDraft     TransactionState = "draft"
	StatePending   TransactionState = "pending"
	StateDone      TransactionState = "done"
	StateCancelled TransactionState = "cancelled"
	StateError     TransactionState = "error"
)

// ProcessableStates are the states in which a transaction may receive a
// gateway notification.
var ProcessableStates = []TransactionState{StateDraft, StatePending, StateError}

// OrderState mirrors the merchant order lifecycle. Orders are adjustable
// only while draft or sent.
type OrderState string

const (
	OrderDraft     OrderState = "draft"
	OrderSent      OrderState = "sent"
	OrderConfirmed OrderState = "sale"
	OrderCancelled OrderState = "cancelled"
)

// Transaction is one payment attempt against the gateway. Amount carries
// the interest-inclusive total from redirect preparation on; InterestAmount
// is always Amount minus the base order amount.
type Transaction struct {
	ID                string           `json:"id"`
	Reference         string           `json:"reference"`
	OrderID           string           `json:"order_id"`
	ProviderTxnID     string           `json:"provider_txn_id,omitempty"`
	Amount            float64          `json:"amount"`
	TotalWithInterest float64          `json:"total_with_interest"`
	InterestAmount    float64          `json:"interest_amount"`
	InterestRate      float64          `json:"interest_rate"`
	Installments      int              `json:"installments"`
	CardBrand         string           `json:"card_brand,omitempty"`
	CardLast4         string           `json:"card_last4,omitempty"`
	CardHolder        string           `json:"card_holder,omitempty"`
	ApprovalCode      string           `json:"approval_code,omitempty"`
	ResponseCode      string           `json:"response_code,omitempty"`
	ErrorMessage      string           `json:"error_message,omitempty"`
	State             TransactionState `json:"state"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CanProcessNotification reports whether the transaction may receive a
// gateway notification in its current state.
func (t *Transaction) CanProcessNotification() bool {
	for _, s := range ProcessableStates {
		if t.State == s {
			return true
		}
	}
	return false
}

// Order aggregates the transactions settling it. Only the most recent done
// transaction is authoritative for its totals.
type Order struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	State          OrderState `json:"state"`
	AmountUntaxed  float64    `json:"amount_untaxed"`
	AmountTax      float64    `json:"amount_tax"`
	AmountTotal    float64    `json:"amount_total"`
	AmountPaid     float64    `json:"amount_paid"`
	AmountAdjusted bool       `json:"amount_adjusted"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsAdjustable reports whether the reconciliation engine may still touch
// this order's lines.
func (o *Order) IsAdjustable() bool {
	return (o.State == OrderDraft || o.State == OrderSent) && !o.AmountAdjusted
}

// OrderLine is one priced line of an order. Adjustment lines absorb the
// rounding residue between local and gateway totals and are excluded from
// proportional price adjustments.
type OrderLine struct {
	ID                  string  `json:"id"`
	OrderID             string  `json:"order_id"`
	Description         string  `json:"description"`
	Quantity            float64 `json:"quantity"`
	PriceUnit           float64 `json:"price_unit"`
	OriginalPrice       float64 `json:"original_price,omitempty"`
	InterestCoefficient float64 `json:"interest_coefficient,omitempty"`
	PriceSubtotal       float64 `json:"price_subtotal"`
	PriceTotal          float64 `json:"price_total"`
	Taxed               bool    `json:"taxed"`
	IsAdjustment        bool    `json:"is_adjustment"`
	Sequence            int     `json:"sequence"`
}

// CardConfig is a card brand's capability set plus its installment plans.
// Brand codes are unique; seeded once from the static brand table and
// user-editable afterwards.
type CardConfig struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Credit    bool              `json:"credit"`
	Debit     bool              `json:"debit"`
	Active    bool              `json:"active"`
	Plans     []InstallmentPlan `json:"plans,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// InstallmentPlan is one installment option configured for a card brand.
// Installment counts are unique per brand.
type InstallmentPlan struct {
	ID           string  `json:"id"`
	CardConfigID string  `json:"card_config_id"`
	Label        string  `json:"label"`
	Installments int     `json:"installments"`
	InterestRate float64 `json:"interest_rate"`
	SendCode     string  `json:"installment_to_send"`
	Active       bool    `json:"active"`
}

// AuditEvent is one best-effort audit record. Persisting it never blocks a
// state transition.
type AuditEvent struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Reference string         `json:"reference,omitempty"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
