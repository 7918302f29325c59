package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
	"github.com/diegonaranjo/fiserv-gateway/internal/repository"
)

// memStore is an in-memory implementation of the persistence ports shared
// by the service tests.
type memStore struct {
	orders map[string]*model.Order
	lines  map[string][]model.OrderLine
	txns   map[string]*model.Transaction
	cards  map[string]*model.CardConfig
	plans  map[string][]model.InstallmentPlan

	events       []auditRecord
	updateCalls  int
	confirmCalls int
	nextID       int
}

type auditRecord struct {
	category  string
	reference string
	payload   map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[string]*model.Order{},
		lines:  map[string][]model.OrderLine{},
		txns:   map[string]*model.Transaction{},
		cards:  map[string]*model.CardConfig{},
		plans:  map[string][]model.InstallmentPlan{},
	}
}

func (m *memStore) GetByReference(_ context.Context, reference string) (*model.Transaction, error) {
	txn, ok := m.txns[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fiserv.ErrTransactionNotFound, reference)
	}
	return txn, nil
}

func (m *memStore) FindReusable(_ context.Context, orderID string) (*model.Transaction, error) {
	for _, txn := range m.txns {
		if txn.OrderID == orderID && (txn.State == model.StateDraft || txn.State == model.StatePending) {
			return txn, nil
		}
	}
	return nil, nil
}

func (m *memStore) Insert(_ context.Context, t *model.Transaction) error {
	m.nextID++
	t.ID = fmt.Sprintf("txn-%d", m.nextID)
	m.txns[t.Reference] = t
	return nil
}

func (m *memStore) Update(_ context.Context, t *model.Transaction) error {
	if _, ok := m.txns[t.Reference]; !ok {
		return fmt.Errorf("%w: %s", fiserv.ErrTransactionNotFound, t.Reference)
	}
	m.txns[t.Reference] = t
	m.updateCalls++
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s not found", id)
	}
	return order, nil
}

func (m *memStore) Lines(_ context.Context, orderID string) ([]model.OrderLine, error) {
	return m.lines[orderID], nil
}

func (m *memStore) UpdateLinePrices(_ context.Context, updates []repository.LinePriceUpdate) error {
	for _, u := range updates {
		for orderID, lines := range m.lines {
			for i := range lines {
				if lines[i].ID == u.LineID {
					lines[i].PriceUnit = u.NewPrice
					lines[i].OriginalPrice = u.OriginalPrice
					lines[i].InterestCoefficient = u.Coefficient
					lines[i].PriceSubtotal = u.PriceSubtotal
					lines[i].PriceTotal = u.PriceTotal
					m.lines[orderID] = lines
				}
			}
		}
	}
	return nil
}

func (m *memStore) UpsertAdjustmentLine(_ context.Context, orderID string, price, priceTotal float64) error {
	lines := m.lines[orderID]
	for i := range lines {
		if lines[i].IsAdjustment {
			lines[i].PriceUnit = price
			lines[i].PriceSubtotal = price
			lines[i].PriceTotal = priceTotal
			m.lines[orderID] = lines
			return nil
		}
	}
	m.nextID++
	m.lines[orderID] = append(lines, model.OrderLine{
		ID:            fmt.Sprintf("line-%d", m.nextID),
		OrderID:       orderID,
		Description:   "Ajuste por redondeo tarjetas",
		Quantity:      1,
		PriceUnit:     price,
		PriceSubtotal: price,
		PriceTotal:    priceTotal,
		Taxed:         true,
		IsAdjustment:  true,
		Sequence:      999,
	})
	return nil
}

func (m *memStore) SetTotals(_ context.Context, orderID string, untaxed, tax, total float64, adjusted bool) error {
	order := m.orders[orderID]
	order.AmountUntaxed = untaxed
	order.AmountTax = tax
	order.AmountTotal = total
	order.AmountAdjusted = adjusted
	return nil
}

func (m *memStore) MarkAdjusted(_ context.Context, orderID string) error {
	m.orders[orderID].AmountAdjusted = true
	return nil
}

func (m *memStore) Confirm(_ context.Context, orderID string, amountPaid float64) error {
	order := m.orders[orderID]
	if order.State == model.OrderDraft || order.State == model.OrderSent {
		order.State = model.OrderConfirmed
		order.AmountPaid = amountPaid
	}
	m.confirmCalls++
	return nil
}

func (m *memStore) GetByCode(_ context.Context, code string) (*model.CardConfig, error) {
	return m.cards[code], nil
}

func (m *memStore) ActivePlans(_ context.Context, code string) ([]model.InstallmentPlan, error) {
	return m.plans[code], nil
}

func (m *memStore) ListActive(_ context.Context) ([]model.CardConfig, error) {
	var out []model.CardConfig
	for _, c := range m.cards {
		if c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) Append(_ context.Context, category, reference string, payload map[string]any) {
	m.events = append(m.events, auditRecord{category: category, reference: reference, payload: payload})
}

// gatewayHash reproduces the gateway's hex-then-SHA1 digest for building
// signed test payloads.
func gatewayHash(parts ...string) string {
	encoded := hex.EncodeToString([]byte(strings.Join(parts, "")))
	sum := sha1.Sum([]byte(encoded))
	return hex.EncodeToString(sum[:])
}
