package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegonaranjo/fiserv-gateway/internal/config"
	"github.com/diegonaranjo/fiserv-gateway/internal/dto"
	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
	"github.com/diegonaranjo/fiserv-gateway/internal/repository"
	"github.com/diegonaranjo/fiserv-gateway/internal/service"
)

// stubStore backs the handler tests with fixed fixtures.
type stubStore struct {
	order *model.Order
	txns  map[string]*model.Transaction
	cards map[string]*model.CardConfig
	plans map[string][]model.InstallmentPlan
}

func newStubStore() *stubStore {
	return &stubStore{
		order: &model.Order{
			ID: "ord-1", Name: "SO001", State: model.OrderDraft,
			AmountUntaxed: 1000, AmountTotal: 1000,
		},
		txns: map[string]*model.Transaction{},
		cards: map[string]*model.CardConfig{
			"NARANJA": {ID: "card-1", Code: "NARANJA", Name: "Naranja", Credit: true, Active: true},
		},
		plans: map[string][]model.InstallmentPlan{
			"NARANJA": {
				{Label: "1", Installments: 1, InterestRate: 0, SendCode: "1"},
				{Label: "3", Installments: 3, InterestRate: 10, SendCode: "3"},
			},
		},
	}
}

func (s *stubStore) GetByReference(_ context.Context, reference string) (*model.Transaction, error) {
	txn, ok := s.txns[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fiserv.ErrTransactionNotFound, reference)
	}
	return txn, nil
}

func (s *stubStore) FindReusable(_ context.Context, orderID string) (*model.Transaction, error) {
	for _, txn := range s.txns {
		if txn.OrderID == orderID && (txn.State == model.StateDraft || txn.State == model.StatePending) {
			return txn, nil
		}
	}
	return nil, nil
}

func (s *stubStore) Insert(_ context.Context, t *model.Transaction) error {
	t.ID = fmt.Sprintf("txn-%d", len(s.txns)+1)
	s.txns[t.Reference] = t
	return nil
}

func (s *stubStore) Update(_ context.Context, t *model.Transaction) error {
	s.txns[t.Reference] = t
	return nil
}

func (s *stubStore) GetByID(_ context.Context, id string) (*model.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, fmt.Errorf("order %s not found", id)
	}
	return s.order, nil
}

func (s *stubStore) Lines(_ context.Context, _ string) ([]model.OrderLine, error) {
	return []model.OrderLine{
		{ID: "line-a", OrderID: "ord-1", Quantity: 1, PriceUnit: 1000, PriceSubtotal: 1000, PriceTotal: 1000},
	}, nil
}

func (s *stubStore) UpdateLinePrices(_ context.Context, _ []repository.LinePriceUpdate) error {
	return nil
}

func (s *stubStore) UpsertAdjustmentLine(_ context.Context, _ string, _, _ float64) error {
	return nil
}

func (s *stubStore) SetTotals(_ context.Context, _ string, untaxed, tax, total float64, adjusted bool) error {
	s.order.AmountUntaxed = untaxed
	s.order.AmountTax = tax
	s.order.AmountTotal = total
	s.order.AmountAdjusted = adjusted
	return nil
}

func (s *stubStore) MarkAdjusted(_ context.Context, _ string) error {
	s.order.AmountAdjusted = true
	return nil
}

func (s *stubStore) Confirm(_ context.Context, _ string, amountPaid float64) error {
	s.order.State = model.OrderConfirmed
	s.order.AmountPaid = amountPaid
	return nil
}

func (s *stubStore) GetByCode(_ context.Context, code string) (*model.CardConfig, error) {
	return s.cards[code], nil
}

func (s *stubStore) ActivePlans(_ context.Context, code string) ([]model.InstallmentPlan, error) {
	return s.plans[code], nil
}

func (s *stubStore) ListActive(_ context.Context) ([]model.CardConfig, error) {
	var out []model.CardConfig
	for _, c := range s.cards {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubStore) Append(_ context.Context, _, _ string, _ map[string]any) {}

func newTestRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		StoreName:    "teststore",
		SharedSecret: "topsecret",
		Environment:  "test",
		BaseURL:      "https://shop.example.com",
		MerchantName: "Mi Tienda",
	}

	reconciler := service.NewReconcileService(store, service.FixedIVA{}, store)
	notifications := service.NewNotificationService(
		store, store, reconciler, store, cfg.StoreName, cfg.SharedSecret)
	payments := service.NewPaymentService(store, store, store, store, cfg)
	installments := service.NewInstallmentService(store)

	paymentHandler := NewPaymentHandler(payments, notifications, cfg.BaseURL+"/payment/status")
	installmentHandler := NewInstallmentHandler(installments)

	router := gin.New()
	payment := router.Group("/payment/fiserv")
	payment.POST("/prepare", paymentHandler.Prepare)
	payment.POST("/notify", paymentHandler.Notify)
	payment.POST("/return", paymentHandler.Return)
	payment.POST("/fail", paymentHandler.Fail)
	payment.GET("/transactions/:reference", paymentHandler.Status)
	payment.GET("/installments", installmentHandler.Options)
	payment.GET("/cards", installmentHandler.Cards)
	return router
}

func TestPrepareEndpoint(t *testing.T) {
	router := newTestRouter(newStubStore())

	t.Run("valid request", func(t *testing.T) {
		body := `{"order_id":"ord-1","card_brand":"NARANJA","installments":3,"interest_rate":10,"total_with_interest":1100,
			"billing":{"name":"Juan Perez","street":"Calle 1","city":"CABA","country_code":"AR","zip":"C1043"},
			"shipping":{"name":"Juan Perez","street":"Calle 1","city":"CABA","country_code":"AR","zip":"C1043"}}`

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/payment/fiserv/prepare", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp dto.PrepareRedirectResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Reference)
		assert.Equal(t, "https://test.ipg-online.com/connect/gateway/processing", resp.APIURL)
		assert.Equal(t, "1100", resp.Params["chargetotal"])
		assert.NotEmpty(t, resp.Params["hash"])
	})

	t.Run("missing order id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/payment/fiserv/prepare", strings.NewReader(`{"card_brand":"V"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported brand", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/payment/fiserv/prepare",
			strings.NewReader(`{"order_id":"ord-1","card_brand":"AMEX"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestNotifyEndpoint(t *testing.T) {
	store := newStubStore()
	store.txns["SO001-1700000000"] = &model.Transaction{
		ID: "txn-1", Reference: "SO001-1700000000", OrderID: "ord-1",
		Amount: 1100, TotalWithInterest: 1100, InterestAmount: 100,
		State: model.StateDraft,
	}
	router := newTestRouter(store)

	postForm := func(path string, form url.Values) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("unsigned notification rejected", func(t *testing.T) {
		w := postForm("/payment/fiserv/notify", url.Values{
			"oid":         {"SO001-1700000000"},
			"status":      {"APROBADO"},
			"chargetotal": {"1100"},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotContains(t, w.Body.String(), "topsecret")
	})

	t.Run("unknown reference", func(t *testing.T) {
		w := postForm("/payment/fiserv/notify", url.Values{"oid": {"missing"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing reference", func(t *testing.T) {
		w := postForm("/payment/fiserv/notify", url.Values{"status": {"APROBADO"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("browser return redirects", func(t *testing.T) {
		w := postForm("/payment/fiserv/return", url.Values{
			"oid":           {"SO001-1700000000"},
			"approval_code": {"Y:123456:4567:PPX :100"},
			"chargetotal":   {"1100"},
		})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://shop.example.com/payment/status", w.Header().Get("Location"))
		assert.Equal(t, model.StateDone, store.txns["SO001-1700000000"].State)
	})

	t.Run("browser fail redirects and records error", func(t *testing.T) {
		store.txns["SO001-1700000000"].State = model.StateDraft
		w := postForm("/payment/fiserv/fail", url.Values{
			"oid":         {"SO001-1700000000"},
			"fail_reason": {"Fondos insuficientes"},
		})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, model.StateError, store.txns["SO001-1700000000"].State)
		assert.Equal(t, "Fondos insuficientes", store.txns["SO001-1700000000"].ErrorMessage)
	})
}

func TestStatusEndpoint(t *testing.T) {
	store := newStubStore()
	store.txns["SO001-1700000000"] = &model.Transaction{
		ID: "txn-1", Reference: "SO001-1700000000", OrderID: "ord-1",
		Amount: 1100, TotalWithInterest: 1100, InterestAmount: 100,
		Installments: 3, CardBrand: "NARANJA", CardLast4: "4567",
		State: model.StatePending,
	}
	router := newTestRouter(store)

	t.Run("known reference", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/payment/fiserv/transactions/SO001-1700000000", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp dto.TransactionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "SO001-1700000000", resp.Reference)
		assert.Equal(t, "pending", resp.State)
		assert.Equal(t, 1100.0, resp.Amount)
		assert.Equal(t, 100.0, resp.InterestAmount)
		assert.Equal(t, "4567", resp.CardLast4)
	})

	t.Run("unknown reference", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/payment/fiserv/transactions/nope", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInstallmentsEndpoint(t *testing.T) {
	router := newTestRouter(newStubStore())

	t.Run("options for brand", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/payment/fiserv/installments?card_brand=NARANJA&amount=1000", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp dto.InstallmentOptionsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Options, 2)
		assert.Equal(t, "3", resp.Options[1].Installments)
		assert.Equal(t, "1100.00", resp.Options[1].TotalWithInterest)
		assert.Equal(t, "366.67", resp.Options[1].InstallmentAmount)
	})

	t.Run("missing params", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/payment/fiserv/installments?card_brand=NARANJA", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/payment/fiserv/installments?amount=1000", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cards list", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/payment/fiserv/cards", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "NARANJA")
	})
}
