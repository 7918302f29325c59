package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
)

// Notification is the consumed inbound payload, either a server-to-server
// notification or a browser-redirect feedback. Transient: consumed once per
// request, never persisted as-is.
type Notification struct {
	OrderID          string // oid
	Status           string
	ApprovalCode     string
	ChargeTotal      string
	Currency         string
	TxnDatetime      string
	CardNumber       string // masked, "..." delimited
	CardHolder       string
	PaymentMethod    string // card brand code
	Installments     string // number_of_installments
	ProviderTxnID    string
	NotificationHash string
	ResponseHash     string
	FailReason       string
	StatusMessage    string
}

// NotificationService is the transaction state machine. It serializes
// processing per transaction reference so near-simultaneous notifications
// cannot double-apply financial updates.
type NotificationService struct {
	transactions TransactionStore
	orders       OrderStore
	reconciler   *ReconcileService
	audit        AuditSink
	storeName    string
	sharedSecret string
	locks        sync.Map // map[string]*sync.Mutex per reference
}

func NewNotificationService(
	transactions TransactionStore,
	orders OrderStore,
	reconciler *ReconcileService,
	audit AuditSink,
	storeName, sharedSecret string,
) *NotificationService {
	return &NotificationService{
		transactions: transactions,
		orders:       orders,
		reconciler:   reconciler,
		audit:        audit,
		storeName:    storeName,
		sharedSecret: sharedSecret,
	}
}

// lockReference acquires the per-reference mutex. A caller may win a mutex
// that was already removed from the map while it waited; only the mutex
// currently stored grants entry, so stale acquisitions retry.
func (s *NotificationService) lockReference(reference string) *sync.Mutex {
	for {
		value, _ := s.locks.LoadOrStore(reference, &sync.Mutex{})
		mu := value.(*sync.Mutex)
		mu.Lock()
		if current, ok := s.locks.Load(reference); ok && current == mu {
			return mu
		}
		mu.Unlock()
	}
}

// unlockReference removes the mutex from the map before releasing it, so a
// waiter on the released mutex always fails the re-check in lockReference.
func (s *NotificationService) unlockReference(reference string, mu *sync.Mutex) {
	s.locks.Delete(reference)
	mu.Unlock()
}

// HandleNotification processes a server-to-server notification. The
// signature is verified before anything else; a transaction already done
// short-circuits as processed without re-mutating financial fields.
func (s *NotificationService) HandleNotification(ctx context.Context, n Notification) error {
	if n.OrderID == "" {
		return fiserv.ErrMissingReference
	}

	mu := s.lockReference(n.OrderID)
	defer s.unlockReference(n.OrderID, mu)

	txn, err := s.transactions.GetByReference(ctx, n.OrderID)
	if err != nil {
		return err
	}

	if txn.State == model.StateDone {
		s.audit.Append(ctx, "notification", txn.Reference, map[string]any{
			"status": n.Status, "result": "already_processed",
		})
		return nil
	}

	if !fiserv.VerifySignature(fiserv.NotificationParams{
		OrderID:          n.OrderID,
		ChargeTotal:      n.ChargeTotal,
		Currency:         n.Currency,
		TxnDatetime:      n.TxnDatetime,
		ApprovalCode:     n.ApprovalCode,
		NotificationHash: n.NotificationHash,
		ResponseHash:     n.ResponseHash,
	}, s.storeName, s.sharedSecret) {
		s.audit.Append(ctx, "error", txn.Reference, map[string]any{
			"error_type": "invalid_signature",
		})
		return fiserv.ErrInvalidSignature
	}

	if !txn.CanProcessNotification() {
		return fmt.Errorf("%w: %s is %s", fiserv.ErrInvalidTransactionState, txn.Reference, txn.State)
	}

	if err := s.applyNotificationData(txn, n); err != nil {
		return err
	}

	return s.processStatus(ctx, txn, n)
}

// HandleFeedback processes the browser-redirect success callback. Validation
// is looser than for notifications: no signature is required, only the
// approval code.
func (s *NotificationService) HandleFeedback(ctx context.Context, n Notification) error {
	if n.OrderID == "" {
		return fiserv.ErrMissingReference
	}

	mu := s.lockReference(n.OrderID)
	defer s.unlockReference(n.OrderID, mu)

	txn, err := s.transactions.GetByReference(ctx, n.OrderID)
	if err != nil {
		return err
	}

	if txn.State == model.StateDone {
		return nil
	}

	if n.ApprovalCode == "" {
		return fiserv.ErrMissingApprovalCode
	}

	statusCode := fiserv.StatusFromApprovalCode(n.ApprovalCode)
	txn.ApprovalCode = n.ApprovalCode
	txn.ResponseCode = statusCode
	if last4 := fiserv.MaskedCardLast4(n.CardNumber); last4 != "" {
		txn.CardLast4 = last4
	}
	if n.FailReason != "" {
		txn.ErrorMessage = n.FailReason
	} else if n.StatusMessage != "" {
		txn.ErrorMessage = n.StatusMessage
	}

	switch statusCode {
	case "Y":
		return s.processApproved(ctx, txn, n)
	case "N":
		txn.State = model.StateCancelled
		txn.ErrorMessage = "Payment declined by Fiserv"
	default:
		txn.State = model.StateError
		txn.ErrorMessage = "Invalid payment status received"
	}

	if err := s.transactions.Update(ctx, txn); err != nil {
		return err
	}
	s.logAttempt(ctx, txn, statusCode)
	return nil
}

// HandleFailure records a browser-reported failed attempt. Terminal
// transactions are left untouched.
func (s *NotificationService) HandleFailure(ctx context.Context, reference, reason string) error {
	if reference == "" {
		return fiserv.ErrMissingReference
	}

	mu := s.lockReference(reference)
	defer s.unlockReference(reference, mu)

	txn, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if !txn.CanProcessNotification() {
		return nil
	}

	txn.State = model.StateError
	if reason == "" {
		reason = "Payment failed"
	}
	txn.ErrorMessage = reason
	if err := s.transactions.Update(ctx, txn); err != nil {
		return err
	}
	s.logAttempt(ctx, txn, "FAILED")
	return nil
}

// applyNotificationData copies the payload's card and amount data onto the
// transaction. An unknown card brand is logged and degraded to unbranded
// rather than failing the notification.
func (s *NotificationService) applyNotificationData(txn *model.Transaction, n Notification) error {
	if n.PaymentMethod != "" {
		if fiserv.IsSupportedBrand(n.PaymentMethod) {
			txn.CardBrand = n.PaymentMethod
		} else {
			log.Warn().Str("reference", txn.Reference).Str("brand", n.PaymentMethod).
				Err(fiserv.ErrUnsupportedCardBrand).Msg("brand not in supported set")
			txn.CardBrand = ""
		}
	}

	txn.ApprovalCode = n.ApprovalCode
	if n.ProviderTxnID != "" {
		txn.ProviderTxnID = n.ProviderTxnID
	}
	if n.CardHolder != "" {
		txn.CardHolder = n.CardHolder
	}
	if last4 := fiserv.MaskedCardLast4(n.CardNumber); last4 != "" {
		txn.CardLast4 = last4
	}

	chargeTotal, err := fiserv.ParseAmount(n.ChargeTotal)
	if err != nil {
		return err
	}
	if installments, err := strconv.Atoi(n.Installments); err == nil && installments > 0 {
		txn.Installments = installments
	}

	// amount tracks the gateway total; interest is the gap to the base
	// amount the transaction was opened with.
	originalAmount := decimal.NewFromFloat(txn.Amount).Sub(decimal.NewFromFloat(txn.InterestAmount))
	txn.Amount = fiserv.ToFloat(chargeTotal)
	txn.TotalWithInterest = txn.Amount
	txn.InterestAmount = fiserv.ToFloat(chargeTotal.Sub(originalAmount))
	return nil
}

// processStatus classifies the gateway status and runs the matching
// transition.
func (s *NotificationService) processStatus(ctx context.Context, txn *model.Transaction, n Notification) error {
	switch {
	case n.Status == fiserv.StatusApproved:
		return s.processApproved(ctx, txn, n)

	case fiserv.PendingStatuses[n.Status]:
		txn.State = model.StatePending
		if err := s.transactions.Update(ctx, txn); err != nil {
			return err
		}
		s.logAttempt(ctx, txn, n.Status)
		return nil

	default:
		code := n.Status
		if n.ApprovalCode != "" {
			code = fiserv.NormalizeErrorCode(n.ApprovalCode)
		}
		txn.State = model.StateError
		txn.ErrorMessage = fiserv.ErrorMessage(code)
		if err := s.transactions.Update(ctx, txn); err != nil {
			return err
		}
		s.logAttempt(ctx, txn, n.Status)
		return nil
	}
}

// processApproved runs the approved-payment path: the transaction settles
// at the gateway total and every still-editable order is reconciled and
// confirmed. Reconciliation errors are logged and the order keeps its
// previously computed totals; they never abort the settlement.
func (s *NotificationService) processApproved(ctx context.Context, txn *model.Transaction, n Notification) error {
	chargeTotal, err := fiserv.ParseAmount(n.ChargeTotal)
	if err != nil {
		return err
	}
	if chargeTotal.IsZero() {
		chargeTotal = decimal.NewFromFloat(txn.Amount)
	}

	txn.State = model.StateDone
	txn.Amount = fiserv.ToFloat(chargeTotal)
	txn.TotalWithInterest = txn.Amount
	if err := s.transactions.Update(ctx, txn); err != nil {
		return err
	}
	s.logAttempt(ctx, txn, fiserv.StatusApproved)

	order, err := s.orders.GetByID(ctx, txn.OrderID)
	if err != nil {
		log.Error().Err(err).Str("reference", txn.Reference).Msg("order lookup after approval")
		return nil
	}
	if order.State != model.OrderDraft && order.State != model.OrderSent {
		return nil
	}

	if err := s.reconciler.Reconcile(ctx, order.ID, chargeTotal); err != nil {
		log.Error().Err(err).Str("order", order.Name).
			Msg("interest reconciliation failed, keeping computed totals")
	}
	if err := s.orders.Confirm(ctx, order.ID, txn.TotalWithInterest); err != nil {
		log.Error().Err(err).Str("order", order.Name).Msg("order confirmation failed")
	}
	return nil
}

// logAttempt emits the advisory audit record for a transition. Failures
// inside the sink never block the transition.
func (s *NotificationService) logAttempt(ctx context.Context, txn *model.Transaction, status string) {
	s.audit.Append(ctx, "notification", txn.Reference, map[string]any{
		"status":       status,
		"state":        string(txn.State),
		"amount":       txn.Amount,
		"installments": txn.Installments,
		"error":        txn.ErrorMessage,
	})
}
