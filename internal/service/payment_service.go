package service

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"nhadat/config"
	"nhadat/internal/domain"
	"nhadat/internal/models"
	"nhadat/internal/repository"
	"nhadat/pkg/vnpay"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAmountOutOfRange = errors.New("amount outside topup bounds")
	ErrInvalidSignature = errors.New("invalid gateway signature")
	ErrOrderNotFound    = errors.New("order reference not found")
	ErrAmountMismatch   = errors.New("gateway amount does not match transaction")
)

// WalletStore is the transactional wallet persistence the reconciliation
// logic needs. CompleteDeposit applies balance credit and status flip as one
// unit and returns repository.ErrTransactionNotPending when another delivery
// settled the row first; Debit is balance-guarded.
type WalletStore interface {
	CreateTransaction(t *models.WalletTransaction) error
	GetByReference(ref string) (*models.WalletTransaction, error)
	CompleteDeposit(t *models.WalletTransaction, gatewayTxnID string) error
	FailTransaction(t *models.WalletTransaction, gatewayTxnID string) error
	Debit(userID uint, amount int64, txns ...*models.WalletTransaction) error
}

// PaymentService owns topup creation and gateway callback reconciliation.
// The return redirect and the IPN both funnel into ProcessCallback so the
// verification and idempotency rules cannot drift apart.
type PaymentService struct {
	cfg     *config.Config
	wallet  WalletStore
	gateway *vnpay.Client
}

func NewPaymentService(cfg *config.Config, wallet WalletStore, gateway *vnpay.Client) *PaymentService {
	return &PaymentService{cfg: cfg, wallet: wallet, gateway: gateway}
}

// CreateTopup validates the amount, records a PENDING DEPOSIT transaction
// keyed by a fresh order reference and returns the signed redirect URL.
func (s *PaymentService) CreateTopup(userID uint, amount int64, bankCode, clientIP string) (string, *models.WalletTransaction, error) {
	if amount < s.cfg.Wallet.MinTopup || amount > s.cfg.Wallet.MaxTopup {
		return "", nil, ErrAmountOutOfRange
	}
	ref := "DEP-" + uuid.New().String()
	txn := &models.WalletTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        domain.TxnTypeDeposit,
		Status:      domain.TxnStatusPending,
		Reference:   ref,
		Description: fmt.Sprintf("Nap tien vi %d VND", amount),
	}
	if err := s.wallet.CreateTransaction(txn); err != nil {
		return "", nil, err
	}
	payURL := s.gateway.BuildPaymentURL(vnpay.PayRequest{
		TxnRef:    ref,
		Amount:    amount,
		OrderInfo: txn.Description,
		ClientIP:  clientIP,
		BankCode:  bankCode,
		Expire:    s.cfg.VNPay.Expiry,
	})
	return payURL, txn, nil
}

// CallbackResult is the outcome of one callback delivery.
type CallbackResult struct {
	Reference string
	UserID    uint
	Amount    int64
	Status    string // final transaction status
	Success   bool   // the deposit is (or already was) credited
	Duplicate bool   // transaction was already terminal; nothing mutated
}

// ProcessCallback applies the shared verification/state machine to one
// gateway callback, regardless of which entry point delivered it:
// signature, order lookup, idempotency short-circuit, amount check, then a
// single atomic credit+complete or a fail flip.
func (s *PaymentService) ProcessCallback(params url.Values) (*CallbackResult, error) {
	if !s.gateway.VerifyCallback(params) {
		return nil, ErrInvalidSignature
	}
	ref := params.Get("vnp_TxnRef")
	txn, err := s.wallet.GetByReference(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if txn.Status != domain.TxnStatusPending {
		// Duplicate or out-of-order delivery: already terminal, report the
		// prior outcome and mutate nothing.
		return &CallbackResult{
			Reference: ref,
			UserID:    txn.UserID,
			Amount:    txn.Amount,
			Status:    txn.Status,
			Success:   txn.Status == domain.TxnStatusCompleted,
			Duplicate: true,
		}, nil
	}
	reported, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil || reported != txn.Amount*100 {
		return nil, ErrAmountMismatch
	}
	gatewayTxnID := params.Get("vnp_TransactionNo")
	if params.Get("vnp_ResponseCode") == vnpay.RespCodeSuccess {
		txn.Description = fmt.Sprintf("Nap tien vi %d VND (VNPay txn %s)", txn.Amount, gatewayTxnID)
		if err := s.wallet.CompleteDeposit(txn, gatewayTxnID); err != nil {
			if errors.Is(err, repository.ErrTransactionNotPending) {
				return s.settledElsewhere(ref)
			}
			return nil, err
		}
		return &CallbackResult{
			Reference: ref,
			UserID:    txn.UserID,
			Amount:    txn.Amount,
			Status:    domain.TxnStatusCompleted,
			Success:   true,
		}, nil
	}
	if err := s.wallet.FailTransaction(txn, gatewayTxnID); err != nil {
		if errors.Is(err, repository.ErrTransactionNotPending) {
			return s.settledElsewhere(ref)
		}
		return nil, err
	}
	return &CallbackResult{
		Reference: ref,
		UserID:    txn.UserID,
		Amount:    txn.Amount,
		Status:    domain.TxnStatusFailed,
	}, nil
}

// settledElsewhere reports the final state after this delivery lost the
// terminal-transition race to a concurrent leg of the same callback.
func (s *PaymentService) settledElsewhere(ref string) (*CallbackResult, error) {
	final, err := s.wallet.GetByReference(ref)
	if err != nil {
		return nil, err
	}
	return &CallbackResult{
		Reference: ref,
		UserID:    final.UserID,
		Amount:    final.Amount,
		Status:    final.Status,
		Success:   final.Status == domain.TxnStatusCompleted,
		Duplicate: true,
	}, nil
}

// Withdraw debits the balance synchronously, taking the platform commission
// on top of the paid-out amount. Both records settle in one transaction.
func (s *PaymentService) Withdraw(userID uint, amount int64, note string) (*models.WalletTransaction, *models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, nil, ErrAmountOutOfRange
	}
	fee := int64(float64(amount) * s.cfg.Wallet.CommissionRate)
	txn := &models.WalletTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        domain.TxnTypeWithdraw,
		Status:      domain.TxnStatusCompleted,
		Reference:   "WDR-" + uuid.New().String(),
		Description: note,
	}
	txns := []*models.WalletTransaction{txn}
	var feeTxn *models.WalletTransaction
	if fee > 0 {
		feeTxn = &models.WalletTransaction{
			UserID:      userID,
			Amount:      fee,
			Type:        domain.TxnTypeCommission,
			Status:      domain.TxnStatusCompleted,
			Reference:   "COM-" + uuid.New().String(),
			Description: fmt.Sprintf("Phi rut tien %d VND", amount),
		}
		txns = append(txns, feeTxn)
	}
	if err := s.wallet.Debit(userID, amount+fee, txns...); err != nil {
		return nil, nil, err
	}
	return txn, feeTxn, nil
}
