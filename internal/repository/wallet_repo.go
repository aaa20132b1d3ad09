package repository

import (
	"errors"
	"time"

	"nhadat/internal/domain"
	"nhadat/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransactionNotPending means a terminal transition lost the race to
	// another delivery of the same callback; the row was already settled.
	ErrTransactionNotPending = errors.New("transaction is not pending")
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) CreateTransaction(t *models.WalletTransaction) error {
	return r.db.Create(t).Error
}

func (r *WalletRepository) GetByReference(ref string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := r.db.Where("reference = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *WalletRepository) ListByUser(userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// CompleteDeposit credits the user's balance and flips the transaction to
// COMPLETED as one unit. The status flip is guarded on PENDING so two
// simultaneously delivered callback legs cannot both credit: whichever leg
// loses the row update gets ErrTransactionNotPending and credits nothing.
func (r *WalletRepository) CompleteDeposit(t *models.WalletTransaction, gatewayTxnID string) error {
	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WalletTransaction{}).
			Where("id = ? AND status = ?", t.ID, domain.TxnStatusPending).
			Updates(map[string]interface{}{
				"status":         domain.TxnStatusCompleted,
				"gateway_txn_id": gatewayTxnID,
				"description":    t.Description,
				"completed_at":   &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTransactionNotPending
		}
		return tx.Model(&models.User{}).Where("id = ?", t.UserID).
			Update("balance", gorm.Expr("balance + ?", t.Amount)).Error
	})
	if err != nil {
		return err
	}
	t.Status = domain.TxnStatusCompleted
	t.GatewayTxnID = gatewayTxnID
	t.CompletedAt = &now
	return nil
}

// FailTransaction flips a PENDING transaction to FAILED, with the same guard
// as CompleteDeposit.
func (r *WalletRepository) FailTransaction(t *models.WalletTransaction, gatewayTxnID string) error {
	res := r.db.Model(&models.WalletTransaction{}).
		Where("id = ? AND status = ?", t.ID, domain.TxnStatusPending).
		Updates(map[string]interface{}{
			"status":         domain.TxnStatusFailed,
			"gateway_txn_id": gatewayTxnID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotPending
	}
	t.Status = domain.TxnStatusFailed
	t.GatewayTxnID = gatewayTxnID
	return nil
}

// Debit withdraws amount from the user's balance and records the given
// transactions (a withdrawal may carry a commission record alongside it).
// The guarded UPDATE keeps the balance non-negative under concurrent debits.
func (r *WalletRepository) Debit(userID uint, amount int64, txns ...*models.WalletTransaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		for _, t := range txns {
			if err := tx.Create(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Credit adds amount to the user's balance with a COMPLETED transaction
// record (admin adjustments and other synchronous credits).
func (r *WalletRepository) Credit(userID uint, amount int64, t *models.WalletTransaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}
