package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"nhadat/internal/domain"
	"nhadat/internal/middleware"
	"nhadat/internal/models"
	"nhadat/internal/repository"
	"nhadat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WalletHandler struct {
	userRepo     *repository.UserRepository
	walletRepo   *repository.WalletRepository
	propertyRepo *repository.PropertyRepository
	paymentSvc   *service.PaymentService
}

func NewWalletHandler(userRepo *repository.UserRepository, walletRepo *repository.WalletRepository, propertyRepo *repository.PropertyRepository, paymentSvc *service.PaymentService) *WalletHandler {
	return &WalletHandler{userRepo: userRepo, walletRepo: walletRepo, propertyRepo: propertyRepo, paymentSvc: paymentSvc}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": u.Balance, "currency": "VND"})
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.walletRepo.ListByUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

// CreateTopup starts a gateway deposit and returns the redirect URL the
// client should send the user to.
func (h *WalletHandler) CreateTopup(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount   int64  `json:"amount" binding:"required,min=1"`
		BankCode string `json:"bank_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payURL, txn, err := h.paymentSvc.CreateTopup(userID, req.Amount, req.BankCode, c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrAmountOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount outside allowed topup range"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "topup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_url": payURL, "reference": txn.Reference})
}

// Withdraw debits the balance synchronously; the transaction is COMPLETED
// on creation, there is no asynchronous leg. The platform commission is
// debited alongside the paid-out amount.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount int64  `json:"amount" binding:"required,min=1"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txn, feeTxn, err := h.paymentSvc.Withdraw(userID, req.Amount, req.Note)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdraw failed"})
		return
	}
	resp := gin.H{"transaction": txn}
	if feeTxn != nil {
		resp["commission"] = feeTxn
	}
	c.JSON(http.StatusOK, resp)
}

// UpgradePremium debits the premium fee and flags the caller's listing.
func (h *WalletHandler) UpgradePremium(cfgFee int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		propertyID, _ := strconv.ParseUint(c.Param("property_id"), 10, 64)
		if propertyID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property_id"})
			return
		}
		prop, err := h.propertyRepo.GetByID(uint(propertyID))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if prop.OwnerID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
			return
		}
		if prop.IsPremium {
			c.JSON(http.StatusOK, gin.H{"property": prop})
			return
		}
		pid := prop.ID
		txn := &models.WalletTransaction{
			UserID:      userID,
			Amount:      cfgFee,
			Type:        domain.TxnTypePremiumUpgrade,
			Status:      domain.TxnStatusCompleted,
			Reference:   "PRM-" + uuid.New().String(),
			PropertyID:  &pid,
			Description: fmt.Sprintf("Nang cap tin VIP #%d", prop.ID),
		}
		if err := h.walletRepo.Debit(userID, cfgFee, txn); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upgrade failed"})
			return
		}
		if err := h.propertyRepo.SetPremium(prop.ID, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upgrade failed"})
			return
		}
		prop.IsPremium = true
		c.JSON(http.StatusOK, gin.H{"property": prop, "transaction": txn})
	}
}
