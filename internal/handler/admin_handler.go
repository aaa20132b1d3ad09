package handler

import (
	"net/http"
	"strconv"

	"nhadat/internal/domain"
	"nhadat/internal/models"
	"nhadat/internal/repository"
	"nhadat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	propertyRepo *repository.PropertyRepository
	userRepo     *repository.UserRepository
	walletRepo   *repository.WalletRepository
	notifSvc     *service.NotificationService
}

func NewAdminHandler(propertyRepo *repository.PropertyRepository, userRepo *repository.UserRepository, walletRepo *repository.WalletRepository, notifSvc *service.NotificationService) *AdminHandler {
	return &AdminHandler{propertyRepo: propertyRepo, userRepo: userRepo, walletRepo: walletRepo, notifSvc: notifSvc}
}

func (h *AdminHandler) ListPendingProperties(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.propertyRepo.ListPending(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": list})
}

func (h *AdminHandler) ApproveProperty(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.propertyRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err := h.propertyRepo.Approve(p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approve failed"})
		return
	}
	h.notifSvc.NotifyListingApproved(p.OwnerID, p.ID, p.Title)
	c.JSON(http.StatusOK, gin.H{"approved": true})
}

func (h *AdminHandler) RejectProperty(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)
	p, err := h.propertyRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err := h.propertyRepo.Reject(p.ID, req.Note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reject failed"})
		return
	}
	h.notifSvc.NotifyListingRejected(p.OwnerID, p.ID, req.Note)
	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

// AdjustWallet credits or debits a user's balance synchronously; the
// transaction is COMPLETED on creation.
func (h *AdminHandler) AdjustWallet(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	var req struct {
		Amount int64  `json:"amount" binding:"required,min=1"`
		Add    *bool  `json:"add" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.userRepo.GetByID(uint(userID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	add := *req.Add
	txnType := domain.TxnTypeAdminDeduct
	prefix := "ADM-D-"
	if add {
		txnType = domain.TxnTypeAdminAdd
		prefix = "ADM-A-"
	}
	txn := &models.WalletTransaction{
		UserID:      uint(userID),
		Amount:      req.Amount,
		Type:        txnType,
		Status:      domain.TxnStatusCompleted,
		Reference:   prefix + uuid.New().String(),
		Description: req.Note,
	}
	var err error
	if add {
		err = h.walletRepo.Credit(uint(userID), req.Amount, txn)
	} else {
		err = h.walletRepo.Debit(uint(userID), req.Amount, txn)
	}
	if err != nil {
		if err == repository.ErrInsufficientBalance {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "adjust failed"})
		return
	}
	h.notifSvc.NotifyWalletAdjusted(uint(userID), req.Amount, add)
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}
