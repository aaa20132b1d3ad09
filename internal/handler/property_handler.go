package handler

import (
	"net/http"
	"strconv"

	"nhadat/internal/domain"
	"nhadat/internal/middleware"
	"nhadat/internal/models"
	"nhadat/internal/repository"

	"github.com/gin-gonic/gin"
)

type PropertyHandler struct {
	propertyRepo *repository.PropertyRepository
}

func NewPropertyHandler(propertyRepo *repository.PropertyRepository) *PropertyHandler {
	return &PropertyHandler{propertyRepo: propertyRepo}
}

type propertyRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Price       int64   `json:"price" binding:"required,min=1"`
	AreaM2      float64 `json:"area_m2"`
	Address     string  `json:"address" binding:"required"`
	District    string  `json:"district"`
	City        string  `json:"city" binding:"required"`
}

// Create submits a new listing; it enters the moderation queue as PENDING.
func (h *PropertyHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Property{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		AreaM2:      req.AreaM2,
		Address:     req.Address,
		District:    req.District,
		City:        req.City,
		Status:      domain.PropertyStatusPending,
	}
	if err := h.propertyRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"property": p})
}

// Get returns a listing; non-owners only see APPROVED ones.
func (h *PropertyHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.propertyRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if p.Status != domain.PropertyStatusApproved && p.OwnerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"property": p})
}

func (h *PropertyHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.propertyRepo.ListByOwner(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": list})
}

// Update edits an owned listing and sends it back through moderation.
func (h *PropertyHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.propertyRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if p.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Title = req.Title
	p.Description = req.Description
	p.Price = req.Price
	p.AreaM2 = req.AreaM2
	p.Address = req.Address
	p.District = req.District
	p.City = req.City
	p.Status = domain.PropertyStatusPending
	if err := h.propertyRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"property": p})
}

func (h *PropertyHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.propertyRepo.Delete(uint(id), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
