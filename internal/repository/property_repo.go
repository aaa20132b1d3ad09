package repository

import (
	"time"

	"nhadat/internal/domain"
	"nhadat/internal/models"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(p *models.Property) error {
	return r.db.Create(p).Error
}

func (r *PropertyRepository) GetByID(id uint) (*models.Property, error) {
	var p models.Property
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepository) Update(p *models.Property) error {
	return r.db.Save(p).Error
}

func (r *PropertyRepository) Delete(id, ownerID uint) error {
	return r.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Property{}).Error
}

func (r *PropertyRepository) ListByOwner(ownerID uint, limit, offset int) ([]models.Property, error) {
	var list []models.Property
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *PropertyRepository) ListPending(limit, offset int) ([]models.Property, error) {
	var list []models.Property
	err := r.db.Where("status = ?", domain.PropertyStatusPending).Order("created_at ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *PropertyRepository) Approve(id uint) error {
	now := time.Now()
	return r.db.Model(&models.Property{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.PropertyStatusApproved, "approved_at": &now, "reject_note": ""}).Error
}

func (r *PropertyRepository) Reject(id uint, note string) error {
	return r.db.Model(&models.Property{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.PropertyStatusRejected, "reject_note": note}).Error
}

func (r *PropertyRepository) SetPremium(id uint, premium bool) error {
	return r.db.Model(&models.Property{}).Where("id = ?", id).Update("is_premium", premium).Error
}
