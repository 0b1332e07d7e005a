package repository

import (
	"time"

	"jmsmp/internal/domain"
	"jmsmp/internal/models"

	"gorm.io/gorm"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// ApplicationFilter narrows admin listings. Search matches the applicant's
// username or email, case-insensitive.
type ApplicationFilter struct {
	Type   string
	Status string
	Search string
}

func (r *ApplicationRepository) Create(a *models.Application) error {
	return r.db.Create(a).Error
}

func (r *ApplicationRepository) GetByID(id uint) (*models.Application, error) {
	var a models.Application
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// HasPending reports whether a pending application of the given type already
// exists for the username. This is a pre-check before insert, not a storage
// constraint; two concurrent submissions can both pass it.
func (r *ApplicationRepository) HasPending(username, appType string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Application{}).
		Where("username = ? AND type = ? AND status = ?", username, appType, domain.StatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *ApplicationRepository) Update(a *models.Application) error {
	return r.db.Save(a).Error
}

func (r *ApplicationRepository) SetTelegramMessageID(id uint, messageID int) error {
	return r.db.Model(&models.Application{}).Where("id = ?", id).
		Update("telegram_message_id", messageID).Error
}

// ListByUsername returns the applicant's own records, newest first.
func (r *ApplicationRepository) ListByUsername(username string, limit int) ([]models.Application, error) {
	var list []models.Application
	err := r.db.Where("username = ?", username).
		Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

// List returns filtered applications for admins, newest first.
func (r *ApplicationRepository) List(f ApplicationFilter, page, limit int) ([]models.Application, int64, error) {
	q := r.db.Model(&models.Application{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("username LIKE ? OR username IN (?)", pattern,
			r.db.Model(&models.User{}).Select("username").Where("email LIKE ?", pattern))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Application
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *ApplicationRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Application{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// DeleteRejectedBefore removes old rejected applications (retention).
func (r *ApplicationRepository) DeleteRejectedBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("status = ? AND created_at < ?", domain.StatusRejected, cutoff).
		Delete(&models.Application{})
	return res.RowsAffected, res.Error
}
