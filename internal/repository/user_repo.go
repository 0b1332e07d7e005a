package repository

import (
	"time"

	"jmsmp/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) TouchLastSeen(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_seen", time.Now()).Error
}

// UpdateMembership sets the user's application status and, when role is
// non-nil, overwrites the role in the same statement.
func (r *UserRepository) UpdateMembership(username, status string, role *string) error {
	updates := map[string]interface{}{"application_status": status}
	if role != nil {
		updates["role"] = *role
	}
	res := r.db.Model(&models.User{}).Where("username = ?", username).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) UpdateRole(username, role string) (*models.User, error) {
	u, err := r.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := r.db.Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// List returns users filtered by optional role and username/email substring,
// newest registrations first.
func (r *UserRepository) List(search, role string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

// ListIDs returns every user id; used by broadcast fanout.
func (r *UserRepository) ListIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).Pluck("id", &ids).Error
	return ids, err
}

// FindAdminByTelegram matches a Telegram username against admin accounts.
// The original console keys the mapping on the admin's email local part.
func (r *UserRepository) FindAdminByTelegram(tgUsername string, adminRoles []string) (*models.User, error) {
	var u models.User
	err := r.db.Where("role IN ?", adminRoles).
		Where("username = ? OR email = ? OR email LIKE ?", tgUsername, tgUsername, tgUsername+"@%").
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteInactiveRejected removes rejected players not seen since cutoff.
// Retention only; never part of the normal lifecycle.
func (r *UserRepository) DeleteInactiveRejected(cutoff time.Time, role string) (int64, error) {
	res := r.db.Where("application_status = ? AND last_seen < ? AND role = ?", "rejected", cutoff, role).
		Delete(&models.User{})
	return res.RowsAffected, res.Error
}
