package repository

import (
	"time"

	"jmsmp/internal/domain"
	"jmsmp/internal/models"

	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// RoleStat is the per-role user count in the stats overview.
type RoleStat struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// DashboardStats is the admin console overview.
type DashboardStats struct {
	TotalUsers           int64      `json:"total_users"`
	OnlineUsers          int64      `json:"online_users"`
	PendingApplications  int64      `json:"pending_applications"`
	AcceptedApplications int64      `json:"accepted_applications"`
	TotalPhotos          int64      `json:"total_photos"`
	RecentRegistrations  int64      `json:"recent_registrations"`
	RoleStats            []RoleStat `json:"role_stats"`
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	if err := r.db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	// Online means seen within the last 15 minutes.
	if err := r.db.Model(&models.User{}).
		Where("last_seen >= ?", time.Now().Add(-15*time.Minute)).
		Count(&s.OnlineUsers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Application{}).
		Where("status = ?", domain.StatusPending).Count(&s.PendingApplications).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Application{}).
		Where("status = ?", domain.StatusAccepted).Count(&s.AcceptedApplications).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Photo{}).Count(&s.TotalPhotos).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.User{}).
		Where("created_at >= ?", time.Now().Add(-7*24*time.Hour)).
		Count(&s.RecentRegistrations).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.User{}).
		Select("role, COUNT(*) AS count").Group("role").Scan(&s.RoleStats).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
