package models

import (
	"time"

	"jmsmp/internal/domain"
)

type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"uniqueIndex;size:20;not null" json:"username"`
	Email             string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	Role              string    `gorm:"size:32;not null;index;default:'Игрок'" json:"role"`
	ApplicationStatus string    `gorm:"size:16;not null;default:'pending'" json:"application_status"`
	AvatarURL         string    `gorm:"size:512" json:"avatar_url"`
	BannerURL         string    `gorm:"size:512" json:"banner_url"`
	PhotosCount       int       `gorm:"default:0" json:"photos_count"`
	LastSeen          time.Time `json:"last_seen"`
	CreatedAt         time.Time `json:"registration_date"`
	UpdatedAt         time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsApproved() bool { return u.ApplicationStatus == domain.StatusAccepted }
