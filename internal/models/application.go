package models

import (
	"encoding/json"
	"time"

	"jmsmp/internal/domain"
)

// Application is a membership request. It references the applicant by
// username (weak reference, not an ownership edge) and transitions exactly
// once from pending to accepted/rejected.
type Application struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:20;not null;index" json:"username"`
	Type     string `gorm:"size:16;not null;index" json:"type"` // server | studio
	Status   string `gorm:"size:16;not null;index;default:'pending'" json:"status"`
	Answers  string `gorm:"type:text" json:"-"` // JSON answer map

	ReviewedBy *string    `gorm:"size:64" json:"reviewed_by"`
	ReviewedAt *time.Time `json:"review_date"`

	// TelegramMessageID correlates the review card posted to the admin chat
	// so the bot can edit it after a decision.
	TelegramMessageID *int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (Application) TableName() string { return "applications" }

func (a *Application) IsPending() bool { return a.Status == domain.StatusPending }

// AnswerMap decodes the stored answers column.
func (a *Application) AnswerMap() map[string]string {
	m := map[string]string{}
	if a.Answers != "" {
		_ = json.Unmarshal([]byte(a.Answers), &m)
	}
	return m
}

// SetAnswers encodes and stores the answer map.
func (a *Application) SetAnswers(answers map[string]string) {
	b, _ := json.Marshal(answers)
	a.Answers = string(b)
}
