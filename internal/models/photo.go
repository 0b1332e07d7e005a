package models

import (
	"encoding/json"
	"time"
)

// Photo is a gallery entry. Likes holds a JSON list of usernames.
type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:20;not null;index" json:"username"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url"`
	Album        string    `gorm:"size:64;not null;default:'default';index" json:"album"`
	IsPublic     bool      `gorm:"not null;default:true;index" json:"is_public"`
	Likes        string    `gorm:"type:text" json:"-"` // JSON list of usernames
	Views        int       `gorm:"default:0" json:"views"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (Photo) TableName() string { return "photos" }

func (p *Photo) LikeList() []string {
	var list []string
	if p.Likes != "" {
		_ = json.Unmarshal([]byte(p.Likes), &list)
	}
	return list
}

func (p *Photo) SetLikes(list []string) {
	b, _ := json.Marshal(list)
	p.Likes = string(b)
}

func (p *Photo) HasLike(username string) bool {
	for _, u := range p.LikeList() {
		if u == username {
			return true
		}
	}
	return false
}

// ToggleLike adds or removes username and reports whether the photo is
// liked afterwards.
func (p *Photo) ToggleLike(username string) bool {
	list := p.LikeList()
	for i, u := range list {
		if u == username {
			p.SetLikes(append(list[:i], list[i+1:]...))
			return false
		}
	}
	p.SetLikes(append(list, username))
	return true
}

func (p *Photo) LikesCount() int { return len(p.LikeList()) }
