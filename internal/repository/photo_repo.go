package repository

import (
	"jmsmp/internal/models"

	"gorm.io/gorm"
)

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// AlbumStat aggregates per-album counters for a user's gallery.
type AlbumStat struct {
	Album      string `json:"album"`
	Count      int64  `json:"count"`
	TotalViews int64  `json:"total_views"`
}

func (r *PhotoRepository) Create(p *models.Photo) error {
	return r.db.Create(p).Error
}

func (r *PhotoRepository) GetByID(id uint) (*models.Photo, error) {
	var p models.Photo
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PhotoRepository) Update(p *models.Photo) error {
	return r.db.Save(p).Error
}

func (r *PhotoRepository) Delete(id uint) error {
	return r.db.Delete(&models.Photo{}, id).Error
}

func (r *PhotoRepository) ListByUser(username, album string, page, limit int) ([]models.Photo, int64, error) {
	q := r.db.Model(&models.Photo{}).Where("username = ?", username)
	if album != "" && album != "all" {
		q = q.Where("album = ?", album)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Photo
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListPublic returns the server-wide gallery. sort is newest|oldest|popular.
func (r *PhotoRepository) ListPublic(sort string, page, limit int) ([]models.Photo, int64, error) {
	q := r.db.Model(&models.Photo{}).Where("is_public = ?", true)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch sort {
	case "popular":
		q = q.Order("views DESC, created_at DESC")
	case "oldest":
		q = q.Order("created_at ASC")
	default:
		q = q.Order("created_at DESC")
	}
	var list []models.Photo
	err := q.Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *PhotoRepository) AlbumStats(username string) ([]AlbumStat, error) {
	var stats []AlbumStat
	err := r.db.Model(&models.Photo{}).
		Select("album, COUNT(*) AS count, COALESCE(SUM(views),0) AS total_views").
		Where("username = ?", username).
		Group("album").Scan(&stats).Error
	return stats, err
}

func (r *PhotoRepository) HasAlbum(username, album string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).
		Where("username = ? AND album = ?", username, album).Count(&count).Error
	return count > 0, err
}

func (r *PhotoRepository) IncrementViews(id uint) (*models.Photo, error) {
	if err := r.db.Model(&models.Photo{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return nil, err
	}
	return r.GetByID(id)
}
