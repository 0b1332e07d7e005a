package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jmsmp/internal/middleware"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"
	"jmsmp/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GalleryHandler struct {
	photos *repository.PhotoRepository
	users  *repository.UserRepository
	cloud  cloudinary.Client
}

func NewGalleryHandler(photos *repository.PhotoRepository, users *repository.UserRepository, cloud cloudinary.Client) *GalleryHandler {
	return &GalleryHandler{photos: photos, users: users, cloud: cloud}
}

// My returns the caller's gallery with per-album stats.
func (h *GalleryHandler) My(c *gin.Context) {
	u := middleware.GetUser(c)
	page, limit := parsePagination(c, 20)
	photos, total, err := h.photos.ListByUser(u.Username, c.Query("album"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	stats, err := h.photos.AlbumStats(u.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"photos":      photos,
		"albumStats":  stats,
		"total":       total,
		"totalPages":  (total + int64(limit) - 1) / int64(limit),
		"currentPage": page,
	})
}

// Public returns the server-wide gallery; no authentication required.
func (h *GalleryHandler) Public(c *gin.Context) {
	page, limit := parsePagination(c, 30)
	photos, total, err := h.photos.ListPublic(c.DefaultQuery("sort", "newest"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"photos":      photos,
		"total":       total,
		"totalPages":  (total + int64(limit) - 1) / int64(limit),
		"currentPage": page,
	})
}

// Upload accepts up to 10 photos in one multipart request.
func (h *GalleryHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["photos"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файлы не загружены"})
		return
	}
	files := form.File["photos"]
	if len(files) > 10 {
		files = files[:10]
	}
	u := middleware.GetUser(c)
	album := c.DefaultPostForm("album", "default")
	description := c.PostForm("description")

	uploaded := make([]models.Photo, 0, len(files))
	for _, file := range files {
		f, err := file.Open()
		if err != nil {
			continue
		}
		publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
		url, thumb, err := h.cloud.UploadImage(c.Request.Context(), f, "jmsmp/gallery/"+u.Username+"/"+album, publicID)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка загрузки файлов"})
			return
		}
		photo := models.Photo{
			Username:     u.Username,
			OriginalName: file.Filename,
			URL:          url,
			ThumbnailURL: thumb,
			Album:        album,
			Description:  description,
		}
		if err := h.photos.Create(&photo); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка загрузки файлов"})
			return
		}
		uploaded = append(uploaded, photo)
	}

	u.PhotosCount += len(uploaded)
	if err := h.users.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Успешно загружено " + strconv.Itoa(len(uploaded)) + " фото",
		"photos":  uploaded,
	})
}

type CreateAlbumRequest struct {
	AlbumName string `json:"albumName" binding:"required,min=2"`
}

func (h *GalleryHandler) CreateAlbum(c *gin.Context) {
	var req CreateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название альбома должно быть не менее 2 символов"})
		return
	}
	u := middleware.GetUser(c)
	exists, err := h.photos.HasAlbum(u.Username, req.AlbumName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Альбом с таким названием уже существует"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Альбом создан", "album": req.AlbumName})
}

// Like toggles the caller's like on a photo.
func (h *GalleryHandler) Like(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	photo, err := h.photos.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Фото не найдено"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	u := middleware.GetUser(c)
	liked := photo.ToggleLike(u.Username)
	if err := h.photos.Update(photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likesCount": photo.LikesCount()})
}

// View bumps the view counter and returns the photo.
func (h *GalleryHandler) View(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	photo, err := h.photos.IncrementViews(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Фото не найдено"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo})
}

// Delete removes the caller's own photo and its stored media.
func (h *GalleryHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	u := middleware.GetUser(c)
	photo, err := h.photos.GetByID(uint(id))
	if err != nil || photo.Username != u.Username {
		c.JSON(http.StatusNotFound, gin.H{"error": "Фото не найдено или нет прав для удаления"})
		return
	}
	// Best effort: the DB row is authoritative.
	_ = h.cloud.DeleteByURL(c.Request.Context(), photo.URL)
	if err := h.photos.Delete(photo.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	if u.PhotosCount > 0 {
		u.PhotosCount--
		_ = h.users.Update(u)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Фото удалено"})
}
