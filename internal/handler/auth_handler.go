package handler

import (
	"net/http"
	"strings"

	"jmsmp/internal/middleware"
	"jmsmp/internal/repository"
	"jmsmp/internal/service"
	"jmsmp/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	svc   *service.AuthService
	users *repository.UserRepository
	cloud cloudinary.Client
}

func NewAuthHandler(svc *service.AuthService, users *repository.UserRepository, cloud cloudinary.Client) *AuthHandler {
	return &AuthHandler{svc: svc, users: users, cloud: cloud}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, token, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch err {
		case service.ErrUsernameTaken, service.ErrEmailTaken, service.ErrInvalidUsername:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера при регистрации"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Аккаунт успешно создан",
		"token":   token,
		"user":    u,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		if err == service.ErrInvalidCreds {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера при входе"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Вход выполнен успешно",
		"token":   token,
		"user":    u,
	})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.GetUser(c)})
}

type UpdateProfileRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := middleware.GetUser(c)
	updated, err := h.svc.UpdateProfile(u.ID, req.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch err {
		case service.ErrEmailTaken, service.ErrInvalidCreds:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Профиль обновлен", "user": updated})
}

// UploadAvatar stores the image in media storage and saves the reference.
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	url, ok := h.uploadImage(c, "avatars")
	if !ok {
		return
	}
	u := middleware.GetUser(c)
	u.AvatarURL = url
	if err := h.users.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Аватарка обновлена", "avatar": url})
}

// UploadBanner stores the profile banner the same way.
func (h *AuthHandler) UploadBanner(c *gin.Context) {
	url, ok := h.uploadImage(c, "banners")
	if !ok {
		return
	}
	u := middleware.GetUser(c)
	u.BannerURL = url
	if err := h.users.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Баннер обновлен", "banner": url})
}

func (h *AuthHandler) uploadImage(c *gin.Context, folder string) (string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл не загружен"})
		return "", false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не удалось прочитать файл"})
		return "", false
	}
	defer f.Close()
	u := middleware.GetUser(c)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, _, err := h.cloud.UploadImage(c.Request.Context(), f, "jmsmp/"+folder+"/"+u.Username, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка загрузки файла"})
		return "", false
	}
	return url, true
}
