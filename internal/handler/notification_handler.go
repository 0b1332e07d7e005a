package handler

import (
	"errors"
	"net/http"
	"strconv"

	"jmsmp/internal/middleware"
	"jmsmp/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	u := middleware.GetUser(c)
	page, limit := parsePagination(c, 20)
	unreadOnly := c.Query("unreadOnly") == "true"
	list, total, err := h.repo.ListByUser(u.ID, page, limit, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	unread, err := h.repo.CountUnread(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"total":         total,
		"unreadCount":   unread,
		"totalPages":    (total + int64(limit) - 1) / int64(limit),
		"currentPage":   page,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	u := middleware.GetUser(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.MarkRead(uint(id), u.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Уведомление отмечено как прочитанное"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	u := middleware.GetUser(c)
	if err := h.repo.MarkAllRead(u.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Все уведомления отмечены как прочитанные"})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	u := middleware.GetUser(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.Delete(uint(id), u.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Уведомление удалено"})
}

func (h *NotificationHandler) ClearAll(c *gin.Context) {
	u := middleware.GetUser(c)
	if err := h.repo.ClearAll(u.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Все уведомления очищены"})
}
