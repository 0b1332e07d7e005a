package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"jmsmp/config"
	"jmsmp/internal/domain"
	"jmsmp/internal/middleware"
	"jmsmp/internal/repository"
	"jmsmp/internal/service"
	"jmsmp/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	cfg      *config.Config
	users    *repository.UserRepository
	apps     *repository.ApplicationRepository
	admin    *repository.AdminRepository
	settings *repository.SettingRepository
	notifier *service.NotificationService
	appSvc   *service.ApplicationService
	broker   ws.Broker
}

func NewAdminHandler(
	cfg *config.Config,
	users *repository.UserRepository,
	apps *repository.ApplicationRepository,
	admin *repository.AdminRepository,
	settings *repository.SettingRepository,
	notifier *service.NotificationService,
	appSvc *service.ApplicationService,
	broker ws.Broker,
) *AdminHandler {
	return &AdminHandler{
		cfg: cfg, users: users, apps: apps, admin: admin,
		settings: settings, notifier: notifier, appSvc: appSvc, broker: broker,
	}
}

// Stats returns the console overview.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers returns users with optional role filter and username/email search.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c, 50)
	users, total, err := h.users.List(c.Query("search"), c.Query("role"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"total":       total,
		"totalPages":  (total + int64(limit) - 1) / int64(limit),
		"currentPage": page,
	})
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole overwrites a user's role. Only the main admin may change the
// main admin's own role.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	username := c.Param("username")
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Роль обязательна"})
		return
	}
	if !domain.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная роль"})
		return
	}
	actor := middleware.GetUser(c)
	if username == h.cfg.Admin.Username && actor.Username != h.cfg.Admin.Username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Нельзя изменить роль главному администратору"})
		return
	}
	u, err := h.users.UpdateRole(username, req.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	h.broker.Emit(ws.UserRoom(u.ID), "role-updated", gin.H{
		"newRole": req.Role,
		"message": "Ваша роль изменена на: " + req.Role,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Роль пользователя " + username + " изменена на " + req.Role,
		"user":    u,
	})
}

type StudioRecruitmentRequest struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// StudioRecruitment opens or closes studio applications and announces it.
func (h *AdminHandler) StudioRecruitment(c *gin.Context) {
	var req StudioRecruitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value := "closed"
	message := "Набор в студию закрыт"
	if req.Enabled {
		value = "open"
		message = "Набор в студию открыт"
	}
	if req.Message != "" {
		message = req.Message
	}
	if err := h.settings.Set(domain.SettingStudioRecruitment, value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	h.broker.EmitAll("studio-recruitment-update", gin.H{
		"enabled": req.Enabled,
		"message": message,
	})
	c.JSON(http.StatusOK, gin.H{"message": message, "enabled": req.Enabled})
}

type BroadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
}

// Broadcast appends a notification to every user and emits one live event.
func (h *AdminHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Заголовок и сообщение обязательны"})
		return
	}
	category := req.Type
	if category == "" {
		category = domain.NotifyInfo
	}
	count, err := h.notifier.Broadcast(category, req.Title, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Уведомление отправлено всем пользователям",
		"count":   count,
	})
}

// Cleanup is the bulk-retention operation: rejected inactive players and old
// rejected applications beyond the cutoff are removed.
func (h *AdminHandler) Cleanup(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 {
		days = 30
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	deletedUsers, err := h.users.DeleteInactiveRejected(cutoff, domain.RolePlayer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	deletedApps, err := h.apps.DeleteRejectedBefore(cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "Очистка завершена",
		"deletedUsers":        deletedUsers,
		"deletedApplications": deletedApps,
		"cutoffDate":          cutoff.Format("02.01.2006"),
	})
}

// Reconcile replays queued user syncs for decided applications.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	fixed := h.appSvc.ReplayReconciliation()
	c.JSON(http.StatusOK, gin.H{
		"fixed":   fixed,
		"pending": h.appSvc.PendingReconciliations(),
	})
}
