package handler

import (
	"net/http"
	"strconv"

	"jmsmp/internal/domain"
	"jmsmp/internal/middleware"
	"jmsmp/internal/repository"
	"jmsmp/internal/service"

	"github.com/gin-gonic/gin"
)

// ApplicationHandler is the HTTP review-channel adapter: the submission flow
// for applicants and the decision endpoint for admins.
type ApplicationHandler struct {
	svc *service.ApplicationService
}

func NewApplicationHandler(svc *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

type SubmitRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

func (h *ApplicationHandler) SubmitServer(c *gin.Context) {
	h.submit(c, domain.AppTypeServer)
}

func (h *ApplicationHandler) SubmitStudio(c *gin.Context) {
	h.submit(c, domain.AppTypeStudio)
}

func (h *ApplicationHandler) submit(c *gin.Context, appType string) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := middleware.GetUser(c)
	app, err := h.svc.Submit(u, appType, req.Answers)
	if err != nil {
		switch err {
		case service.ErrDuplicatePending, service.ErrRecruitmentClosed:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":       "Заявка отправлена на рассмотрение",
		"applicationId": app.ID,
	})
}

// Status returns the applicant's latest applications.
func (h *ApplicationHandler) Status(c *gin.Context) {
	u := middleware.GetUser(c)
	apps, err := h.svc.ListMine(u.Username, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// AdminList returns the filtered full listing, newest first.
func (h *ApplicationHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c, 20)
	filter := repository.ApplicationFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	apps, total, err := h.svc.ListForActor(middleware.GetUser(c), filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"total":        total,
		"totalPages":   (total + int64(limit) - 1) / int64(limit),
		"currentPage":  page,
	})
}

type DecideRequest struct {
	Status string `json:"status" binding:"required"`
	Role   string `json:"role"`
}

// AdminDecide funnels the web decision into ApplicationService.Decide and
// maps its failure kinds onto HTTP statuses.
func (h *ApplicationHandler) AdminDecide(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный идентификатор заявки"})
		return
	}
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app, err := h.svc.Decide(middleware.GetUser(c), uint(id), req.Status, req.Role)
	if err != nil {
		switch err {
		case service.ErrForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case service.ErrApplicationNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case service.ErrInvalidTransition:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case service.ErrInvalidDecision:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сервера"})
		}
		return
	}
	message := "Заявка отклонена"
	if app.Status == domain.StatusAccepted {
		message = "Заявка одобрена"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "application": app})
}

func parsePagination(c *gin.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}
