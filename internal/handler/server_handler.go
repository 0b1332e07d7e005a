package handler

import (
	"net/http"
	"time"

	"jmsmp/config"
	"jmsmp/internal/domain"
	"jmsmp/internal/repository"

	"github.com/gin-gonic/gin"
)

// ServerHandler serves the public, unauthenticated endpoints: liveness and
// the game-server connection card shown on the landing page.
type ServerHandler struct {
	cfg      *config.Config
	settings *repository.SettingRepository
	started  time.Time
}

func NewServerHandler(cfg *config.Config, settings *repository.SettingRepository) *ServerHandler {
	return &ServerHandler{cfg: cfg, settings: settings, started: time.Now()}
}

func (h *ServerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Info returns the connection details plus whether studio recruitment is open.
func (h *ServerHandler) Info(c *gin.Context) {
	recruitment := "open"
	if v, err := h.settings.Get(domain.SettingStudioRecruitment); err == nil {
		recruitment = v
	}
	c.JSON(http.StatusOK, gin.H{
		"ip":                h.cfg.Game.IP,
		"port":              h.cfg.Game.Port,
		"version":           h.cfg.Game.Version,
		"launcher":          h.cfg.Game.Launcher,
		"studioRecruitment": recruitment,
	})
}
