package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"
	"jmsmp/internal/service"
	"jmsmp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type appHandlerEnv struct {
	db      *gorm.DB
	users   *repository.UserRepository
	svc     *service.ApplicationService
	handler *ApplicationHandler
}

func setupAppHandlerEnv(t *testing.T) appHandlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Notification{},
		&models.SystemSetting{},
	))

	users := repository.NewUserRepository(db)
	apps := repository.NewApplicationRepository(db)
	notifs := repository.NewNotificationRepository(db)
	settings := repository.NewSettingRepository(db)
	hub := ws.NewHub()
	notifSvc := service.NewNotificationService(notifs, users, hub)
	svc := service.NewApplicationService(apps, users, settings, notifSvc, hub)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return appHandlerEnv{db: db, users: users, svc: svc, handler: NewApplicationHandler(svc)}
}

// asUser injects a resolved user the way AuthRequired would.
func asUser(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("current_user", u)
		c.Next()
	}
}

func (env appHandlerEnv) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username:          username,
		Email:             username + "@example.com",
		PasswordHash:      "x",
		Role:              role,
		ApplicationStatus: domain.StatusPending,
	}
	require.NoError(t, env.users.Create(u))
	return u
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func putJSON(t *testing.T, r *gin.Engine, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitServer_CreatesPendingApplication(t *testing.T) {
	env := setupAppHandlerEnv(t)
	applicant := env.createUser(t, "steve", domain.RolePlayer)

	r := gin.New()
	r.POST("/api/applications/server", asUser(applicant), env.handler.SubmitServer)

	w := postJSON(t, r, "/api/applications/server", gin.H{
		"answers": map[string]string{"age": "19", "experience": "3 года"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/applications/server", gin.H{
		"answers": map[string]string{"age": "19"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "активная заявка")
}

func TestAdminDecide_StatusMapping(t *testing.T) {
	env := setupAppHandlerEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)
	player := env.createUser(t, "rando", domain.RolePlayer)
	applicant := env.createUser(t, "steve", domain.RolePlayer)

	app, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)

	adminRouter := gin.New()
	adminRouter.PUT("/api/admin/applications/:id", asUser(admin), env.handler.AdminDecide)
	playerRouter := gin.New()
	playerRouter.PUT("/api/admin/applications/:id", asUser(player), env.handler.AdminDecide)

	url := fmt.Sprintf("/api/admin/applications/%d", app.ID)

	// Authority is checked before existence: a player probing a missing id
	// still sees 403.
	w := putJSON(t, playerRouter, "/api/admin/applications/999999", gin.H{"status": "accepted"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = putJSON(t, adminRouter, "/api/admin/applications/999999", gin.H{"status": "accepted"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = putJSON(t, adminRouter, url, gin.H{"status": "maybe"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = putJSON(t, adminRouter, url, gin.H{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Заявка одобрена")

	// Second decision hits the terminal-state guard.
	w = putJSON(t, adminRouter, url, gin.H{"status": "rejected"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestStatus_ReturnsOwnApplicationsOnly(t *testing.T) {
	env := setupAppHandlerEnv(t)
	a := env.createUser(t, "steve", domain.RolePlayer)
	b := env.createUser(t, "alex", domain.RolePlayer)
	_, err := env.svc.Submit(a, domain.AppTypeServer, nil)
	require.NoError(t, err)
	_, err = env.svc.Submit(b, domain.AppTypeServer, nil)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/applications/status", asUser(a), env.handler.Status)

	req := httptest.NewRequest(http.MethodGet, "/api/applications/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Applications []models.Application `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Applications, 1)
	require.Equal(t, "steve", resp.Applications[0].Username)
}
