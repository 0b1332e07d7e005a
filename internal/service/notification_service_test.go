package service

import (
	"testing"

	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupNotifyTestEnv(t *testing.T) (*NotificationService, *repository.NotificationRepository, *repository.UserRepository, *recordingBroker) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))

	users := repository.NewUserRepository(db)
	repo := repository.NewNotificationRepository(db)
	broker := &recordingBroker{}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewNotificationService(repo, users, broker), repo, users, broker
}

func TestNotify_DurableCopySurvivesOfflineRecipient(t *testing.T) {
	svc, repo, users, broker := setupNotifyTestEnv(t)
	u := &models.User{Username: "steve", Email: "steve@example.com", PasswordHash: "x", Role: domain.RolePlayer}
	require.NoError(t, users.Create(u))

	// No connected session: the emit goes nowhere, the row stays.
	require.NoError(t, svc.Notify(u.ID, domain.NotifyInfo, "Заголовок", "Текст"))

	list, total, err := repo.ListByUser(u.ID, 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.False(t, list[0].Read)
	require.Equal(t, domain.NotifyInfo, list[0].Category)

	unread, err := repo.CountUnread(u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	require.Len(t, broker.forEvent("notification"), 1)
}

func TestBroadcast_AppendsToEveryUser(t *testing.T) {
	svc, repo, users, broker := setupNotifyTestEnv(t)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, users.Create(&models.User{
			Username: name, Email: name + "@example.com", PasswordHash: "x", Role: domain.RolePlayer,
		}))
	}

	count, err := svc.Broadcast(domain.NotifyInfo, "Новость", "Сервер обновлен")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Len(t, broker.forEvent("broadcast-notification"), 1)

	u, err := users.GetByUsername("b")
	require.NoError(t, err)
	list, total, err := repo.ListByUser(u.ID, 1, 10, true)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Новость", list[0].Title)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, repo, users, _ := setupNotifyTestEnv(t)
	a := &models.User{Username: "a", Email: "a@example.com", PasswordHash: "x", Role: domain.RolePlayer}
	b := &models.User{Username: "b", Email: "b@example.com", PasswordHash: "x", Role: domain.RolePlayer}
	require.NoError(t, users.Create(a))
	require.NoError(t, users.Create(b))
	require.NoError(t, svc.Notify(a.ID, domain.NotifyInfo, "t", "m"))

	list, _, err := repo.ListByUser(a.ID, 1, 10, false)
	require.NoError(t, err)

	require.ErrorIs(t, repo.MarkRead(list[0].ID, b.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.MarkRead(list[0].ID, a.ID))

	unread, err := repo.CountUnread(a.ID)
	require.NoError(t, err)
	require.Zero(t, unread)
}
