package service

import (
	"sync"
	"testing"

	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingBroker captures emits for assertions.
type recordingBroker struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	Room    string
	Event   string
	Payload interface{}
}

func (b *recordingBroker) Emit(room, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emittedEvent{Room: room, Event: event, Payload: payload})
}

func (b *recordingBroker) EmitAll(event string, payload interface{}) {
	b.Emit("*", event, payload)
}

func (b *recordingBroker) forEvent(event string) []emittedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []emittedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type recordingReviewNotifier struct {
	submitted []uint
}

func (n *recordingReviewNotifier) ApplicationSubmitted(app *models.Application, _ *models.User) {
	n.submitted = append(n.submitted, app.ID)
}

type appTestEnv struct {
	db     *gorm.DB
	svc    *ApplicationService
	users  *repository.UserRepository
	apps   *repository.ApplicationRepository
	notifs *repository.NotificationRepository
	broker *recordingBroker
}

func setupAppTestEnv(t *testing.T) appTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Notification{},
		&models.SystemSetting{},
	))

	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	broker := &recordingBroker{}
	notifSvc := NewNotificationService(notifRepo, userRepo, broker)
	svc := NewApplicationService(appRepo, userRepo, settingRepo, notifSvc, broker)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return appTestEnv{db: db, svc: svc, users: userRepo, apps: appRepo, notifs: notifRepo, broker: broker}
}

func (env appTestEnv) createUser(t *testing.T, username, role string) *models.User {
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

func TestSubmit_DuplicatePendingGuard(t *testing.T) {
	env := setupAppTestEnv(t)
	applicant := env.createUser(t, "steve", domain.RolePlayer)

	_, err := env.svc.Submit(applicant, domain.AppTypeServer, map[string]string{"age": "19"})
	require.NoError(t, err)

	_, err = env.svc.Submit(applicant, domain.AppTypeServer, map[string]string{"age": "19"})
	require.ErrorIs(t, err, ErrDuplicatePending)

	// A different application type is independent.
	_, err = env.svc.Submit(applicant, domain.AppTypeStudio, map[string]string{"skill": "builder"})
	require.NoError(t, err)
}

func TestSubmit_AllowedAgainAfterDecision(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)
	applicant := env.createUser(t, "steve", domain.RolePlayer)

	first, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)
	_, err = env.svc.Decide(admin, first.ID, domain.StatusRejected, "")
	require.NoError(t, err)

	// The guard only blocks while a pending record exists; a decided one,
	// either outcome, frees the slot.
	second, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	_, err = env.svc.Decide(admin, second.ID, domain.StatusAccepted, "")
	require.NoError(t, err)
	_, err = env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)
}

func TestSubmit_NotifiesReviewChannelAndAdminRoom(t *testing.T) {
	env := setupAppTestEnv(t)
	applicant := env.createUser(t, "alex", domain.RolePlayer)
	notifier := &recordingReviewNotifier{}
	env.svc.SetReviewNotifier(notifier)

	app, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)
	require.Equal(t, []uint{app.ID}, notifier.submitted)
	require.Len(t, env.broker.forEvent("new-application"), 1)
}

func TestSubmit_StudioRecruitmentClosed(t *testing.T) {
	env := setupAppTestEnv(t)
	applicant := env.createUser(t, "artist", domain.RolePlayer)
	require.NoError(t, repository.NewSettingRepository(env.db).Set(domain.SettingStudioRecruitment, "closed"))

	_, err := env.svc.Submit(applicant, domain.AppTypeStudio, nil)
	require.ErrorIs(t, err, ErrRecruitmentClosed)

	// The server track stays open regardless.
	_, err = env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)
}

func TestDecide_ForbiddenCheckedBeforeExistence(t *testing.T) {
	env := setupAppTestEnv(t)
	player := env.createUser(t, "rando", domain.RolePlayer)

	// An unprivileged actor gets the same answer for a missing id as for a
	// real one, so ids cannot be probed.
	_, err := env.svc.Decide(player, 9999, domain.StatusAccepted, "")
	require.ErrorIs(t, err, ErrForbidden)

	applicant := env.createUser(t, "steve", domain.RolePlayer)
	app, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)
	_, err = env.svc.Decide(player, app.ID, domain.StatusAccepted, "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDecide_NotFoundForAdmin(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)

	_, err := env.svc.Decide(admin, 9999, domain.StatusAccepted, "")
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestDecide_InvalidDecision(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)

	_, err := env.svc.Decide(admin, 1, "maybe", "")
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestDecide_AcceptSyncsUserAndNotifies(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "vladimir", domain.RoleOwner)
	applicant := env.createUser(t, "steve", domain.RolePlayer)
	app, err := env.svc.Submit(applicant, domain.AppTypeServer, map[string]string{"age": "21"})
	require.NoError(t, err)

	decided, err := env.svc.Decide(admin, app.ID, domain.StatusAccepted, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, decided.Status)
	require.NotNil(t, decided.ReviewedBy)
	require.Equal(t, "vladimir", *decided.ReviewedBy)
	require.NotNil(t, decided.ReviewedAt)

	updated, err := env.users.GetByUsername("steve")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, updated.ApplicationStatus)
	require.True(t, updated.IsApproved())

	// The applicant keeps a durable unread copy of the outcome.
	notifs, _, err := env.notifs.ListByUser(applicant.ID, 1, 10, false)
	require.NoError(t, err)
	require.NotEmpty(t, notifs)
	require.Equal(t, "Заявка одобрена", notifs[0].Title)
	require.Equal(t, domain.NotifySuccess, notifs[0].Category)
	require.False(t, notifs[0].Read)

	require.Len(t, env.broker.forEvent("application-updated"), 1)
}

func TestDecide_TransitionsExactlyOnce(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)
	applicant := env.createUser(t, "steve", domain.RolePlayer)
	app, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)

	_, err = env.svc.Decide(admin, app.ID, domain.StatusRejected, "")
	require.NoError(t, err)

	_, err = env.svc.Decide(admin, app.ID, domain.StatusAccepted, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := env.apps.GetByID(app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, stored.Status)
}

func TestDecide_RoleGrantRequiresTopAuthority(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)
	owner := env.createUser(t, "vladimir", domain.RoleOwner)

	applicant1 := env.createUser(t, "steve", domain.RolePlayer)
	app1, err := env.svc.Submit(applicant1, domain.AppTypeServer, nil)
	require.NoError(t, err)

	// An administrator may decide, but their role grant is ignored.
	_, err = env.svc.Decide(admin, app1.ID, domain.StatusAccepted, domain.RoleCurator)
	require.NoError(t, err)
	u1, err := env.users.GetByUsername("steve")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, u1.ApplicationStatus)
	require.Equal(t, domain.RolePlayer, u1.Role)

	applicant2 := env.createUser(t, "alex", domain.RolePlayer)
	app2, err := env.svc.Submit(applicant2, domain.AppTypeServer, nil)
	require.NoError(t, err)

	_, err = env.svc.Decide(owner, app2.ID, domain.StatusAccepted, domain.RoleCurator)
	require.NoError(t, err)
	u2, err := env.users.GetByUsername("alex")
	require.NoError(t, err)
	require.Equal(t, domain.RoleCurator, u2.Role)
}

func TestDecide_UnknownRoleGrantIgnored(t *testing.T) {
	env := setupAppTestEnv(t)
	owner := env.createUser(t, "vladimir", domain.RoleOwner)
	applicant := env.createUser(t, "steve", domain.RolePlayer)
	app, err := env.svc.Submit(applicant, domain.AppTypeServer, nil)
	require.NoError(t, err)

	_, err = env.svc.Decide(owner, app.ID, domain.StatusAccepted, "Полубог")
	require.NoError(t, err)
	u, err := env.users.GetByUsername("steve")
	require.NoError(t, err)
	require.Equal(t, domain.RolePlayer, u.Role)
}

func TestDecide_UserSyncFailureQueuedForReconciliation(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)

	// An application whose user row is gone: the decision still lands on the
	// application, the sync is queued.
	app := &models.Application{Username: "ghost", Type: domain.AppTypeServer, Status: domain.StatusPending}
	require.NoError(t, env.apps.Create(app))

	decided, err := env.svc.Decide(admin, app.ID, domain.StatusAccepted, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, decided.Status)
	require.Equal(t, []uint{app.ID}, env.svc.PendingReconciliations())

	// Once the user exists the replay repairs the membership status.
	env.createUser(t, "ghost", domain.RolePlayer)
	require.Equal(t, 1, env.svc.ReplayReconciliation())
	require.Empty(t, env.svc.PendingReconciliations())

	u, err := env.users.GetByUsername("ghost")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, u.ApplicationStatus)
}

func TestListForActor(t *testing.T) {
	env := setupAppTestEnv(t)
	admin := env.createUser(t, "mod", domain.RoleAdmin)
	a := env.createUser(t, "steve", domain.RolePlayer)
	b := env.createUser(t, "alex", domain.RolePlayer)

	_, err := env.svc.Submit(a, domain.AppTypeServer, nil)
	require.NoError(t, err)
	_, err = env.svc.Submit(b, domain.AppTypeServer, nil)
	require.NoError(t, err)

	all, total, err := env.svc.ListForActor(admin, repository.ApplicationFilter{}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, all, 2)

	mine, total, err := env.svc.ListForActor(a, repository.ApplicationFilter{}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	require.Equal(t, "steve", mine[0].Username)
}
