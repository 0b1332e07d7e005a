package service

import (
	"errors"
	"log"
	"time"

	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"
	"jmsmp/internal/ws"

	"gorm.io/gorm"
)

var (
	ErrDuplicatePending    = errors.New("у вас уже есть активная заявка")
	ErrApplicationNotFound = errors.New("заявка не найдена")
	ErrForbidden           = errors.New("недостаточно прав")
	ErrInvalidTransition   = errors.New("заявка уже рассмотрена")
	ErrInvalidDecision     = errors.New("недопустимый статус решения")
	ErrRecruitmentClosed   = errors.New("набор в студию закрыт")
)

// ReviewNotifier is told about fresh submissions so an external review
// channel (the Telegram bot) can post its card. Wired after construction to
// break the service/bot cycle; nil when the bot is disabled.
type ReviewNotifier interface {
	ApplicationSubmitted(app *models.Application, applicant *models.User)
}

// ApplicationService owns the membership application lifecycle. Every review
// entry point (web admin, bot callback) funnels into Decide.
type ApplicationService struct {
	apps      *repository.ApplicationRepository
	users     *repository.UserRepository
	settings  *repository.SettingRepository
	notifier  *NotificationService
	broker    ws.Broker
	reconcile *Reconciler

	reviewNotifier ReviewNotifier
}

func NewApplicationService(
	apps *repository.ApplicationRepository,
	users *repository.UserRepository,
	settings *repository.SettingRepository,
	notifier *NotificationService,
	broker ws.Broker,
) *ApplicationService {
	return &ApplicationService{
		apps:      apps,
		users:     users,
		settings:  settings,
		notifier:  notifier,
		broker:    broker,
		reconcile: NewReconciler(),
	}
}

func (s *ApplicationService) SetReviewNotifier(n ReviewNotifier) {
	s.reviewNotifier = n
}

// Submit creates a pending application for the applicant. The duplicate
// guard is a read immediately before insert; concurrent submissions within
// the same instant can both pass it, which is tolerated because Decide is
// idempotent per record.
func (s *ApplicationService) Submit(applicant *models.User, appType string, answers map[string]string) (*models.Application, error) {
	if appType == domain.AppTypeStudio && s.settings != nil {
		v, err := s.settings.Get(domain.SettingStudioRecruitment)
		if err == nil && v == "closed" {
			return nil, ErrRecruitmentClosed
		}
	}
	pending, err := s.apps.HasPending(applicant.Username, appType)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	app := &models.Application{
		Username: applicant.Username,
		Type:     appType,
		Status:   domain.StatusPending,
	}
	app.SetAnswers(answers)
	if err := s.apps.Create(app); err != nil {
		return nil, err
	}

	// The server application drives the membership status; studio does not.
	if appType == domain.AppTypeServer {
		if err := s.users.UpdateMembership(applicant.Username, domain.StatusPending, nil); err != nil {
			log.Printf("[applications] user status sync failed on submit (app %d): %v", app.ID, err)
		}
	}

	s.broker.Emit(ws.AdminRoom, "new-application", map[string]interface{}{
		"applicationId": app.ID,
		"username":      applicant.Username,
		"type":          appType,
		"date":          app.CreatedAt,
	})
	if s.reviewNotifier != nil {
		s.reviewNotifier.ApplicationSubmitted(app, applicant)
	}
	return app, nil
}

// ListMine returns the applicant's own records, newest first.
func (s *ApplicationService) ListMine(username string, limit int) ([]models.Application, error) {
	return s.apps.ListByUsername(username, limit)
}

// ListForActor returns the records the actor may see: admins get the full
// filtered listing, everyone else only their own.
func (s *ApplicationService) ListForActor(actor *models.User, filter repository.ApplicationFilter, page, limit int) ([]models.Application, int64, error) {
	if domain.Allowed(domain.OpListApplications, actor.Role) {
		return s.apps.List(filter, page, limit)
	}
	list, err := s.apps.ListByUsername(actor.Username, limit)
	return list, int64(len(list)), err
}

// Decide moves a pending application to a terminal state, records the
// reviewer, syncs the applicant's membership status (and role, when granted
// by a top-authority actor), and fans the outcome out to the applicant.
//
// The actor's authority is checked before existence, so an unprivileged
// caller learns nothing about application ids. The application row is
// updated first (source of truth); a failed user sync is queued for
// reconciliation instead of failing the decision.
func (s *ApplicationService) Decide(actor *models.User, id uint, decision, roleGrant string) (*models.Application, error) {
	if !domain.Allowed(domain.OpReviewApplications, actor.Role) {
		return nil, ErrForbidden
	}
	if !domain.ValidDecision(decision) {
		return nil, ErrInvalidDecision
	}
	app, err := s.apps.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if !app.IsPending() {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	reviewer := actor.Username
	app.Status = decision
	app.ReviewedBy = &reviewer
	app.ReviewedAt = &now
	if err := s.apps.Update(app); err != nil {
		return nil, err
	}

	var grant *string
	if roleGrant != "" && domain.CanGrantRoles(actor.Role) && domain.ValidRole(roleGrant) {
		grant = &roleGrant
	}
	if err := s.users.UpdateMembership(app.Username, decision, grant); err != nil {
		log.Printf("[applications] user sync failed for app %d (user %s): %v; queued for reconciliation", app.ID, app.Username, err)
		s.reconcile.Record(app.ID)
	}

	s.notifyDecision(app)
	return app, nil
}

func (s *ApplicationService) notifyDecision(app *models.Application) {
	applicant, err := s.users.GetByUsername(app.Username)
	if err != nil {
		log.Printf("[applications] applicant %s not found for decision fanout: %v", app.Username, err)
		return
	}
	title, message, category := "Заявка отклонена", "Ваша заявка отклонена.", domain.NotifyError
	if app.Status == domain.StatusAccepted {
		title, message, category = "Заявка одобрена", "Ваша заявка одобрена!", domain.NotifySuccess
	}
	if err := s.notifier.Notify(applicant.ID, category, title, message); err != nil {
		log.Printf("[applications] durable notification failed for user %d: %v", applicant.ID, err)
	}
	s.broker.Emit(ws.UserRoom(applicant.ID), "application-updated", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
		"message":       message,
	})
}

// PendingReconciliations exposes the queued application ids.
func (s *ApplicationService) PendingReconciliations() []uint {
	return s.reconcile.Pending()
}

// ReplayReconciliation retries the user sync for every queued application
// and returns how many were repaired.
func (s *ApplicationService) ReplayReconciliation() int {
	fixed := 0
	for _, id := range s.reconcile.Pending() {
		app, err := s.apps.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.reconcile.Resolve(id)
			}
			continue
		}
		if err := s.users.UpdateMembership(app.Username, app.Status, nil); err != nil {
			log.Printf("[applications] reconciliation retry failed for app %d: %v", id, err)
			continue
		}
		s.reconcile.Resolve(id)
		fixed++
	}
	return fixed
}
