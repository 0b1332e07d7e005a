package service

import (
	"log"

	"jmsmp/internal/models"
	"jmsmp/internal/repository"
	"jmsmp/internal/ws"
)

// NotificationService fans one logical event out through the durable store
// and the live transport. The durable write must fail loudly; the realtime
// emit is fire-and-forget.
type NotificationService struct {
	repo   *repository.NotificationRepository
	users  *repository.UserRepository
	broker ws.Broker
}

func NewNotificationService(repo *repository.NotificationRepository, users *repository.UserRepository, broker ws.Broker) *NotificationService {
	return &NotificationService{repo: repo, users: users, broker: broker}
}

// Notify appends a durable notification and pushes it to the user's session
// room if connected. An offline recipient keeps the durable copy only.
func (s *NotificationService) Notify(userID uint, category, title, message string) error {
	n := &models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	s.broker.Emit(ws.UserRoom(userID), "notification", n)
	return nil
}

// Broadcast appends the notification to every user's list and emits one
// realtime event to all connected sessions. The fanout is not transactional:
// a mid-loop failure leaves some users updated and is logged for manual
// reconciliation.
func (s *NotificationService) Broadcast(category, title, message string) (int, error) {
	ids, err := s.users.ListIDs()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		n := &models.Notification{
			UserID:   id,
			Title:    title,
			Message:  message,
			Category: category,
		}
		if err := s.repo.Create(n); err != nil {
			log.Printf("[notify] broadcast append failed for user %d: %v", id, err)
			continue
		}
		count++
	}
	s.broker.EmitAll("broadcast-notification", map[string]string{
		"title":   title,
		"message": message,
		"type":    category,
	})
	return count, nil
}
