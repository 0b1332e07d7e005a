package service

import (
	"errors"
	"regexp"

	"jmsmp/config"
	"jmsmp/internal/auth"
	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken   = errors.New("этот никнейм уже занят")
	ErrEmailTaken      = errors.New("этот email уже зарегистрирован")
	ErrInvalidCreds    = errors.New("неверный никнейм или пароль")
	ErrInvalidUsername = errors.New("никнейм может содержать только буквы, цифры и подчеркивания")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

type AuthService struct {
	cfg      *config.Config
	users    *repository.UserRepository
	notifier *NotificationService
}

func NewAuthService(cfg *config.Config, users *repository.UserRepository, notifier *NotificationService) *AuthService {
	return &AuthService{cfg: cfg, users: users, notifier: notifier}
}

// Register creates an account with the default role and a pending
// application status, seeds the welcome notification, and issues a token.
func (s *AuthService) Register(username, email, password string) (*models.User, string, error) {
	if !usernameRe.MatchString(username) {
		return nil, "", ErrInvalidUsername
	}
	if _, err := s.users.GetByUsername(username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, "", err
	}
	u := &models.User{
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              domain.RolePlayer,
		ApplicationStatus: domain.StatusPending,
	}
	if err := s.users.Create(u); err != nil {
		return nil, "", err
	}
	if err := s.notifier.Notify(u.ID, domain.NotifyWelcome,
		"Добро пожаловать на JMSMP!",
		"Ваш аккаунт успешно создан. Анкета отправлена на рассмотрение."); err != nil {
		return nil, "", err
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Username, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies the credential and updates the last-seen timestamp.
func (s *AuthService) Login(username, password string) (*models.User, string, error) {
	u, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	if err := s.users.TouchLastSeen(u.ID); err != nil {
		return nil, "", err
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Username, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// UpdateProfile changes the email and/or password. A password change
// requires the current password.
func (s *AuthService) UpdateProfile(userID uint, email, currentPassword, newPassword string) (*models.User, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if email != "" && email != u.Email {
		if _, err := s.users.GetByEmail(email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		u.Email = email
	}
	if newPassword != "" {
		if currentPassword == "" {
			return nil, ErrInvalidCreds
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
			return nil, ErrInvalidCreds
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}
