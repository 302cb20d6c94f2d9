package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"kammalabel/internal/config"
	"kammalabel/internal/models"
	"kammalabel/internal/repositories"
	"kammalabel/internal/utils"
)

var ErrTokenInvalid = errors.New("token invalid")

// TokenService — opaque-токены сессий. Валидация каждый раз читает БД:
// отзыв должен быть виден немедленно, кэша нет.
type TokenService struct {
	repo  repositories.TokenRepository
	users repositories.UserRepository
	rnd   *utils.Random
	cfg   config.AuthConfig

	now func() time.Time
}

func NewTokenService(repo repositories.TokenRepository, users repositories.UserRepository, rnd *utils.Random, cfg config.AuthConfig) *TokenService {
	return &TokenService{repo: repo, users: users, rnd: rnd, cfg: cfg, now: time.Now}
}

func (s *TokenService) issue(userID int, temporary bool, ttl time.Duration) (*models.SessionToken, error) {
	str, err := s.rnd.OpaqueToken(s.cfg.TokenLength)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	t := &models.SessionToken{
		UserID:      userID,
		Token:       str,
		IsTemporary: temporary,
		ExpiresAt:   s.now().Add(ttl),
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

// IssueTemporary — staging-токен после первого фактора. Параллельные входы
// допустимы, другие токены не трогаем.
func (s *TokenService) IssueTemporary(user *models.User) (*models.SessionToken, error) {
	return s.issue(user.ID, true, time.Duration(s.cfg.TempTokenMinutes)*time.Minute)
}

// IssueFull — полный токен. Временные токены пользователя одноразовые:
// при выдаче полного все гасятся.
func (s *TokenService) IssueFull(user *models.User) (*models.SessionToken, error) {
	if err := s.repo.DeactivateTemporary(user.ID); err != nil {
		return nil, err
	}
	t, err := s.issue(user.ID, false, time.Duration(s.cfg.FullTokenDays)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	log.Printf("[token][issue-full] user=%d exp_at=%s", user.ID, t.ExpiresAt.Format(time.RFC3339))
	return t, nil
}

func (s *TokenService) Revoke(token string) error {
	return s.repo.Deactivate(token)
}

// RevokeAll — после смены пароля пользователь перелогинивается везде.
func (s *TokenService) RevokeAll(userID int) error {
	return s.repo.DeactivateAll(userID)
}

// Validate — токен → пользователь. Не найден, отозван или истёк — ErrTokenInvalid.
func (s *TokenService) Validate(token string) (*models.User, *models.SessionToken, error) {
	t, err := s.repo.GetByToken(token)
	if err != nil {
		return nil, nil, err
	}
	if t == nil || !t.IsActive || t.IsExpired(s.now()) {
		return nil, nil, ErrTokenInvalid
	}
	user, err := s.users.GetByID(t.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrTokenInvalid
	}
	return user, t, nil
}
