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

var (
	ErrCodeNotFound    = errors.New("verification code not found")
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeInvalid     = errors.New("code invalid")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrResendThrottled = errors.New("resend throttled")
	ErrDeliveryFailed  = errors.New("delivery failed")
)

// VerificationService — жизненный цикл кода подтверждения:
// generate → send → check → consume/expire. Истёкшие, заблокированные и
// использованные коды различаются семантически, в БД это один флаг is_active.
type VerificationService struct {
	repo       repositories.VerificationRepository
	users      repositories.UserRepository
	dispatcher Dispatcher
	rnd        *utils.Random
	cfg        config.AuthConfig

	now func() time.Time // подменяется в тестах
}

func NewVerificationService(
	repo repositories.VerificationRepository,
	users repositories.UserRepository,
	dispatcher Dispatcher,
	rnd *utils.Random,
	cfg config.AuthConfig,
) *VerificationService {
	return &VerificationService{
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		rnd:        rnd,
		cfg:        cfg,
		now:        time.Now,
	}
}

// receiverFor — адрес доставки из профиля пользователя по каналу.
func receiverFor(user *models.User, channel string) (string, error) {
	switch channel {
	case models.ChannelEmail:
		if user.Email == "" {
			return "", fmt.Errorf("user %d has no email", user.ID)
		}
		return user.Email, nil
	case models.ChannelSMS:
		if user.Phone == "" {
			return "", fmt.Errorf("user %d has no phone number", user.ID)
		}
		return user.Phone, nil
	}
	return "", fmt.Errorf("unknown channel %q", channel)
}

// Generate — новый код для пары (user, purpose). Прежние активные коды пары
// гасятся в той же транзакции: последний запрос всегда выигрывает, очереди нет.
// Сбой доставки возвращает ErrDeliveryFailed, но запись остаётся в БД.
func (s *VerificationService) Generate(user *models.User, purpose, channel, receiver string) (*models.VerificationCode, error) {
	if receiver == "" {
		var err error
		receiver, err = receiverFor(user, channel)
		if err != nil {
			return nil, err
		}
	}

	code, err := s.rnd.NumericCode(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	key, err := s.rnd.OpaqueToken(s.cfg.TokenLength)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	v := &models.VerificationCode{
		UserID:     user.ID,
		Purpose:    purpose,
		Code:       code,
		Key:        key,
		Channel:    channel,
		Receiver:   receiver,
		TTLSeconds: s.cfg.CodeTTLSeconds,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateReplacingActive(v); err != nil {
		return nil, err
	}
	log.Printf("[verify][generate] user=%d purpose=%s channel=%s receiver=%s key_len=%d",
		user.ID, purpose, channel, utils.MaskReceiver(receiver), len(key))

	// Запись уже закоммичена: сбой доставки не трогает состояние.
	if err := s.dispatcher.Send(channel, receiver, code, v.TTLSeconds); err != nil {
		log.Printf("[verify][generate] delivery failed: user=%d purpose=%s err=%v", user.ID, purpose, err)
		return v, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return v, nil
}

// Resend — повторная отправка. Всегда новый код (старый гасится), получатель
// прежний, если не сменили канал.
func (s *VerificationService) Resend(purpose, key, channel string) (*models.VerificationCode, error) {
	prior, err := s.repo.GetActiveByKey(purpose, key)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, ErrCodeNotFound
	}

	// нижняя граница: не чаще одного раза в N секунд
	floor := time.Duration(s.cfg.ResendFloorSeconds) * time.Second
	if s.now().Sub(prior.CreatedAt) < floor {
		return nil, ErrResendThrottled
	}

	// оконный троттлинг: не больше M отправок за окно
	since := s.now().Add(-time.Duration(s.cfg.ResendWindowMin) * time.Minute)
	cnt, err := s.repo.CountRecentSends(prior.UserID, purpose, since)
	if err != nil {
		return nil, err
	}
	if cnt >= s.cfg.MaxResendsPerWin {
		return nil, ErrResendThrottled
	}

	user, err := s.users.GetByID(prior.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrCodeNotFound
	}

	receiver := prior.Receiver
	if channel == "" {
		channel = prior.Channel
	} else if channel != prior.Channel {
		// новый канал — получатель берётся заново из профиля
		receiver = ""
	}
	return s.Generate(user, purpose, channel, receiver)
}

// CheckCode — проверка кода по (purpose, key). user, если передан, защищает от
// перебора ключей между аккаунтами. Порядок проверок: наличие → владелец →
// истечение → лимит попыток → совпадение.
func (s *VerificationService) CheckCode(purpose, key, submitted string, user *models.User, consume bool) (*models.VerificationCode, error) {
	v, err := s.repo.GetActiveByKey(purpose, key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrCodeNotFound
	}
	if user != nil && v.UserID != user.ID {
		return nil, ErrCodeNotFound
	}
	if v.IsExpired(s.now()) {
		// заодно приводим флаг в порядок, сама проверка от него не зависит
		if derr := s.repo.Deactivate(v.ID); derr != nil {
			log.Printf("[verify][check] deactivate expired failed: id=%d err=%v", v.ID, derr)
		}
		return nil, ErrCodeExpired
	}
	// граница включительная: после max ошибок код заблокирован
	if v.Attempts >= s.cfg.MaxWrongAttempts {
		return nil, ErrTooManyAttempts
	}
	if v.Code != submitted {
		attempts, ierr := s.repo.IncrementAttempts(v.ID)
		if ierr != nil {
			return nil, ierr
		}
		if attempts >= s.cfg.MaxWrongAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeInvalid
	}
	if consume {
		if err := s.repo.Deactivate(v.ID); err != nil {
			return nil, err
		}
		v.IsActive = false
	}
	return v, nil
}

// Invalidate — явное гашение (forgot password проверяет код с consume=false
// и закрывает его только после установки пароля).
func (s *VerificationService) Invalidate(v *models.VerificationCode) error {
	if err := s.repo.Deactivate(v.ID); err != nil {
		return err
	}
	v.IsActive = false
	return nil
}

// DeactivateIfExpired — идемпотентная уборка.
func (s *VerificationService) DeactivateIfExpired(v *models.VerificationCode) error {
	if !v.IsActive || !v.IsExpired(s.now()) {
		return nil
	}
	if err := s.repo.Deactivate(v.ID); err != nil {
		return err
	}
	v.IsActive = false
	return nil
}
