package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kammalabel/internal/authz"
	"kammalabel/internal/models"
	"kammalabel/internal/repositories"
	"kammalabel/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVerified    = errors.New("already verified")
	ErrContactTaken       = errors.New("contact already in use")
	ErrAccountNotFound    = errors.New("account not found")
)

// CodeDelivery — метаданные отправленного кода для ответа клиенту.
// Сам код сюда не попадает: он уходит только по каналу доставки.
type CodeDelivery struct {
	Key      string `json:"random_key"`
	Channel  string `json:"send_code_type"`
	Receiver string `json:"receiver"` // маскированный
	TTL      int    `json:"ttl"`
}

func deliveryInfo(v *models.VerificationCode) *CodeDelivery {
	return &CodeDelivery{
		Key:      v.Key,
		Channel:  v.Channel,
		Receiver: utils.MaskReceiver(v.Receiver),
		TTL:      v.TTLSeconds,
	}
}

// AccountService — пользовательские сценарии поверх кодов и токенов:
// двухшаговый вход, регистрация, восстановление пароля, смена контактов.
type AccountService struct {
	users        repositories.UserRepository
	auth         AuthService
	verification *VerificationService
	tokens       *TokenService
	emails       EmailService
}

func NewAccountService(
	users repositories.UserRepository,
	auth AuthService,
	verification *VerificationService,
	tokens *TokenService,
	emails EmailService,
) *AccountService {
	return &AccountService{
		users:        users,
		auth:         auth,
		verification: verification,
		tokens:       tokens,
		emails:       emails,
	}
}

type LoginStartResult struct {
	Delivery  *CodeDelivery        `json:"random_number"`
	TempToken *models.SessionToken `json:"token_info"`
}

// channelForUsername: похоже на email — email, иначе SMS.
func channelForUsername(username string) string {
	if strings.Contains(username, "@") {
		return models.ChannelEmail
	}
	return models.ChannelSMS
}

// LoginStart — первый фактор. Ошибка не говорит, что именно не совпало.
func (s *AccountService) LoginStart(username, password string) (*LoginStartResult, error) {
	username = strings.TrimSpace(username)
	channel := channelForUsername(username)

	var (
		user *models.User
		err  error
	)
	if channel == models.ChannelEmail {
		user, err = s.users.GetByEmail(username)
	} else {
		user, err = s.users.GetByPhone(username)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !s.auth.CheckPassword(user.PasswordHash, password) {
		log.Printf("[account][login] rejected for %q", utils.MaskReceiver(username))
		return nil, ErrInvalidCredentials
	}

	v, err := s.verification.Generate(user, models.PurposeLogin, channel, "")
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		return nil, err
	}
	deliveryErr := err

	temp, terr := s.tokens.IssueTemporary(user)
	if terr != nil {
		return nil, terr
	}
	log.Printf("[account][login] first factor ok: user=%d channel=%s", user.ID, channel)
	return &LoginStartResult{Delivery: deliveryInfo(v), TempToken: temp}, deliveryErr
}

// LoginVerify — второй фактор: временный токен + код → полный токен.
func (s *AccountService) LoginVerify(tempToken, key, code string) (*models.SessionToken, error) {
	user, tok, err := s.tokens.Validate(tempToken)
	if err != nil {
		return nil, err
	}
	if !tok.IsTemporary {
		return nil, ErrTokenInvalid
	}
	if _, err := s.verification.CheckCode(models.PurposeLogin, key, code, user, true); err != nil {
		return nil, err
	}
	full, err := s.tokens.IssueFull(user)
	if err != nil {
		return nil, err
	}
	log.Printf("[account][login] second factor ok: user=%d", user.ID)
	return full, nil
}

type RegisterStartInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	BirthDate *time.Time
}

type RegisterStartResult struct {
	User      *models.User         `json:"user_info"`
	TempToken *models.SessionToken `json:"token_info"`
}

// RegisterStart — неактивный пользователь + временный токен. Пароль и
// активация — после подтверждения контакта.
func (s *AccountService) RegisterStart(in RegisterStartInput) (*RegisterStartResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	if taken, err := s.users.EmailTaken(email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: email", ErrContactTaken)
	}
	if taken, err := s.users.PhoneTaken(phone, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: phone number", ErrContactTaken)
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		UserType:  authz.TypeCustomer,
		Email:     email,
		Phone:     phone,
		BirthDate: in.BirthDate,
		IsActive:  false,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	temp, err := s.tokens.IssueTemporary(user)
	if err != nil {
		return nil, err
	}
	log.Printf("[account][register] created inactive user=%d", user.ID)
	return &RegisterStartResult{User: user, TempToken: temp}, nil
}

// RegisterSendCode — код на email или телефон регистрирующегося.
func (s *AccountService) RegisterSendCode(user *models.User, channel string) (*CodeDelivery, error) {
	v, err := s.verification.Generate(user, models.PurposeRegister, channel, "")
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		return nil, err
	}
	return deliveryInfo(v), err
}

// RegisterCheckCode — подтверждает контакт, канал кода решает какой.
func (s *AccountService) RegisterCheckCode(user *models.User, key, code string) (*models.User, error) {
	v, err := s.verification.CheckCode(models.PurposeRegister, key, code, user, true)
	if err != nil {
		return nil, err
	}
	switch v.Channel {
	case models.ChannelEmail:
		if err := s.users.MarkEmailVerified(user.ID, v.Receiver); err != nil {
			return nil, err
		}
		user.Email = v.Receiver
		user.VerifiedEmail = true
	case models.ChannelSMS:
		if err := s.users.MarkPhoneVerified(user.ID, v.Receiver); err != nil {
			return nil, err
		}
		user.Phone = v.Receiver
		user.VerifiedPhone = true
	}
	return user, nil
}

// RegisterSetPassword — финал регистрации: пароль, активация, полный токен.
func (s *AccountService) RegisterSetPassword(user *models.User, password string) (*models.SessionToken, error) {
	if !user.VerifiedEmail && !user.VerifiedPhone {
		return nil, ErrCodeNotFound
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetPassword(user.ID, hash); err != nil {
		return nil, err
	}
	if err := s.users.Activate(user.ID); err != nil {
		return nil, err
	}
	user.IsActive = true
	full, err := s.tokens.IssueFull(user)
	if err != nil {
		return nil, err
	}
	if s.emails != nil && user.VerifiedEmail {
		if err := s.emails.SendWelcomeEmail(user.Email, user.FullName()); err != nil {
			// не валим регистрацию из-за письма
			log.Printf("[account][register] welcome email failed: user=%d err=%v", user.ID, err)
		}
	}
	log.Printf("[account][register] completed: user=%d", user.ID)
	return full, nil
}

// ForgotStart — ищем по подтверждённому телефону, потом по подтверждённому email.
func (s *AccountService) ForgotStart(username string) (*CodeDelivery, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var (
		user    *models.User
		channel string
	)
	if u, err := s.users.GetByPhone(username); err != nil {
		return nil, err
	} else if u != nil && u.IsActive && u.VerifiedPhone {
		user, channel = u, models.ChannelSMS
	}
	if user == nil {
		if u, err := s.users.GetByEmail(username); err != nil {
			return nil, err
		} else if u != nil && u.IsActive && u.VerifiedEmail {
			user, channel = u, models.ChannelEmail
		}
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	v, err := s.verification.Generate(user, models.PurposeForgotPassword, channel, "")
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		return nil, err
	}
	return deliveryInfo(v), err
}

// ForgotResend — повторная отправка кода восстановления.
func (s *AccountService) ForgotResend(key, channel string) (*CodeDelivery, error) {
	v, err := s.verification.Resend(models.PurposeForgotPassword, key, channel)
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		return nil, err
	}
	return deliveryInfo(v), err
}

// ForgotChangePassword — код проверяется без consume и гасится явно после
// установки пароля; все сессии пользователя отзываются.
func (s *AccountService) ForgotChangePassword(key, code, newPassword string) error {
	v, err := s.verification.CheckCode(models.PurposeForgotPassword, key, code, nil, false)
	if err != nil {
		return err
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(v.UserID, hash); err != nil {
		return err
	}
	if err := s.verification.Invalidate(v); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(v.UserID); err != nil {
		return err
	}
	log.Printf("[account][forgot] password changed, sessions revoked: user=%d", v.UserID)
	return nil
}

// ChangeEmailStart — код на новый адрес; сам адрес пользователя меняется
// только после подтверждения.
func (s *AccountService) ChangeEmailStart(user *models.User, newEmail string) (*CodeDelivery, error) {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == strings.ToLower(user.Email) && user.VerifiedEmail {
		return nil, ErrAlreadyVerified
	}
	if taken, err := s.users.EmailTaken(newEmail, user.ID); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: email", ErrContactTaken)
	}

	v, err := s.verification.Generate(user, models.PurposeChangeData, models.ChannelEmail, newEmail)
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		return nil, err
	}
	return deliveryInfo(v), err
}

func (s *AccountService) ChangePhoneStart(user *models.User, newPhone string) (*CodeDelivery, error) {
	newPhone = strings.TrimSpace(newPhone)
	if newPhone == user.Phone && user.VerifiedPhone {
		return nil, ErrAlreadyVerified
	}
	if taken, err := s.users.PhoneTaken(newPhone, user.ID); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: phone number", ErrContactTaken)
	}

	v, err := s.verification.Generate(user, models.PurposeChangeData, models.ChannelSMS, newPhone)
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		return nil, err
	}
	return deliveryInfo(v), err
}

// ChangeDataConfirm — кандидат из receiver переезжает в профиль и помечается
// подтверждённым.
func (s *AccountService) ChangeDataConfirm(user *models.User, key, code string) (*models.User, error) {
	v, err := s.verification.CheckCode(models.PurposeChangeData, key, code, user, true)
	if err != nil {
		return nil, err
	}
	switch v.Channel {
	case models.ChannelEmail:
		if err := s.users.MarkEmailVerified(user.ID, v.Receiver); err != nil {
			return nil, err
		}
		user.Email = v.Receiver
		user.VerifiedEmail = true
	case models.ChannelSMS:
		if err := s.users.MarkPhoneVerified(user.ID, v.Receiver); err != nil {
			return nil, err
		}
		user.Phone = v.Receiver
		user.VerifiedPhone = true
	}
	log.Printf("[account][change-data] confirmed: user=%d channel=%s", user.ID, v.Channel)
	return user, nil
}

// ChangePassword — для залогиненного пользователя, со старым паролем.
func (s *AccountService) ChangePassword(user *models.User, oldPassword, newPassword string) error {
	if !s.auth.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(user.ID, hash)
}

// Logout — отзыв текущего токена, строка остаётся в истории.
func (s *AccountService) Logout(token string) error {
	return s.tokens.Revoke(token)
}
