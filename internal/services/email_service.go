package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendCodeEmail(email, code string, ttlSeconds int) error
	SendWelcomeEmail(email, fullName string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendCodeEmail(email, code string, ttlSeconds int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your Kammalabel verification code")

	body := fmt.Sprintf(`
		<h3>Verification code</h3>
		<p>Your code: <strong>%s</strong></p>
		<p>The code is valid for %d seconds. If you did not request it, ignore this email.</p>
	`, code, ttlSeconds)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send code email: %w", err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(email, fullName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to Kammalabel!")

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Your account has been successfully created.</p>
		<p>Happy shopping,<br>The Kammalabel Team</p>
	`, fullName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
