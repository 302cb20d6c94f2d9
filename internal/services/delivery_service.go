package services

import (
	"fmt"
	"log"

	"kammalabel/internal/models"
	"kammalabel/internal/utils"
)

// Dispatcher — канал доставки кода (email/sms). Запись кода уже в БД к моменту
// вызова: сбой доставки не откатывает создание, клиент всегда может сделать resend.
type Dispatcher interface {
	Send(channel, receiver, code string, ttlSeconds int) error
}

type dispatcher struct {
	emails EmailService
	sms    *utils.Client
}

func NewDispatcher(emails EmailService, sms *utils.Client) Dispatcher {
	return &dispatcher{emails: emails, sms: sms}
}

func (d *dispatcher) Send(channel, receiver, code string, ttlSeconds int) error {
	switch channel {
	case models.ChannelEmail:
		if d.emails == nil {
			return fmt.Errorf("email dispatcher not configured")
		}
		return d.emails.SendCodeEmail(receiver, code, ttlSeconds)
	case models.ChannelSMS:
		if d.sms == nil {
			return fmt.Errorf("sms dispatcher not configured")
		}
		text := fmt.Sprintf("Kammalabel: код подтверждения %s", code)
		resp, err := d.sms.SendSMS(receiver, text)
		if err != nil {
			return err
		}
		log.Printf("[delivery][sms] ok: receiver=%s messageID=%s", utils.MaskReceiver(receiver), resp.Data.MessageID)
		return nil
	default:
		return fmt.Errorf("unknown delivery channel %q", channel)
	}
}
