package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kammalabel/internal/models"
)

// OrderNotifier — уведомления магазину. nil-реализация допустима:
// заказы не должны зависеть от телеграма.
type OrderNotifier interface {
	NotifyOrderPaid(order *models.Order, user *models.User) error
}

type telegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier — nil, если бот не сконфигурирован.
func NewTelegramNotifier(botToken string, chatID int64) OrderNotifier {
	if botToken == "" || chatID == 0 {
		log.Printf("[tg] disabled: no token or chat id")
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg] init failed: %v", err)
		return nil
	}
	return &telegramNotifier{bot: bot, chatID: chatID}
}

func (t *telegramNotifier) NotifyOrderPaid(order *models.Order, user *models.User) error {
	text := fmt.Sprintf(
		"💰 Оплачен заказ <b>%s</b>\nПокупатель: %s\nСумма: %d\nПозиций: %d",
		order.Number, user.FullName(), order.TotalAmount, len(order.Items),
	)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram notify: %w", err)
	}
	return nil
}
