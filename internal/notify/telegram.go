package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// TelegramDelivery sends notifications to a Telegram chat. The bot is
// send-only; no poller is started.
type TelegramDelivery struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegramDelivery(token string, chatID int64) (*TelegramDelivery, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat_id is not set")
	}
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramDelivery{bot: b, chatID: chatID}, nil
}

func (d *TelegramDelivery) Deliver(ctx context.Context, p Payload) error {
	text := p.Title + "\n" + p.Body
	if p.Snooze {
		text += "\n(snoozed follow-up)"
	}

	done := make(chan error, 1)
	go func() {
		_, err := d.bot.Send(tele.ChatID(d.chatID), text, &tele.SendOptions{DisableWebPagePreview: true})
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	case <-time.After(deliverTimeout):
		return fmt.Errorf("%w: telegram send timed out", ErrUnavailable)
	}
}
