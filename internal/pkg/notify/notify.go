package notify

import (
	"fmt"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/poller"
)

type Sender interface {
	SendMessage(params *telego.SendMessageParams) (*telego.Message, error)
}

// Telegram posts one message per finished payment poll to an operator chat.
type Telegram struct {
	bot    Sender
	chatID int64
	logger *zap.SugaredLogger
}

func NewTelegram(token string, chatID int64, logger *zap.SugaredLogger) (*Telegram, error) {
	bot, err := telego.NewBot(token, telego.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("telego.NewBot: %w", err)
	}
	return New(bot, chatID, logger), nil
}

func New(bot Sender, chatID int64, logger *zap.SugaredLogger) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, logger: logger}
}

func (t *Telegram) OnSuccess(o poller.Outcome) {
	t.send(fmt.Sprintf(`Payment received
Request: %s
Order: %s
Attempts: %d`, o.RequestID, orDash(o.Response.OrderID), o.Attempts))
}

func (t *Telegram) OnFailure(o poller.Outcome) {
	t.send(fmt.Sprintf(`Payment %s
Request: %s
Reason: %s`, o.Status, o.RequestID, orDash(o.Response.Error)))
}

func (t *Telegram) OnTimeout(o poller.Outcome) {
	t.send(fmt.Sprintf(`Payment unconfirmed, poll timed out
Request: %s
Attempts: %d`, o.RequestID, o.Attempts))
}

func (t *Telegram) send(text string) {
	_, err := t.bot.SendMessage(&telego.SendMessageParams{
		ChatID: telego.ChatID{ID: t.chatID},
		Text:   text,
	})
	if err != nil {
		t.logger.Errorf("bot.SendMessage: %v", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
