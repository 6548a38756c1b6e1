package notify

import (
	"fmt"
	"strings"

	"scalper_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier — чисто наблюдательный сток: человекочитаемые причины по
// каждому входу, пропуску и флипу. Обратной связи в движок нет.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
	Decision(d models.Decision)
	Intent(intent models.TradeIntent)
}

// Telegram — пассивный нотифайер.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) Decision(d models.Decision) {
	switch d.Action {
	case models.DecisionFired:
		t.Sendf("✅ %s зона %.2f: %s", strings.ToUpper(string(d.ZoneKind)), d.ZonePrice, d.Reason)
	case models.DecisionFlipped:
		t.Sendf("🔁 Зона флипнута @ %.2f: %s", d.ZonePrice, d.Reason)
	default:
		t.Sendf("⛔ Пропуск %s @ %.2f: %s", strings.ToUpper(string(d.ZoneKind)), d.ZonePrice, d.Reason)
	}
}

func (t *Telegram) Intent(intent models.TradeIntent) {
	emoji := "🟢"
	if intent.Side == models.SideSell {
		emoji = "🔴"
	}
	t.Sendf("%s %s | Zone: %.2f | Entry: %.2f | SL: %.2f | TP: %.2f | Lot: %.3f",
		emoji, intent.Side, intent.ZonePrice, intent.Entry, intent.SL, intent.TP, intent.SizeHint)
}

// Nop — заглушка, если Telegram не сконфигурирован.
type Nop struct{}

func (Nop) Send(string)               {}
func (Nop) Sendf(string, ...any)      {}
func (Nop) Decision(models.Decision)  {}
func (Nop) Intent(models.TradeIntent) {}
