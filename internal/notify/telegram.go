package notify

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// Message priorities. Normal and low priority messages are delivered muted.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

const maxMessageLen = 4000

// Notifier pushes one-way signal alerts to a Telegram chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewNotifier creates a notifier for the given bot token and chat.
func NewNotifier(botToken string, chatID int64, logger zerolog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram").Logger(),
	}, nil
}

// SendMessage delivers one message with a priority prefix. Overlong
// messages are truncated rather than rejected.
func (n *Notifier) SendMessage(text, priority string) error {
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen-50] + "\n\n... message truncated"
	}

	switch priority {
	case PriorityUrgent:
		text = "\U0001F6A8 " + text
	case PriorityHigh:
		text = "\U0001F514 " + text
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableNotification = priority == PriorityNormal || priority == PriorityLow

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Str("priority", priority).Msg("telegram send failed")
		return err
	}
	n.logger.Info().Str("priority", priority).Msg("telegram message sent")
	return nil
}

// SendBuySignals sends a buy digest followed by per-signal details for the
// high-priority grades.
func (n *Notifier) SendBuySignals(signals []models.Signal) error {
	buys := filterByType(signals, models.SignalBuy)
	if len(buys) == 0 {
		return nil
	}

	var sCount, aCount int
	for _, s := range buys {
		switch s.Grade {
		case models.GradeS:
			sCount++
		case models.GradeA:
			aCount++
		}
	}

	var summary strings.Builder
	summary.WriteString("<b>Margin momentum buy signals</b>\n")
	fmt.Fprintf(&summary, "Date: %s\n", buys[0].AnalysisDate)
	fmt.Fprintf(&summary, "Buy signals found: %d\n\n", len(buys))
	fmt.Fprintf(&summary, "S grade: %d\n", sCount)
	fmt.Fprintf(&summary, "A grade: %d\n", aCount)

	if err := n.SendMessage(summary.String(), PriorityNormal); err != nil {
		return err
	}

	var detail strings.Builder
	detail.WriteString("<b>High priority buy details</b>\n\n")
	for _, s := range buys {
		if s.Grade != models.GradeS && s.Grade != models.GradeA {
			continue
		}
		fmt.Fprintf(&detail, "<b>%s</b> [%s]\n", s.StockID, s.Grade)
		fmt.Fprintf(&detail, "  price: %.2f\n", s.Price)
		fmt.Fprintf(&detail, "  RSI: %.1f (oversold below 30)\n", s.RSI)
		fmt.Fprintf(&detail, "  margin change: %+.1f%%\n", s.MarginChangePct)
		fmt.Fprintf(&detail, "  expected return: +%.0f%%\n", s.ExpectedReturnPct)
		fmt.Fprintf(&detail, "  stop loss: %.0f%%\n", s.StopLossPct)
		fmt.Fprintf(&detail, "  holding target: %d days\n\n", s.HoldingDaysTarget)
	}

	return n.SendMessage(detail.String(), PriorityHigh)
}

// SendSellSignals sends an urgent alert listing every sell signal.
func (n *Notifier) SendSellSignals(signals []models.Signal) error {
	sells := filterByType(signals, models.SignalSell)
	if len(sells) == 0 {
		return nil
	}

	var urgent int
	for _, s := range sells {
		if s.Grade == models.GradeUrgent {
			urgent++
		}
	}

	var msg strings.Builder
	msg.WriteString("<b>Short anomaly - sell alerts</b>\n")
	fmt.Fprintf(&msg, "%d sell signals, %d URGENT\n\n", len(sells), urgent)
	for _, s := range sells {
		fmt.Fprintf(&msg, "<b>%s</b> [%s] RSI %.1f\n", s.StockID, s.Grade, s.RSI)
		fmt.Fprintf(&msg, "  price: %.2f | short change: %+.1f%%\n", s.Price, s.ShortChangePct)
		if s.RiskWarning != "" {
			fmt.Fprintf(&msg, "  warning: %s\n", s.RiskWarning)
		}
		msg.WriteString("\n")
	}

	return n.SendMessage(msg.String(), PriorityUrgent)
}

// SendDailySummary sends the end-of-run digest: counts by type plus the top
// S-grade picks.
func (n *Notifier) SendDailySummary(signals []models.Signal) error {
	buys := filterByType(signals, models.SignalBuy)
	sells := filterByType(signals, models.SignalSell)

	var msg strings.Builder
	msg.WriteString("<b>Margin momentum daily report</b>\n")
	fmt.Fprintf(&msg, "%s\n\n", time.Now().Format("2006-01-02 15:04"))
	fmt.Fprintf(&msg, "Buy signals: %d\n", len(buys))
	fmt.Fprintf(&msg, "Sell signals: %d\n", len(sells))
	fmt.Fprintf(&msg, "Total: %d\n\n", len(signals))

	var top int
	for _, s := range buys {
		if s.Grade != models.GradeS || top >= 3 {
			continue
		}
		if top == 0 {
			msg.WriteString("<b>Top S-grade picks</b>\n")
		}
		fmt.Fprintf(&msg, "  %s: %.2f (expected +%.0f%%)\n", s.StockID, s.Price, s.ExpectedReturnPct)
		top++
	}
	msg.WriteString("\nMind the stop-loss rules.")

	return n.SendMessage(msg.String(), PriorityNormal)
}

func filterByType(signals []models.Signal, t models.SignalType) []models.Signal {
	var out []models.Signal
	for _, s := range signals {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
