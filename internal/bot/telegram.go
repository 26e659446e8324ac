package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"otc-signal/internal/chart"
	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

const (
	signalTimeout    = 30 * time.Second
	chartCandleLimit = 120
)

type SignalQuerier interface {
	GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error)
	ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error)
}

// StartTelegramBot starts long polling in the background and returns the
// alert dispatcher, or nil when no token is configured. Every chat shares
// the service broker account in creds. subscribers may be nil, in which case
// alert subscriptions only live for the lifetime of the process.
func StartTelegramBot(token string, signals SignalQuerier, creds domain.Credentials, subscribers SubscriberStore) *AlertDispatcher {
	if token == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Error().Err(err).Msg("failed to create Telegram bot")
		return nil
	}
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Second)
	alerts := NewAlertDispatcher(restoreCtx, b, subscribers)
	cancelRestore()

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(helpText)
	})

	b.Handle("/assets", func(c tele.Context) error {
		return c.Send(assetsReply(c.Args()))
	})

	b.Handle("/signal", func(c tele.Context) error {
		if signals == nil {
			return c.Send("Signal service unavailable")
		}
		_ = c.Notify(tele.Typing)

		ctx, cancel := context.WithTimeout(context.Background(), signalTimeout)
		defer cancel()
		return c.Send(signalReply(ctx, signals, creds, c.Message().Payload))
	})

	charts := chart.NewRenderer()
	b.Handle("/chart", func(c tele.Context) error {
		if signals == nil {
			return c.Send("Signal service unavailable")
		}
		_ = c.Notify(tele.UploadingPhoto)

		ctx, cancel := context.WithTimeout(context.Background(), signalTimeout)
		defer cancel()
		photo, text := chartReply(ctx, signals, charts, c.Message().Payload)
		if photo == nil {
			return c.Send(text)
		}
		return c.Send(photo)
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.Send(alerts.reply(ctx, mode, chat.ID))
	})

	log.Info().Msg("Telegram bot started")
	go b.Start()
	return alerts
}

const helpText = "OTC signal bot\n" +
	"/assets [category] - list tradable assets\n" +
	"/signal <SYMBOL> - signal for one asset, e.g. /signal EUR/USD\n" +
	"/chart <SYMBOL> - chart of archived candles with indicator overlays\n" +
	"/alerts on|off|status - watchlist alerts for this chat"

func assetsReply(args []string) string {
	grouped := domain.AssetsByCategory()
	categories := domain.Categories
	if len(args) > 0 {
		category, ok := domain.ParseCategory(strings.Join(args, " "))
		if !ok {
			names := make([]string, 0, len(domain.Categories))
			for _, c := range domain.Categories {
				names = append(names, string(c))
			}
			return "Unknown category. Choose one of: " + strings.Join(names, ", ")
		}
		categories = []domain.AssetCategory{category}
	}

	var b strings.Builder
	for i, category := range categories {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(category) + ":\n")
		for _, a := range grouped[category] {
			b.WriteString("  " + a.Label() + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func signalReply(ctx context.Context, signals SignalQuerier, creds domain.Credentials, payload string) string {
	symbol := strings.TrimSpace(payload)
	if symbol == "" {
		return "Usage: /signal EUR/USD\nSee /assets for the full list."
	}
	decision, err := signals.GetSignal(ctx, symbol, creds)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedAsset) {
			return fmt.Sprintf("Unknown asset: %s\nSee /assets for the full list.", symbol)
		}
		log.Error().Err(err).Str("asset", symbol).Msg("telegram signal")
		return "Signal unavailable right now, try again shortly."
	}
	return render.Text(decision)
}

// chartReply returns a photo, or a text reply when no chart can be drawn.
func chartReply(ctx context.Context, signals SignalQuerier, charts *chart.Renderer, payload string) (*tele.Photo, string) {
	symbol := strings.TrimSpace(payload)
	if symbol == "" {
		return nil, "Usage: /chart EUR/USD"
	}
	asset, ok := domain.LookupAsset(symbol)
	if !ok {
		return nil, fmt.Sprintf("Unknown asset: %s\nSee /assets for the full list.", symbol)
	}
	candles, err := signals.ListArchivedCandles(ctx, asset.Symbol, chartCandleLimit)
	if err != nil {
		log.Error().Err(err).Str("asset", asset.Symbol).Msg("telegram chart candles")
		return nil, "Chart unavailable right now, try again shortly."
	}
	if len(candles) < 2 {
		return nil, fmt.Sprintf("Not enough archived candles for %s yet. Request /signal %s first.", asset.Symbol, asset.Symbol)
	}
	data, err := charts.Render(candles, nil)
	if err != nil {
		log.Error().Err(err).Str("asset", asset.Symbol).Msg("telegram chart render")
		return nil, "Chart unavailable right now, try again shortly."
	}
	return &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(data)),
		Caption: fmt.Sprintf("%s (OTC), last %d candles", asset.Label(), len(candles)),
	}, ""
}
