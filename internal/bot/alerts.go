package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// SubscriberStore persists alert subscriptions. The dispatcher keeps an
// in-memory copy and writes every change through.
type SubscriberStore interface {
	AddSubscriber(ctx context.Context, chatID int64) error
	RemoveSubscriber(ctx context.Context, chatID int64) error
	ListSubscribers(ctx context.Context) ([]int64, error)
}

type alertMode int

const (
	alertStatus alertMode = iota
	alertOn
	alertOff
)

// AlertDispatcher broadcasts watchlist signals to subscribed chats.
type AlertDispatcher struct {
	sender messageSender
	store  SubscriberStore

	mu    sync.RWMutex
	chats map[int64]struct{}
}

// NewAlertDispatcher restores subscribers from store when one is given. A
// store that cannot be read leaves the dispatcher empty but usable.
func NewAlertDispatcher(ctx context.Context, sender messageSender, store SubscriberStore) *AlertDispatcher {
	d := &AlertDispatcher{sender: sender, store: store, chats: make(map[int64]struct{})}
	if store == nil {
		return d
	}
	ids, err := store.ListSubscribers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to restore alert subscribers")
		return d
	}
	for _, id := range ids {
		d.chats[id] = struct{}{}
	}
	log.Info().Int("subscribers", len(ids)).Msg("restored alert subscribers")
	return d
}

// Subscribe reports whether chatID was newly added. The memory set is only
// changed after the store accepted the write.
func (d *AlertDispatcher) Subscribe(ctx context.Context, chatID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.chats[chatID]; ok {
		return false, nil
	}
	if d.store != nil {
		if err := d.store.AddSubscriber(ctx, chatID); err != nil {
			return false, err
		}
	}
	d.chats[chatID] = struct{}{}
	return true, nil
}

func (d *AlertDispatcher) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.chats[chatID]; !ok {
		return false, nil
	}
	if d.store != nil {
		if err := d.store.RemoveSubscriber(ctx, chatID); err != nil {
			return false, err
		}
	}
	delete(d.chats, chatID)
	return true, nil
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.chats[chatID]
	return ok
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.chats)
}

// reply handles one /alerts command and returns the chat response.
func (d *AlertDispatcher) reply(ctx context.Context, mode alertMode, chatID int64) string {
	var (
		changed bool
		err     error
	)
	switch mode {
	case alertOn:
		changed, err = d.Subscribe(ctx, chatID)
	case alertOff:
		changed, err = d.Unsubscribe(ctx, chatID)
	default:
		if d.IsSubscribed(chatID) {
			return "Alerts status: ON"
		}
		return "Alerts status: OFF"
	}
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to update alert subscription")
		return "Could not update alerts right now, please try again later."
	}

	state := "enabled"
	if mode == alertOff {
		state = "disabled"
	}
	if !changed {
		return fmt.Sprintf("Watchlist alerts are already %s for this chat.", state)
	}
	return fmt.Sprintf("Watchlist alerts %s for this chat.", state)
}

// NotifySignals sends one combined message to every subscriber. Delivery
// failures are collected and returned together after all chats were tried.
func (d *AlertDispatcher) NotifySignals(ctx context.Context, decisions []domain.SignalDecision) error {
	if d == nil || d.sender == nil || len(decisions) == 0 {
		return nil
	}
	chatIDs := d.subscribers()
	if len(chatIDs) == 0 {
		return nil
	}

	body := formatAlertMessage(decisions)
	var errs []error
	for _, chatID := range chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, body); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed sending %d alerts: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func (d *AlertDispatcher) subscribers() []int64 {
	d.mu.RLock()
	ids := make([]int64, 0, len(d.chats))
	for id := range d.chats {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func parseAlertMode(args []string) (alertMode, error) {
	if len(args) == 0 {
		return alertStatus, nil
	}
	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return alertOn, nil
	case "off":
		return alertOff, nil
	case "status":
		return alertStatus, nil
	}
	return alertStatus, fmt.Errorf("invalid alerts mode %q", args[0])
}

func formatAlertMessage(decisions []domain.SignalDecision) string {
	var b strings.Builder
	b.WriteString("Watchlist signal alert:")
	for _, d := range decisions {
		p := render.NewPayload(d)
		fmt.Fprintf(&b, "\n%s (OTC) %s %s%% at %s", p.Asset, p.Direction, p.Confidence, p.Time)
	}
	return b.String()
}
