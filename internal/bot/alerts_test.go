package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v3"

	"otc-signal/internal/domain"
)

func TestParseAlertMode(t *testing.T) {
	cases := map[string]alertMode{"": alertStatus, "on": alertOn, "OFF": alertOff, " status ": alertStatus}
	for in, want := range cases {
		var args []string
		if in != "" {
			args = []string{in}
		}
		got, err := parseAlertMode(args)
		if err != nil || got != want {
			t.Fatalf("parseAlertMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseAlertMode([]string{"nope"}); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestAlertDispatcherReply(t *testing.T) {
	ctx := context.Background()
	store := &memSubscriberStore{}
	d := NewAlertDispatcher(ctx, &fakeSender{}, store)

	if got := d.reply(ctx, alertStatus, 5); got != "Alerts status: OFF" {
		t.Fatalf("unexpected status: %s", got)
	}
	if got := d.reply(ctx, alertOn, 5); got != "Watchlist alerts enabled for this chat." {
		t.Fatalf("unexpected on reply: %s", got)
	}
	if got := d.reply(ctx, alertOn, 5); !strings.Contains(got, "already enabled") {
		t.Fatalf("unexpected repeat reply: %s", got)
	}
	if got := d.reply(ctx, alertStatus, 5); got != "Alerts status: ON" {
		t.Fatalf("unexpected status: %s", got)
	}
	if store.adds != 1 {
		t.Fatalf("expected a single store write, got %d", store.adds)
	}
	if got := d.reply(ctx, alertOff, 5); got != "Watchlist alerts disabled for this chat." || d.SubscriberCount() != 0 {
		t.Fatalf("unexpected off reply: %s", got)
	}
	if got := d.reply(ctx, alertOff, 5); !strings.Contains(got, "already disabled") {
		t.Fatalf("unexpected repeat off reply: %s", got)
	}
	if len(store.ids) != 0 {
		t.Fatalf("store should be empty, got %v", store.ids)
	}
}

func TestAlertDispatcherRestoresSubscribers(t *testing.T) {
	ctx := context.Background()
	store := &memSubscriberStore{ids: []int64{30, 10}}
	sender := &fakeSender{}
	d := NewAlertDispatcher(ctx, sender, store)

	if d.SubscriberCount() != 2 || !d.IsSubscribed(30) {
		t.Fatalf("subscribers not restored: %d", d.SubscriberCount())
	}
	if err := d.NotifySignals(ctx, []domain.SignalDecision{alertDecision()}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || len(sender.messages[30]) != 1 {
		t.Fatalf("restored chats should receive alerts: %+v", sender.messages)
	}
}

func TestAlertDispatcherStoreFailures(t *testing.T) {
	ctx := context.Background()

	broken := &memSubscriberStore{listErr: errors.New("redis down")}
	if d := NewAlertDispatcher(ctx, &fakeSender{}, broken); d.SubscriberCount() != 0 {
		t.Fatal("unreadable store should leave dispatcher empty")
	}

	store := &memSubscriberStore{writeErr: errors.New("redis down")}
	d := NewAlertDispatcher(ctx, &fakeSender{}, store)
	if got := d.reply(ctx, alertOn, 7); !strings.Contains(got, "Could not update alerts") {
		t.Fatalf("unexpected reply on store failure: %s", got)
	}
	if d.IsSubscribed(7) {
		t.Fatal("failed write must not subscribe the chat")
	}
}

func TestAlertDispatcherNotifySignals(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	d := NewAlertDispatcher(ctx, sender, nil)

	for _, id := range []int64{10, 20} {
		if added, err := d.Subscribe(ctx, id); !added || err != nil {
			t.Fatalf("subscribe %d: added=%v err=%v", id, added, err)
		}
	}
	if added, _ := d.Subscribe(ctx, 10); added {
		t.Fatal("expected duplicate subscribe to return false")
	}

	if err := d.NotifySignals(ctx, []domain.SignalDecision{alertDecision()}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || len(sender.messages[20]) != 1 {
		t.Fatalf("expected one message per subscriber, got %+v", sender.messages)
	}
	if !strings.Contains(sender.messages[10][0], "XAU/USD (Gold) (OTC) Up 90.00% at 2024-05-01 09:00:00") {
		t.Fatalf("unexpected alert body: %s", sender.messages[10][0])
	}
}

func TestAlertDispatcherUnsubscribe(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	d := NewAlertDispatcher(ctx, sender, nil)

	_, _ = d.Subscribe(ctx, 10)
	if removed, _ := d.Unsubscribe(ctx, 10); !removed {
		t.Fatal("expected unsubscribe to return true")
	}
	if removed, _ := d.Unsubscribe(ctx, 10); removed {
		t.Fatal("expected second unsubscribe to return false")
	}
	if err := d.NotifySignals(ctx, []domain.SignalDecision{alertDecision()}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherReportsFailures(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{fail: map[int64]bool{20: true}}
	d := NewAlertDispatcher(ctx, sender, &memSubscriberStore{ids: []int64{10, 20}})

	err := d.NotifySignals(ctx, []domain.SignalDecision{alertDecision()})
	if err == nil || !strings.Contains(err.Error(), "chat 20") {
		t.Fatalf("expected failure for chat 20, got %v", err)
	}
	if len(sender.messages[10]) != 1 {
		t.Fatal("healthy chat should still receive the alert")
	}
}

func TestNilAlertDispatcherIsNoop(t *testing.T) {
	var d *AlertDispatcher
	if err := d.NotifySignals(context.Background(), []domain.SignalDecision{alertDecision()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func alertDecision() domain.SignalDecision {
	return domain.SignalDecision{
		Asset:      domain.Asset{Symbol: "XAU/USD", Name: "Gold", Category: domain.CategoryCommodities},
		Direction:  domain.DirectionUp,
		Confidence: 90,
		Timestamp:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Source:     domain.SourceIndicators,
	}
}

type memSubscriberStore struct {
	ids      []int64
	adds     int
	listErr  error
	writeErr error
}

func (m *memSubscriberStore) AddSubscriber(_ context.Context, chatID int64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.adds++
	m.ids = append(m.ids, chatID)
	return nil
}

func (m *memSubscriberStore) RemoveSubscriber(_ context.Context, chatID int64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	for i, id := range m.ids {
		if id == chatID {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memSubscriberStore) ListSubscribers(context.Context) ([]int64, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]int64(nil), m.ids...), nil
}

type fakeSender struct {
	messages map[int64][]string
	fail     map[int64]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}
	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.fail[chat.ID] {
		return nil, errors.New("blocked by user")
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	return &tele.Message{}, nil
}
