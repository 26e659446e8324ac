package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const alertSubscribersKey = "otc:alerts:subscribers"

// SubscriberStore keeps the Telegram chats that enabled watchlist alerts in
// a Redis set so subscriptions survive restarts.
type SubscriberStore struct {
	client *redis.Client
}

func NewSubscriberStore(client *redis.Client) *SubscriberStore {
	return &SubscriberStore{client: client}
}

func (s *SubscriberStore) AddSubscriber(ctx context.Context, chatID int64) error {
	if err := s.client.SAdd(ctx, alertSubscribersKey, chatID).Err(); err != nil {
		return fmt.Errorf("add subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *SubscriberStore) RemoveSubscriber(ctx context.Context, chatID int64) error {
	if err := s.client.SRem(ctx, alertSubscribersKey, chatID).Err(); err != nil {
		return fmt.Errorf("remove subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *SubscriberStore) ListSubscribers(ctx context.Context) ([]int64, error) {
	members, err := s.client.SMembers(ctx, alertSubscribersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
