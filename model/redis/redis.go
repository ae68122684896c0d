package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Brawl345/prayerbot/config"
	"github.com/Brawl345/prayerbot/logger"
	"github.com/Brawl345/prayerbot/model"
	goredis "github.com/redis/go-redis/v9"
)

// prayerStore keeps one hash field per chat, the value being the JSON
// encoded subscription. Update uses WATCH/MULTI, so a concurrent writer
// makes it fail with model.ErrConflict instead of losing a write.
type prayerStore struct {
	client *goredis.Client
	key    string
	log    *logger.Logger
}

func New(ctx context.Context, cfg config.Redis) (*prayerStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &prayerStore{
		client: client,
		key:    cfg.Key,
		log:    logger.New("redisStore"),
	}, nil
}

func (db *prayerStore) decodeAll(raw map[string]string) map[string]*model.Subscription {
	subs := make(map[string]*model.Subscription, len(raw))
	for chatID, value := range raw {
		var sub model.Subscription
		if err := json.Unmarshal([]byte(value), &sub); err != nil {
			db.log.Err(err).
				Str("chat_id", chatID).
				Msg("Skipping malformed subscription")
			continue
		}
		subs[chatID] = &sub
	}
	return subs
}

// changes returns the fields to delete and the fields to write, comparing the
// encoded subscriptions with what was read.
func changes(raw map[string]string, before, after map[string]*model.Subscription) ([]string, map[string]any, error) {
	var deleted []string
	for chatID := range before {
		if sub, ok := after[chatID]; !ok || sub == nil {
			deleted = append(deleted, chatID)
		}
	}

	changed := make(map[string]any)
	for chatID, sub := range after {
		if sub == nil {
			continue
		}
		encoded, err := json.Marshal(sub)
		if err != nil {
			return nil, nil, err
		}
		if old, ok := raw[chatID]; ok && old == string(encoded) {
			continue
		}
		changed[chatID] = string(encoded)
	}

	return deleted, changed, nil
}

func (db *prayerStore) All(ctx context.Context) (map[string]*model.Subscription, error) {
	raw, err := db.client.HGetAll(ctx, db.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	return db.decodeAll(raw), nil
}

func (db *prayerStore) Get(ctx context.Context, chatID string) (*model.Subscription, error) {
	value, err := db.client.HGet(ctx, db.key, chatID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	var sub model.Subscription
	if err := json.Unmarshal([]byte(value), &sub); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	return &sub, nil
}

func (db *prayerStore) Put(ctx context.Context, chatID string, sub *model.Subscription) error {
	encoded, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	if err := db.client.HSet(ctx, db.key, chatID, string(encoded)).Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	return nil
}

func (db *prayerStore) Delete(ctx context.Context, chatID string) error {
	n, err := db.client.HDel(ctx, db.key, chatID).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (db *prayerStore) Update(ctx context.Context, fn func(subs map[string]*model.Subscription) error) error {
	err := db.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.HGetAll(ctx, db.key).Result()
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrStorage, err)
		}

		subs := db.decodeAll(raw)
		before := make(map[string]*model.Subscription, len(subs))
		for chatID, sub := range subs {
			before[chatID] = sub
		}

		if err := fn(subs); err != nil {
			return err
		}

		deleted, changed, err := changes(raw, before, subs)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrStorage, err)
		}
		if len(deleted) == 0 && len(changed) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if len(deleted) > 0 {
				pipe.HDel(ctx, db.key, deleted...)
			}
			if len(changed) > 0 {
				pipe.HSet(ctx, db.key, changed)
			}
			return nil
		})
		return err
	}, db.key)

	if errors.Is(err, goredis.TxFailedErr) {
		return model.ErrConflict
	}
	return err
}

func (db *prayerStore) Close() error {
	return db.client.Close()
}
