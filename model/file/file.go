package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Brawl345/prayerbot/logger"
	"github.com/Brawl345/prayerbot/model"
)

// prayerStore keeps all subscriptions in a single JSON document which is
// read completely and rewritten completely on every change.
type prayerStore struct {
	mu   sync.Mutex
	path string
	log  *logger.Logger
}

func New(path string) (*prayerStore, error) {
	if path == "" {
		return nil, errors.New("storage path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &prayerStore{
		path: path,
		log:  logger.New("fileStore"),
	}, nil
}

func (db *prayerStore) load() (map[string]*model.Subscription, error) {
	subs := make(map[string]*model.Subscription)

	data, err := os.ReadFile(db.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return subs, nil
		}
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	if len(data) == 0 {
		return subs, nil
	}

	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", model.ErrStorage, db.path, err)
	}

	for chatID, sub := range subs {
		if sub == nil {
			delete(subs, chatID)
		}
	}

	return subs, nil
}

// save writes to a temp file in the same directory and renames it over the
// old document, so a crash mid-write leaves the previous version intact.
func (db *prayerStore) save(subs map[string]*model.Subscription) error {
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.path), filepath.Base(db.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			if err := os.Remove(tmpName); err != nil {
				db.log.Err(err).Str("file", tmpName).Msg("Failed to remove temp file")
			}
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	if err := os.Rename(tmpName, db.path); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	return nil
}

func (db *prayerStore) All(_ context.Context) (map[string]*model.Subscription, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.load()
}

func (db *prayerStore) Get(_ context.Context, chatID string) (*model.Subscription, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	subs, err := db.load()
	if err != nil {
		return nil, err
	}

	sub, ok := subs[chatID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return sub, nil
}

func (db *prayerStore) Put(ctx context.Context, chatID string, sub *model.Subscription) error {
	return db.Update(ctx, func(subs map[string]*model.Subscription) error {
		subs[chatID] = sub
		return nil
	})
}

func (db *prayerStore) Delete(ctx context.Context, chatID string) error {
	return db.Update(ctx, func(subs map[string]*model.Subscription) error {
		if _, ok := subs[chatID]; !ok {
			return model.ErrNotFound
		}
		delete(subs, chatID)
		return nil
	})
}

func (db *prayerStore) Update(ctx context.Context, fn func(subs map[string]*model.Subscription) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	subs, err := db.load()
	if err != nil {
		return err
	}

	if err := fn(subs); err != nil {
		return err
	}

	return db.save(subs)
}

func (db *prayerStore) Close() error {
	return nil
}
