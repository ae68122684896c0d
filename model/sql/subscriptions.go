package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Brawl345/prayerbot/logger"
	"github.com/Brawl345/prayerbot/model"
	"github.com/jmoiron/sqlx"
)

type (
	prayerStore struct {
		*sqlx.DB
		log *logger.Logger
	}

	subscriptionRow struct {
		ChatID    string `db:"chat_id"`
		City      string `db:"city"`
		Country   string `db:"country"`
		FetchedOn string `db:"fetched_on"`
	}

	timingRow struct {
		ChatID     string         `db:"chat_id"`
		Name       string         `db:"name"`
		Time       string         `db:"time"`
		Notified   bool           `db:"notified"`
		NotifiedOn sql.NullString `db:"notified_on"`
	}
)

func NewPrayerStore(db *sqlx.DB) *prayerStore {
	return &prayerStore{
		DB:  db,
		log: logger.New("prayerStore"),
	}
}

func assemble(subRows []subscriptionRow, timingRows []timingRow) map[string]*model.Subscription {
	subs := make(map[string]*model.Subscription, len(subRows))
	for _, row := range subRows {
		subs[row.ChatID] = &model.Subscription{
			City:       row.City,
			Country:    row.Country,
			FetchedOn:  row.FetchedOn,
			Timings:    make(model.Timings),
			Notified:   make(map[string]bool),
			NotifiedOn: make(map[string]string),
		}
	}

	for _, row := range timingRows {
		sub, ok := subs[row.ChatID]
		if !ok {
			continue
		}
		sub.Timings[row.Name] = row.Time
		sub.Notified[row.Name] = row.Notified
		if row.NotifiedOn.Valid {
			sub.NotifiedOn[row.Name] = row.NotifiedOn.String
		}
	}

	return subs
}

func (db *prayerStore) All(ctx context.Context) (map[string]*model.Subscription, error) {
	const subsQuery = `SELECT chat_id, city, country, fetched_on FROM prayer_subscriptions`
	var subRows []subscriptionRow
	if err := db.SelectContext(ctx, &subRows, subsQuery); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	const timingsQuery = `SELECT chat_id, name, time, notified, notified_on FROM prayer_timings`
	var timingRows []timingRow
	if err := db.SelectContext(ctx, &timingRows, timingsQuery); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	return assemble(subRows, timingRows), nil
}

func (db *prayerStore) Get(ctx context.Context, chatID string) (*model.Subscription, error) {
	const subQuery = `SELECT chat_id, city, country, fetched_on FROM prayer_subscriptions WHERE chat_id = ?`
	var row subscriptionRow
	if err := db.GetContext(ctx, &row, subQuery, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	const timingsQuery = `SELECT chat_id, name, time, notified, notified_on FROM prayer_timings WHERE chat_id = ?`
	var timingRows []timingRow
	if err := db.SelectContext(ctx, &timingRows, timingsQuery, chatID); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	return assemble([]subscriptionRow{row}, timingRows)[chatID], nil
}

func (db *prayerStore) writeTx(ctx context.Context, tx *sqlx.Tx, chatID string, sub *model.Subscription) error {
	const upsertQuery = `INSERT INTO
    prayer_subscriptions (chat_id, city, country, fetched_on)
    VALUES (?, ?, ?, ?)
    ON DUPLICATE KEY UPDATE city = VALUES(city), country = VALUES(country), fetched_on = VALUES(fetched_on)`
	_, err := tx.ExecContext(ctx, upsertQuery, chatID, sub.City, sub.Country, sub.FetchedOn)
	if err != nil {
		return err
	}

	const deleteTimingsQuery = `DELETE FROM prayer_timings WHERE chat_id = ?`
	_, err = tx.ExecContext(ctx, deleteTimingsQuery, chatID)
	if err != nil {
		return err
	}

	const insertTimingQuery = `INSERT INTO
    prayer_timings (chat_id, name, time, notified, notified_on)
    VALUES (?, ?, ?, ?, ?)`
	for name, t := range sub.Timings {
		_, err = tx.ExecContext(ctx, insertTimingQuery,
			chatID,
			name,
			t,
			sub.Notified[name],
			NewNullString(sub.NotifiedOn[name]),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (db *prayerStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	defer func(tx *sqlx.Tx) {
		err := tx.Rollback()
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.log.Err(err).Msg("failed to rollback transaction")
		}
	}(tx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	return nil
}

func (db *prayerStore) Put(ctx context.Context, chatID string, sub *model.Subscription) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := db.writeTx(ctx, tx, chatID, sub); err != nil {
			return fmt.Errorf("%w: %w", model.ErrStorage, err)
		}
		return nil
	})
}

func (db *prayerStore) Delete(ctx context.Context, chatID string) error {
	const query = `DELETE FROM prayer_subscriptions WHERE chat_id = ?`
	res, err := db.ExecContext(ctx, query, chatID)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Update locks every subscription row for the duration of fn and only
// rewrites the subscriptions fn actually changed.
func (db *prayerStore) Update(ctx context.Context, fn func(subs map[string]*model.Subscription) error) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		const subsQuery = `SELECT chat_id, city, country, fetched_on FROM prayer_subscriptions FOR UPDATE`
		var subRows []subscriptionRow
		if err := tx.SelectContext(ctx, &subRows, subsQuery); err != nil {
			return fmt.Errorf("%w: %w", model.ErrStorage, err)
		}

		const timingsQuery = `SELECT chat_id, name, time, notified, notified_on FROM prayer_timings FOR UPDATE`
		var timingRows []timingRow
		if err := tx.SelectContext(ctx, &timingRows, timingsQuery); err != nil {
			return fmt.Errorf("%w: %w", model.ErrStorage, err)
		}

		subs := assemble(subRows, timingRows)

		before := make(map[string][]byte, len(subs))
		for chatID, sub := range subs {
			snapshot, err := json.Marshal(sub)
			if err != nil {
				return fmt.Errorf("%w: %w", model.ErrStorage, err)
			}
			before[chatID] = snapshot
		}

		if err := fn(subs); err != nil {
			return err
		}

		const deleteQuery = `DELETE FROM prayer_subscriptions WHERE chat_id = ?`
		for chatID := range before {
			if _, ok := subs[chatID]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, deleteQuery, chatID); err != nil {
				return fmt.Errorf("%w: %w", model.ErrStorage, err)
			}
		}

		for chatID, sub := range subs {
			if sub == nil {
				continue
			}
			after, err := json.Marshal(sub)
			if err != nil {
				return fmt.Errorf("%w: %w", model.ErrStorage, err)
			}
			if string(after) == string(before[chatID]) {
				continue
			}
			if err := db.writeTx(ctx, tx, chatID, sub); err != nil {
				return fmt.Errorf("%w: %w", model.ErrStorage, err)
			}
		}

		return nil
	})
}

func (db *prayerStore) Close() error {
	return db.DB.Close()
}
