package prayertimes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Brawl345/prayerbot/model"
)

type (
	Fetcher interface {
		FetchTimings(ctx context.Context, city, country string) (model.Timings, error)
	}

	// Service owns subscriptions: it turns a location into stored timings.
	Service struct {
		store   model.PrayerStore
		fetcher Fetcher
		now     func() time.Time
	}

	Location struct {
		City    string
		Country string
	}
)

func NewService(store model.PrayerStore, fetcher Fetcher) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// ParseLocation reads "City,Country". Anything but exactly two non-empty
// comma-separated parts is model.ErrInputFormat.
func ParseLocation(text string) (Location, error) {
	if strings.HasPrefix(text, "/") {
		return Location{}, fmt.Errorf("%w: commands are not locations", model.ErrInputFormat)
	}

	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return Location{}, fmt.Errorf("%w: expected 2 parts, got %d", model.ErrInputFormat, len(parts))
	}

	loc := Location{
		City:    strings.TrimSpace(parts[0]),
		Country: strings.TrimSpace(parts[1]),
	}
	if loc.City == "" || loc.Country == "" {
		return Location{}, fmt.Errorf("%w: empty city or country", model.ErrInputFormat)
	}
	return loc, nil
}

// Subscribe fetches the timings for text and overwrites the chat's record
// with them, all notified flags false. Storage is untouched unless the fetch
// succeeds.
func (s *Service) Subscribe(ctx context.Context, chatID string, text string) (*model.Subscription, error) {
	loc, err := ParseLocation(text)
	if err != nil {
		return nil, err
	}

	timings, err := s.fetcher.FetchTimings(ctx, loc.City, loc.Country)
	if err != nil {
		if errors.Is(err, model.ErrFetchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrFetchFailed, err)
	}

	sub := model.NewSubscription(loc.City, loc.Country, timings, model.Day(s.now()))
	if err := s.store.Put(ctx, chatID, sub); err != nil {
		if errors.Is(err, model.ErrStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	return sub, nil
}

func (s *Service) Subscription(ctx context.Context, chatID string) (*model.Subscription, error) {
	return s.store.Get(ctx, chatID)
}

func (s *Service) Unsubscribe(ctx context.Context, chatID string) error {
	return s.store.Delete(ctx, chatID)
}
