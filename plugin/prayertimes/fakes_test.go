package prayertimes

import (
	"context"
	"sync"
	"testing"

	"github.com/Brawl345/prayerbot/model"
	filestore "github.com/Brawl345/prayerbot/model/file"
	"github.com/PaulSonOfLars/gotgbot/v2"
)

type stubFetcher struct {
	mu      sync.Mutex
	timings model.Timings
	err     error
	calls   int
}

func (f *stubFetcher) FetchTimings(_ context.Context, _, _ string) (model.Timings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.timings, nil
}

func (f *stubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingFetcher reports on started and waits for release before answering.
type blockingFetcher struct {
	stubFetcher
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchTimings(ctx context.Context, city, country string) (model.Timings, error) {
	select {
	case f.started <- struct{}{}:
	default:
	}
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.stubFetcher.FetchTimings(ctx, city, country)
}

// conflictOnceStore runs the first Update against a snapshot and then
// reports a conflict, like a WATCH that saw another writer.
type conflictOnceStore struct {
	model.PrayerStore
	updates int
}

func (s *conflictOnceStore) Update(ctx context.Context, fn func(subs map[string]*model.Subscription) error) error {
	s.updates++
	if s.updates > 1 {
		return s.PrayerStore.Update(ctx, fn)
	}

	subs, err := s.PrayerStore.All(ctx)
	if err != nil {
		return err
	}
	if err := fn(subs); err != nil {
		return err
	}
	return model.ErrConflict
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) SendMessage(chatId int64, text string, _ *gotgbot.SendMessageOpts) (*gotgbot.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, sentMessage{chatID: chatId, text: text})
	return &gotgbot.Message{}, nil
}

func (s *fakeSender) Sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func newStore(t *testing.T) model.PrayerStore {
	t.Helper()
	store, err := filestore.New(t.TempDir() + "/storage.json")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}
