package prayertimes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Brawl345/prayerbot/model"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input   string
		want    Location
		wantErr bool
	}{
		{input: "Dhaka,Bangladesh", want: Location{City: "Dhaka", Country: "Bangladesh"}},
		{input: "  Cairo ,  Egypt ", want: Location{City: "Cairo", Country: "Egypt"}},
		{input: "Dhaka", wantErr: true},
		{input: "Dhaka,Bangladesh,Asia", wantErr: true},
		{input: ",Bangladesh", wantErr: true},
		{input: "Dhaka, ", wantErr: true},
		{input: "", wantErr: true},
		{input: "/Dhaka,Bangladesh", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLocation(tt.input)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInputFormat) {
					t.Fatalf("expected ErrInputFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubscribe_InitialisesFlags(t *testing.T) {
	store := newStore(t)
	fetcher := &stubFetcher{timings: model.Timings{"Fajr": "05:00", "Dhuhr": "12:00", "Isha": "19:30"}}
	svc := NewService(store, fetcher)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "42", "Dhaka,Bangladesh")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.City != "Dhaka" || sub.Country != "Bangladesh" {
		t.Errorf("unexpected location %q, %q", sub.City, sub.Country)
	}

	stored, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Notified) != len(stored.Timings) {
		t.Fatalf("notified has %d keys, timings has %d", len(stored.Notified), len(stored.Timings))
	}
	for name := range stored.Timings {
		notified, ok := stored.Notified[name]
		if !ok || notified {
			t.Errorf("notified[%q] = %v (present %v), want false", name, notified, ok)
		}
	}
}

func TestSubscribe_BadFormatLeavesStorageUntouched(t *testing.T) {
	store := newStore(t)
	fetcher := &stubFetcher{timings: model.Timings{"Fajr": "05:00"}}
	svc := NewService(store, fetcher)
	ctx := context.Background()

	for _, input := range []string{"Dhaka", "Dhaka,Bangladesh,Asia", "a,b,c,d", ""} {
		_, err := svc.Subscribe(ctx, "42", input)
		if !errors.Is(err, model.ErrInputFormat) {
			t.Errorf("%q: expected ErrInputFormat, got %v", input, err)
		}
	}

	if fetcher.Calls() != 0 {
		t.Errorf("fetcher was called %d times", fetcher.Calls())
	}

	subs, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("storage was mutated: %v", subs)
	}
}

func TestSubscribe_FetchFailureLeavesStorageUntouched(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	existing := model.NewSubscription("Dhaka", "Bangladesh", model.Timings{"Fajr": "05:00"}, "2026-03-01")
	if err := store.Put(ctx, "42", existing); err != nil {
		t.Fatal(err)
	}

	svc := NewService(store, &stubFetcher{err: errors.New("connection refused")})
	_, err := svc.Subscribe(ctx, "42", "Nowhere,Atlantis")
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}

	stored, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if stored.City != "Dhaka" || stored.Timings["Fajr"] != "05:00" {
		t.Errorf("record changed: %+v", stored)
	}
}

func TestSubscribe_ResubmitOverwrites(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	old := model.NewSubscription("Dhaka", "Bangladesh", model.Timings{"Fajr": "05:00", "Sunrise": "06:10"}, "2026-03-01")
	old.MarkNotified("Fajr", "2026-03-01")
	if err := store.Put(ctx, "42", old); err != nil {
		t.Fatal(err)
	}

	svc := NewService(store, &stubFetcher{timings: model.Timings{"Fajr": "04:30", "Maghrib": "18:00"}})
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local) }

	if _, err := svc.Subscribe(ctx, "42", "Cairo,Egypt"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	stored, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := stored.Timings["Sunrise"]; ok {
		t.Error("old timings were merged instead of replaced")
	}
	if stored.Notified["Fajr"] || stored.IsNotified("Fajr", "2026-03-01") {
		t.Error("notified flag survived resubmission")
	}
	if stored.City != "Cairo" || stored.FetchedOn != "2026-03-01" {
		t.Errorf("unexpected record %+v", stored)
	}
}

type failingStore struct {
	model.PrayerStore
}

func (failingStore) Put(context.Context, string, *model.Subscription) error {
	return errors.New("disk full")
}

func TestSubscribe_StorageFailureIsTyped(t *testing.T) {
	svc := NewService(failingStore{}, &stubFetcher{timings: model.Timings{"Fajr": "05:00"}})

	_, err := svc.Subscribe(context.Background(), "42", "Dhaka,Bangladesh")
	if !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("cause lost: %v", err)
	}
}
