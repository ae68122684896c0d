package model

import (
	"reflect"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "05:00", want: 300},
		{in: "5:07", want: 307},
		{in: "23:59", want: 1439},
		{in: "04:12 (+06)", want: 252},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimingsNames_SortedByClock(t *testing.T) {
	timings := Timings{
		"Isha":    "19:30",
		"Fajr":    "05:00",
		"Broken":  "soon",
		"Dhuhr":   "12:10",
		"Sunrise": "06:20",
		"Imsak":   "05:00",
	}

	got := timings.Names()
	want := []string{"Fajr", "Imsak", "Sunrise", "Dhuhr", "Isha", "Broken"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestNewSubscription_FlagsMatchTimings(t *testing.T) {
	timings := Timings{"Fajr": "05:00", "Dhuhr": "13:00"}
	sub := NewSubscription("Dhaka", "Bangladesh", timings, "2025-03-01")

	if len(sub.Notified) != len(timings) {
		t.Fatalf("expected %d notified entries, got %d", len(timings), len(sub.Notified))
	}
	for name := range timings {
		notified, ok := sub.Notified[name]
		if !ok {
			t.Fatalf("missing notified entry for %s", name)
		}
		if notified {
			t.Fatalf("expected %s to start unnotified", name)
		}
	}

	// the subscription must not alias the caller's map
	timings["Asr"] = "16:00"
	if _, ok := sub.Timings["Asr"]; ok {
		t.Fatal("subscription timings alias the input map")
	}
}

func TestSubscription_DayRollover(t *testing.T) {
	sub := NewSubscription("Dhaka", "Bangladesh", Timings{"Fajr": "05:00"}, "2025-03-01")
	sub.MarkNotified("Fajr", "2025-03-01")

	if !sub.IsNotified("Fajr", "2025-03-01") {
		t.Fatal("expected Fajr to be notified on the same day")
	}
	if sub.IsNotified("Fajr", "2025-03-02") {
		t.Fatal("flag from yesterday must not count today")
	}

	if sub.ResetStale("2025-03-01") {
		t.Fatal("ResetStale on the same day must not change anything")
	}
	if !sub.ResetStale("2025-03-02") {
		t.Fatal("expected ResetStale to clear yesterday's flag")
	}
	if sub.Notified["Fajr"] {
		t.Fatal("expected Fajr flag to be false after reset")
	}
}

func TestSubscription_ResetStaleLegacyRecord(t *testing.T) {
	// Records without day stamps only carry the boolean flags.
	sub := &Subscription{
		Timings:  Timings{"Fajr": "05:00"},
		Notified: map[string]bool{"Fajr": true},
	}

	if !sub.ResetStale("2025-03-02") {
		t.Fatal("expected legacy flag to be reset")
	}
	if sub.Notified["Fajr"] {
		t.Fatal("expected Fajr flag to be false")
	}
}

func TestSubscription_ReplaceTimingsKeepsTodaysFlags(t *testing.T) {
	sub := NewSubscription("Dhaka", "Bangladesh", Timings{"Fajr": "05:00", "Isha": "19:00"}, "2025-03-01")
	sub.MarkNotified("Fajr", "2025-03-02")

	sub.ReplaceTimings(Timings{"Fajr": "04:59", "Maghrib": "18:01"}, "2025-03-02")

	if sub.FetchedOn != "2025-03-02" {
		t.Fatalf("expected fetched_on to be updated, got %s", sub.FetchedOn)
	}
	if !sub.IsNotified("Fajr", "2025-03-02") {
		t.Fatal("expected today's Fajr flag to survive the refresh")
	}
	if _, ok := sub.Notified["Isha"]; ok {
		t.Fatal("expected Isha to be dropped")
	}
	if sub.Notified["Maghrib"] {
		t.Fatal("expected new prayer to start unnotified")
	}
	if len(sub.Notified) != len(sub.Timings) {
		t.Fatalf("notified keys (%d) differ from timings keys (%d)", len(sub.Notified), len(sub.Timings))
	}
}
