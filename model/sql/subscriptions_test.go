package sql

import (
	"database/sql"
	"testing"

	"github.com/Brawl345/prayerbot/config"
)

func TestAssemble(t *testing.T) {
	subRows := []subscriptionRow{
		{ChatID: "1", City: "Dhaka", Country: "Bangladesh", FetchedOn: "2025-03-01"},
		{ChatID: "2", City: "Cairo", Country: "Egypt", FetchedOn: "2025-03-01"},
	}
	timingRows := []timingRow{
		{ChatID: "1", Name: "Fajr", Time: "05:00", Notified: true, NotifiedOn: sql.NullString{String: "2025-03-01", Valid: true}},
		{ChatID: "1", Name: "Dhuhr", Time: "12:05"},
		{ChatID: "2", Name: "Fajr", Time: "04:30"},
		{ChatID: "orphan", Name: "Fajr", Time: "04:00"},
	}

	subs := assemble(subRows, timingRows)

	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}

	dhaka := subs["1"]
	if dhaka.City != "Dhaka" || len(dhaka.Timings) != 2 {
		t.Fatalf("unexpected subscription: %+v", dhaka)
	}
	if !dhaka.IsNotified("Fajr", "2025-03-01") {
		t.Fatal("expected Fajr to be notified")
	}
	if dhaka.Notified["Dhuhr"] {
		t.Fatal("expected Dhuhr to be unnotified")
	}
	if _, ok := dhaka.NotifiedOn["Dhuhr"]; ok {
		t.Fatal("NULL notified_on must not produce a day stamp")
	}

	if len(subs["2"].Notified) != 1 {
		t.Fatalf("expected one flag for chat 2, got %d", len(subs["2"].Notified))
	}
}

func TestConnectionString(t *testing.T) {
	got := connectionString(config.MySQL{
		Host:     "db",
		Port:     "3306",
		User:     "bot",
		Password: "secret",
		Database: "prayers",
		TLS:      "false",
	})

	want := "bot:secret@tcp(db:3306)/prayers?charset=utf8mb4&parseTime=True&loc=Local&tls=false"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
