package status

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Brawl345/prayerbot/metrics"
)

func TestHealthz(t *testing.T) {
	tests := []struct {
		name    string
		storage Pinger
		want    int
	}{
		{name: "no storage check", storage: nil, want: http.StatusOK},
		{name: "storage ok", storage: PingFunc(func(context.Context) error { return nil }), want: http.StatusOK},
		{name: "storage down", storage: PingFunc(func(context.Context) error { return errors.New("down") }), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewRouter(tt.storage).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	metrics.MustRegister()
	metrics.IncReminderSent()

	rec := httptest.NewRecorder()
	NewRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "prayerbot_reminders_sent_total") {
		t.Error("reminder counter missing from /metrics")
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
