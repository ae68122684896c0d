package tgUtils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

func TestIsUnreachable(t *testing.T) {
	blocked := &gotgbot.TelegramError{Code: 403, Description: ErrBlockedByUser}
	if !IsUnreachable(fmt.Errorf("send: %w", blocked)) {
		t.Fatal("expected wrapped blocked error to be unreachable")
	}

	flood := &gotgbot.TelegramError{Code: 429, Description: "Too Many Requests: retry after 5"}
	if IsUnreachable(flood) {
		t.Fatal("rate limiting is not permanent")
	}

	if IsUnreachable(errors.New("connection reset")) {
		t.Fatal("network errors are not permanent")
	}
}
