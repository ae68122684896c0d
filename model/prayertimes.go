package model

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/exp/slices"
)

// DayLayout is the format of day stamps stored alongside notified flags.
const DayLayout = "2006-01-02"

var clockRegex = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})`)

type (
	// Timings maps a prayer name (e.g. "Fajr") to its time of day ("HH:MM").
	Timings map[string]string

	Subscription struct {
		City       string            `json:"city,omitempty"`
		Country    string            `json:"country,omitempty"`
		FetchedOn  string            `json:"fetched_on,omitempty"`
		Timings    Timings           `json:"timings"`
		Notified   map[string]bool   `json:"notified"`
		NotifiedOn map[string]string `json:"notified_on,omitempty"`
	}

	PrayerStore interface {
		All(ctx context.Context) (map[string]*Subscription, error)
		Get(ctx context.Context, chatID string) (*Subscription, error)
		Put(ctx context.Context, chatID string, sub *Subscription) error
		Delete(ctx context.Context, chatID string) error

		// Update hands the complete mapping to fn. Everything fn changes, adds
		// or deletes is written back as one unit; no other writer can interleave.
		Update(ctx context.Context, fn func(subs map[string]*Subscription) error) error

		Close() error
	}
)

func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseClock returns the minutes since midnight of a "HH:MM" string.
// Trailing content like " (+06)" is ignored.
func ParseClock(s string) (int, error) {
	matches := clockRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return hour*60 + minute, nil
}

// Names returns the prayer names ordered by time of day. Unparsable times
// go last, ties are broken by name.
func (t Timings) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}

	clock := func(name string) int {
		minutes, err := ParseClock(t[name])
		if err != nil {
			return 24 * 60
		}
		return minutes
	}

	slices.SortFunc(names, func(a, b string) int {
		if ca, cb := clock(a), clock(b); ca != cb {
			return ca - cb
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return names
}

func NewSubscription(city, country string, timings Timings, day string) *Subscription {
	sub := &Subscription{
		City:       city,
		Country:    country,
		FetchedOn:  day,
		Timings:    make(Timings, len(timings)),
		Notified:   make(map[string]bool, len(timings)),
		NotifiedOn: make(map[string]string),
	}
	for name, t := range timings {
		sub.Timings[name] = t
		sub.Notified[name] = false
	}
	return sub
}

// IsNotified reports whether the reminder for name was already sent on day.
func (s *Subscription) IsNotified(name, day string) bool {
	return s.Notified[name] && s.NotifiedOn[name] == day
}

func (s *Subscription) MarkNotified(name, day string) {
	if s.Notified == nil {
		s.Notified = make(map[string]bool)
	}
	if s.NotifiedOn == nil {
		s.NotifiedOn = make(map[string]string)
	}
	s.Notified[name] = true
	s.NotifiedOn[name] = day
}

// ResetStale clears every flag that was not set on day. Records written
// without day stamps count as stale.
func (s *Subscription) ResetStale(day string) bool {
	var changed bool
	for name, notified := range s.Notified {
		if notified && s.NotifiedOn[name] != day {
			s.Notified[name] = false
			delete(s.NotifiedOn, name)
			changed = true
		}
	}
	return changed
}

// ReplaceTimings swaps in freshly fetched timings. Flags already set on day
// survive for prayers that still exist.
func (s *Subscription) ReplaceTimings(timings Timings, day string) {
	notified := make(map[string]bool, len(timings))
	notifiedOn := make(map[string]string)
	replaced := make(Timings, len(timings))
	for name, t := range timings {
		replaced[name] = t
		notified[name] = s.IsNotified(name, day)
		if notified[name] {
			notifiedOn[name] = day
		}
	}
	s.Timings = replaced
	s.Notified = notified
	s.NotifiedOn = notifiedOn
	s.FetchedOn = day
}
