package prayertimes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Brawl345/prayerbot/config"
	"github.com/Brawl345/prayerbot/metrics"
	"github.com/Brawl345/prayerbot/model"
	"github.com/Brawl345/prayerbot/utils"
	"github.com/Brawl345/prayerbot/utils/tgUtils"
	"github.com/PaulSonOfLars/gotgbot/v2"
)

const minutesPerDay = 24 * 60

type (
	// Sender is the part of *gotgbot.Bot the reminder loop needs.
	Sender interface {
		SendMessage(chatId int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
	}

	Reminder struct {
		store   model.PrayerStore
		fetcher Fetcher
		sender  Sender
		cfg     config.Reminder
		now     func() time.Time

		refreshing atomic.Bool
		refreshWg  sync.WaitGroup

		mu sync.Mutex
		// location -> day a refresh was last attempted, so a failing location
		// is tried once per day and not on every tick.
		refreshAttempts map[Location]string
	}

	// tickState carries what one tick already did across store retries.
	tickState struct {
		day         string
		nowMinute   int
		delivered   map[string]map[string]bool
		unreachable map[string]bool
	}
)

func NewReminder(store model.PrayerStore, fetcher Fetcher, sender Sender, cfg config.Reminder) *Reminder {
	return &Reminder{
		store:           store,
		fetcher:         fetcher,
		sender:          sender,
		cfg:             cfg,
		now:             time.Now,
		refreshAttempts: make(map[Location]string),
	}
}

// IsDue reports whether a prayer at clock ("HH:MM") should be announced at
// nowMinute (minutes since midnight). The announcement is due from lead
// before the prayer until window after that. The target wraps around
// midnight but the window does not extend into the next day.
func IsDue(clock string, nowMinute int, lead, window time.Duration) (bool, error) {
	prayerMinute, err := model.ParseClock(clock)
	if err != nil {
		return false, err
	}

	target := (prayerMinute - int(lead.Minutes())) % minutesPerDay
	if target < 0 {
		target += minutesPerDay
	}

	diff := nowMinute - target
	return diff >= 0 && diff <= int(window.Minutes()), nil
}

// Run ticks immediately and then every configured interval until ctx is
// cancelled. It returns once a running refresh has finished.
func (r *Reminder) Run(ctx context.Context) {
	log.Info().
		Dur("interval", r.cfg.Interval).
		Dur("lead", r.cfg.Lead).
		Dur("window", r.cfg.Window).
		Msg("Starting reminder loop")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	defer r.waitRefresh()

	r.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Reminder loop stopped")
			return
		case <-ticker.C:
			r.runTick(ctx)
		}
	}
}

func (r *Reminder) runTick(ctx context.Context) {
	sent, err := r.Tick(ctx)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			metrics.IncTick("conflict")
			log.Warn().Int("sent", sent).Msg("Subscriptions kept changing during reminder tick, retrying next tick")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.IncTick("error")
		log.Err(err).Msg("Reminder tick failed")
		return
	}

	metrics.IncTick("ok")
	if sent > 0 {
		log.Debug().Int("sent", sent).Msg("Sent reminders")
	}
}

// startRefresh fetches timings not fetched on day in the background. At most
// one refresh runs at a time; ticks never wait for it.
func (r *Reminder) startRefresh(ctx context.Context, day string) {
	if !r.cfg.RefreshDaily || r.fetcher == nil {
		return
	}
	if !r.refreshing.CompareAndSwap(false, true) {
		return
	}

	r.refreshWg.Add(1)
	go func() {
		defer r.refreshWg.Done()
		defer r.refreshing.Store(false)
		r.refresh(ctx, day)
	}()
}

func (r *Reminder) waitRefresh() {
	r.refreshWg.Wait()
}

// refresh fetches every stale location once and writes the result to all
// subscriptions of that location.
func (r *Reminder) refresh(ctx context.Context, day string) {
	subs, err := r.store.All(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to read subscriptions for refresh")
		return
	}

	r.mu.Lock()
	for loc, attempted := range r.refreshAttempts {
		if attempted != day {
			delete(r.refreshAttempts, loc)
		}
	}
	var stale []Location
	for _, sub := range subs {
		if sub == nil || sub.FetchedOn == day || sub.City == "" || sub.Country == "" {
			continue
		}
		loc := Location{City: sub.City, Country: sub.Country}
		if r.refreshAttempts[loc] == day {
			continue
		}
		r.refreshAttempts[loc] = day
		stale = append(stale, loc)
	}
	r.mu.Unlock()

	fresh := make(map[Location]model.Timings, len(stale))
	for _, loc := range stale {
		timings, err := r.fetcher.FetchTimings(ctx, loc.City, loc.Country)
		if err != nil {
			log.Err(err).
				Str("city", loc.City).
				Str("country", loc.Country).
				Msg("Failed to refresh prayer times, keeping old ones")
			continue
		}
		fresh[loc] = timings
	}
	if len(fresh) == 0 {
		return
	}

	var updated int
	err = r.store.Update(ctx, func(subs map[string]*model.Subscription) error {
		updated = 0
		for _, sub := range subs {
			if sub == nil || sub.FetchedOn == day {
				continue
			}
			timings, ok := fresh[Location{City: sub.City, Country: sub.Country}]
			if !ok {
				continue
			}
			sub.ReplaceTimings(timings, day)
			updated++
		}
		return nil
	})
	if err != nil {
		log.Err(err).Msg("Failed to store refreshed prayer times")
		r.mu.Lock()
		for loc := range fresh {
			delete(r.refreshAttempts, loc)
		}
		r.mu.Unlock()
		return
	}

	log.Debug().
		Int("locations", len(fresh)).
		Int("subscriptions", updated).
		Msg("Refreshed prayer times")
}

// Tick runs one iteration of the reminder loop and returns the number of
// reminders sent. A conflicting write is retried once; reminders delivered
// by the first attempt are only marked, never sent again.
func (r *Reminder) Tick(ctx context.Context) (int, error) {
	now := r.now()
	state := &tickState{
		day:         model.Day(now),
		nowMinute:   now.Hour()*60 + now.Minute(),
		delivered:   make(map[string]map[string]bool),
		unreachable: make(map[string]bool),
	}

	r.startRefresh(ctx, state.day)

	err := r.store.Update(ctx, func(subs map[string]*model.Subscription) error {
		r.apply(state, subs)
		return nil
	})
	if errors.Is(err, model.ErrConflict) {
		log.Debug().Msg("Subscriptions changed during reminder tick, retrying")
		err = r.store.Update(ctx, func(subs map[string]*model.Subscription) error {
			r.apply(state, subs)
			return nil
		})
	}

	return state.sent(), err
}

func (r *Reminder) apply(state *tickState, subs map[string]*model.Subscription) {
	metrics.SetSubscriptions(len(subs))

	for chatID, sub := range subs {
		if sub == nil {
			continue
		}
		if state.unreachable[chatID] {
			delete(subs, chatID)
			continue
		}

		sub.ResetStale(state.day)
		for name := range state.delivered[chatID] {
			if _, ok := sub.Timings[name]; ok {
				sub.MarkNotified(name, state.day)
			}
		}

		if !r.remind(state, chatID, sub) {
			log.Info().
				Str("chat_id", chatID).
				Msg("Chat is unreachable, removing subscription")
			state.unreachable[chatID] = true
			delete(subs, chatID)
		}
	}
}

func (s *tickState) sent() int {
	var n int
	for _, names := range s.delivered {
		n += len(names)
	}
	return n
}

// remind sends every reminder of sub that is due. It returns false when
// Telegram reports the chat as permanently unreachable.
func (r *Reminder) remind(state *tickState, chatID string, sub *model.Subscription) bool {
	var (
		target int64
		parsed bool
	)

	for _, name := range sub.Timings.Names() {
		if sub.IsNotified(name, state.day) {
			continue
		}

		due, err := IsDue(sub.Timings[name], state.nowMinute, r.cfg.Lead, r.cfg.Window)
		if err != nil {
			log.Warn().
				Err(err).
				Str("chat_id", chatID).
				Str("prayer", name).
				Msg("Skipping malformed prayer time")
			continue
		}
		if !due {
			continue
		}

		if !parsed {
			target, err = strconv.ParseInt(chatID, 10, 64)
			if err != nil {
				log.Warn().
					Err(err).
					Str("chat_id", chatID).
					Msg("Skipping subscription with invalid chat id")
				return true
			}
			parsed = true
		}

		_, err = r.sender.SendMessage(target, reminderText(name, r.cfg.Lead), utils.NotificationSendOptions())
		if err != nil {
			if tgUtils.IsUnreachable(err) {
				metrics.IncReminderFailure("unreachable")
				return false
			}
			metrics.IncReminderFailure("error")
			log.Err(fmt.Errorf("sending reminder: %w", err)).
				Str("chat_id", chatID).
				Str("prayer", name).
				Send()
			continue
		}

		sub.MarkNotified(name, state.day)
		if state.delivered[chatID] == nil {
			state.delivered[chatID] = make(map[string]bool)
		}
		state.delivered[chatID][name] = true
		metrics.IncReminderSent()
	}

	return true
}
