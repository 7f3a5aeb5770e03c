// Package sweep sends SMS reminders for items about to expire.
//
// Once per interval the Sweeper finds every unnotified item (across all
// users) expiring within the window, texts its owner and marks it notified.
// Each item is handled on its own: a failed send or a missing owner is
// logged and skipped, and the item stays unnotified so the next pass retries.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/notify"
	"github.com/sakif/grocery-tracker/internal/repository"
)

// DefaultWindow is how far ahead of expiry a reminder goes out.
const DefaultWindow = 48 * time.Hour

// Result summarises one sweep pass.
type Result struct {
	RunID   string
	Due     int // items selected by the query
	Sent    int // messages delivered and marked
	Skipped int // items left unnotified for the next pass
}

// Sweeper runs a single pass. Scheduler calls it on a timer.
type Sweeper struct {
	store  repository.NotificationRepository
	sender notify.Sender
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSweeper creates a Sweeper. A zero window uses DefaultWindow.
func NewSweeper(store repository.NotificationRepository, sender notify.Sender, window time.Duration, logger *slog.Logger) *Sweeper {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Sweeper{
		store:  store,
		sender: sender,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run performs one pass. Only the initial query can fail the whole pass;
// per-item problems are counted in Result.Skipped.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: xid.New().String()}
	log := s.logger.With(slog.String("run", res.RunID))

	threshold := s.now().Add(s.window)
	due, err := s.store.ListDueForNotification(ctx, threshold)
	if err != nil {
		return res, fmt.Errorf("sweep: listing due items: %w", err)
	}
	res.Due = len(due)

	for _, item := range due {
		if ctx.Err() != nil {
			// Shutting down: the rest stay unnotified for the next run.
			res.Skipped += res.Due - res.Sent - res.Skipped
			break
		}

		ilog := log.With(slog.Int64("item", item.ID), slog.Int64("user", item.UserID))

		user, err := s.store.GetUserByID(ctx, item.UserID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				ilog.Warn("skipping item: owner not found")
			} else {
				ilog.Error("skipping item: owner lookup failed", slog.String("error", err.Error()))
			}
			res.Skipped++
			continue
		}

		body := notify.ExpiryMessage(item.Name, notify.ExpiryDate(item.ExpiryDate))
		sid, err := s.sender.Send(ctx, user.PhoneNumber, body)
		if err != nil {
			ilog.Warn("skipping item: delivery failed", slog.String("error", err.Error()))
			res.Skipped++
			continue
		}

		// The message is out. If marking fails the item is texted again next
		// pass; the send and the update are not atomic.
		marked, err := s.store.MarkNotified(ctx, item.ID)
		if err != nil {
			ilog.Error("reminder sent but not marked", slog.String("sid", sid), slog.String("error", err.Error()))
			res.Skipped++
			continue
		}
		if !marked {
			// Deleted (or marked by someone else) between the query and now.
			ilog.Info("reminder sent for item that is gone or already marked", slog.String("sid", sid))
		}
		res.Sent++
	}

	log.Info("expiry sweep finished",
		slog.Int("due", res.Due),
		slog.Int("sent", res.Sent),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}
