// Package notify delivers expiry reminders by SMS.
//
// Sender is the seam: the Twilio implementation talks to the real API, and
// LogSender writes the message to the log for development setups without
// Twilio credentials.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"
)

// Sender delivers a text message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, to, body string) (sid string, err error)
}

// ExpiryMessage is the reminder text for an item expiring on the given day.
//
//	Your Milk is expiring on 2026-03-12. Use it soon!
func ExpiryMessage(itemName, expiry string) string {
	return fmt.Sprintf("Your %s is expiring on %s. Use it soon!", itemName, expiry)
}

// ExpiryDate formats an expiry timestamp as the calendar day used in reminders.
func ExpiryDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// LogSender "sends" by logging. Each message gets a fake sid prefixed "LOG"
// so callers can still return one.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) (string, error) {
	sid := "LOG" + xid.New().String()
	s.logger.Info("sms (not sent, twilio not configured)",
		slog.String("sid", sid),
		slog.String("to", to),
		slog.String("body", body),
	)
	return sid, nil
}
