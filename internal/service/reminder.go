package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/notify"
	"github.com/sakif/grocery-tracker/internal/repository"
)

// ReminderService sends a one-off expiry reminder on demand, outside the
// scheduled sweep.
type ReminderService struct {
	users  repository.UserRepository
	sender notify.Sender
	logger *slog.Logger
}

func NewReminderService(users repository.UserRepository, sender notify.Sender, logger *slog.Logger) *ReminderService {
	return &ReminderService{users: users, sender: sender, logger: logger}
}

// SendReminder texts the caller about itemName. The message always goes to
// the caller's registered phone; a different phone in the request is
// Forbidden so the endpoint can't be used to text arbitrary numbers.
// expiryDate is inserted into the message as given.
func (s *ReminderService) SendReminder(ctx context.Context, callerID int64, itemName, expiryDate, phone string) (string, error) {
	itemName = strings.TrimSpace(itemName)
	expiryDate = strings.TrimSpace(expiryDate)
	if itemName == "" {
		return "", apperror.ValidationFailed("item_name", "item_name is required")
	}
	if expiryDate == "" {
		return "", apperror.ValidationFailed("expiry_date", "expiry_date is required")
	}

	user, err := s.users.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized("account no longer exists")
		}
		return "", fmt.Errorf("service/reminder: looking up caller: %w", err)
	}

	if phone = strings.TrimSpace(phone); phone != "" && phone != user.PhoneNumber {
		return "", apperror.Forbidden("reminders can only be sent to your own phone number")
	}

	sid, err := s.sender.Send(ctx, user.PhoneNumber, notify.ExpiryMessage(itemName, expiryDate))
	if err != nil {
		s.logger.Warn("reminder delivery failed",
			slog.Int64("userID", callerID),
			slog.String("error", err.Error()),
		)
		return "", apperror.Delivery(err)
	}

	s.logger.Info("reminder sent", slog.Int64("userID", callerID), slog.String("sid", sid))
	return sid, nil
}
