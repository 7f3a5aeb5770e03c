// Package service contains the business rules of the grocery tracker.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, checks ownership, computes dates
//	Repository (data layer)  → reads/writes SQLite
//
// Services take repository interfaces, never *sqlite.DB, so tests pass
// in-memory fakes. Every per-user operation receives the authenticated
// caller's id and runs it through CheckOwner before touching the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/model"
	"github.com/sakif/grocery-tracker/internal/repository"
)

const (
	MaxItemNameLength = 100
	MaxShelfLifeDays  = 3650

	// DefaultExpiryWindow is how far ahead "expiring soon" looks.
	DefaultExpiryWindow = 48 * time.Hour
)

// ItemService handles grocery items and the shopping history.
type ItemService struct {
	items   repository.ItemRepository
	history repository.HistoryRepository
	window  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewItemService creates an ItemService. A zero window uses DefaultExpiryWindow.
func NewItemService(
	items repository.ItemRepository,
	history repository.HistoryRepository,
	window time.Duration,
	logger *slog.Logger,
) *ItemService {
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &ItemService{
		items:   items,
		history: history,
		window:  window,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the time source. Tests pin "now" with it.
func (s *ItemService) WithClock(now func() time.Time) *ItemService {
	s.now = now
	return s
}

// AddItem records a purchase for userID. The expiry is purchase time plus
// shelfLifeDays and is never recalculated afterwards.
func (s *ItemService) AddItem(ctx context.Context, callerID, userID int64, name string, shelfLifeDays int) (*model.GroceryItem, error) {
	if err := CheckOwner(callerID, userID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "item name is required")
	}
	if len(name) > MaxItemNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("item name must be %d characters or less", MaxItemNameLength))
	}
	if shelfLifeDays < 0 || shelfLifeDays > MaxShelfLifeDays {
		return nil, apperror.ValidationFailed("shelf_life",
			fmt.Sprintf("shelf_life must be between 0 and %d days", MaxShelfLifeDays))
	}

	purchased := s.now().UTC()
	item := &model.GroceryItem{
		UserID:       userID,
		Name:         name,
		PurchaseDate: purchased,
		ExpiryDate:   purchased.AddDate(0, 0, shelfLifeDays),
	}

	if err := s.items.AddItem(ctx, item); err != nil {
		s.logger.Error("failed to add item",
			slog.String("name", name),
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/item: adding item: %w", err)
	}

	s.logger.Info("item added",
		slog.Int64("id", item.ID),
		slog.Int64("userID", userID),
		slog.String("name", item.Name),
		slog.Time("expiry", item.ExpiryDate),
	)
	return item, nil
}

// DeleteItem removes one of the caller's items. A missing item is NotFound;
// an item owned by someone else is Forbidden. Either way nothing changes.
func (s *ItemService) DeleteItem(ctx context.Context, callerID, itemID int64) error {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := CheckOwner(callerID, item.UserID); err != nil {
		return err
	}

	if err := s.items.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	s.logger.Info("item deleted", slog.Int64("id", itemID), slog.Int64("userID", callerID))
	return nil
}

// ListItems returns every item of userID.
func (s *ItemService) ListItems(ctx context.Context, callerID, userID int64) ([]model.GroceryItem, error) {
	if err := CheckOwner(callerID, userID); err != nil {
		return nil, err
	}
	return s.items.ListItems(ctx, userID)
}

// ListExpiringSoon returns userID's items expiring within the window,
// whether or not a reminder was already sent.
func (s *ItemService) ListExpiringSoon(ctx context.Context, callerID, userID int64) ([]model.GroceryItem, error) {
	if err := CheckOwner(callerID, userID); err != nil {
		return nil, err
	}
	return s.items.ListExpiringBefore(ctx, userID, s.now().Add(s.window))
}

// ListHistory returns userID's purchases, newest first.
func (s *ItemService) ListHistory(ctx context.Context, callerID, userID int64) ([]model.HistoryEntry, error) {
	if err := CheckOwner(callerID, userID); err != nil {
		return nil, err
	}
	return s.history.ListHistory(ctx, userID)
}
