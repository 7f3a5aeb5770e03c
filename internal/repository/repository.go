package repository

import (
	"context"
	"time"

	"github.com/sakif/grocery-tracker/internal/model"
)

type UserRepository interface {
	// CreateUser inserts the user and fills in ID and CreatedAt.
	// Returns apperror.ErrDuplicate if the username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

type ItemRepository interface {
	// AddItem stores the item and its history entry in one transaction.
	AddItem(ctx context.Context, item *model.GroceryItem) error
	GetItem(ctx context.Context, id int64) (*model.GroceryItem, error)
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, userID int64) ([]model.GroceryItem, error)
	// ListExpiringBefore returns the user's items with expiry_date <= before,
	// notified or not.
	ListExpiringBefore(ctx context.Context, userID int64, before time.Time) ([]model.GroceryItem, error)
}

type HistoryRepository interface {
	// ListHistory returns newest purchases first.
	ListHistory(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
}

// NotificationRepository is the store surface the expiry sweep needs.
type NotificationRepository interface {
	// ListDueForNotification returns every unnotified item (any user) whose
	// expiry_date <= threshold, ordered by expiry then id.
	ListDueForNotification(ctx context.Context, threshold time.Time) ([]model.GroceryItem, error)
	// MarkNotified flips notified to true. It reports false when no row
	// changed: the item was deleted or already marked.
	MarkNotified(ctx context.Context, id int64) (bool, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}
