package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory fakes instead of a mock framework: each one does
// just enough to behave like the SQLite repository, and a non-nil *Err field
// simulates a database failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users     map[int64]*model.User
	nextID    int64
	createErr error
	lookupErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Duplicate("user", "username", user.Username)
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

// fakeItemRepo implements both ItemRepository and HistoryRepository.
type fakeItemRepo struct {
	items   map[int64]*model.GroceryItem
	history []model.HistoryEntry
	nextID  int64
	addErr  error
	// lastBefore records the bound passed to ListExpiringBefore.
	lastBefore time.Time
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*model.GroceryItem), nextID: 1}
}

func (f *fakeItemRepo) AddItem(_ context.Context, item *model.GroceryItem) error {
	if f.addErr != nil {
		return f.addErr
	}
	item.ID = f.nextID
	f.nextID++
	copied := *item
	f.items[item.ID] = &copied
	f.history = append(f.history, model.HistoryEntry{
		ID:           int64(len(f.history) + 1),
		UserID:       item.UserID,
		ItemName:     item.Name,
		PurchaseDate: item.PurchaseDate,
	})
	return nil
}

func (f *fakeItemRepo) GetItem(_ context.Context, id int64) (*model.GroceryItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, apperror.NotFound("item", id)
	}
	copied := *it
	return &copied, nil
}

func (f *fakeItemRepo) DeleteItem(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("item", id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeItemRepo) ListItems(_ context.Context, userID int64) ([]model.GroceryItem, error) {
	return f.filter(func(it *model.GroceryItem) bool { return it.UserID == userID }), nil
}

func (f *fakeItemRepo) ListExpiringBefore(_ context.Context, userID int64, before time.Time) ([]model.GroceryItem, error) {
	f.lastBefore = before
	return f.filter(func(it *model.GroceryItem) bool {
		return it.UserID == userID && !it.ExpiryDate.After(before)
	}), nil
}

func (f *fakeItemRepo) ListHistory(_ context.Context, userID int64) ([]model.HistoryEntry, error) {
	out := []model.HistoryEntry{}
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].UserID == userID {
			out = append(out, f.history[i])
		}
	}
	return out, nil
}

func (f *fakeItemRepo) filter(keep func(*model.GroceryItem) bool) []model.GroceryItem {
	out := []model.GroceryItem{}
	for _, it := range f.items {
		if keep(it) {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type sentMessage struct {
	to, body string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return fmt.Sprintf("SM%03d", len(f.sent)), nil
}
