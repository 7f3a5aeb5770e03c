package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/dbx"
	"github.com/sakif/grocery-tracker/internal/model"
	"github.com/sakif/grocery-tracker/internal/repository"
)

var (
	_ repository.ItemRepository         = (*DB)(nil)
	_ repository.NotificationRepository = (*DB)(nil)
)

const itemColumns = `id, user_id, name, purchase_date, expiry_date, notified`

// AddItem inserts a grocery item and its shopping-history entry.
//
// Both rows are written in one transaction: either the user sees the new item
// AND its history line, or neither. The caller sets PurchaseDate and
// ExpiryDate; AddItem fills in ID and forces Notified to false.
func (db *DB) AddItem(ctx context.Context, item *model.GroceryItem) error {
	item.PurchaseDate = item.PurchaseDate.UTC()
	item.ExpiryDate = item.ExpiryDate.UTC()
	item.Notified = false

	return dbx.WithTx(ctx, db.conn, func(ctx context.Context, tx dbx.DBTX) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO grocery_items (user_id, name, purchase_date, expiry_date, notified)
			 VALUES (?, ?, ?, ?, 0)`,
			item.UserID, item.Name, item.PurchaseDate, item.ExpiryDate,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting item %q: %w", item.Name, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new item id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_history (user_id, item_name, purchase_date)
			 VALUES (?, ?, ?)`,
			item.UserID, item.Name, item.PurchaseDate,
		); err != nil {
			return fmt.Errorf("sqlite: inserting history for %q: %w", item.Name, err)
		}

		item.ID = id
		return nil
	})
}

// GetItem retrieves a single item by ID.
func (db *DB) GetItem(ctx context.Context, id int64) (*model.GroceryItem, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM grocery_items WHERE id = ?`, id)

	var item model.GroceryItem
	err := row.Scan(&item.ID, &item.UserID, &item.Name, &item.PurchaseDate, &item.ExpiryDate, &item.Notified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %d: %w", id, err)
	}
	return &item, nil
}

// DeleteItem removes an item. The history entry is kept.
// Returns apperror.ErrNotFound if the item does not exist.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM grocery_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %d: %w", id, err)
	}

	// 0 rows affected means the item was never there (or already deleted).
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("item", id)
	}
	return nil
}

// ListItems returns every item of the user, in insertion order.
func (db *DB) ListItems(ctx context.Context, userID int64) ([]model.GroceryItem, error) {
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM grocery_items WHERE user_id = ? ORDER BY id`,
		userID,
	)
}

// ListExpiringBefore returns the user's items expiring at or before `before`,
// soonest first. Notified items are included.
func (db *DB) ListExpiringBefore(ctx context.Context, userID int64, before time.Time) ([]model.GroceryItem, error) {
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM grocery_items
		 WHERE user_id = ? AND expiry_date <= ?
		 ORDER BY expiry_date, id`,
		userID, before.UTC(),
	)
}

// ListDueForNotification is the sweep's query: every user's unnotified items
// expiring at or before threshold.
//
// DATETIME columns are TEXT in SQLite. Comparing them with <= is a string
// comparison, which orders correctly only because every value is written in
// UTC with the same layout.
func (db *DB) ListDueForNotification(ctx context.Context, threshold time.Time) ([]model.GroceryItem, error) {
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM grocery_items
		 WHERE notified = 0 AND expiry_date <= ?
		 ORDER BY expiry_date, id`,
		threshold.UTC(),
	)
}

// MarkNotified sets notified = true for one item and commits immediately.
//
// The WHERE notified = 0 guard keeps the flag monotonic and lets the caller
// tell "marked now" from "already marked or deleted" (ok == false).
func (db *DB) MarkNotified(ctx context.Context, id int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE grocery_items SET notified = 1 WHERE id = ? AND notified = 0`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking item %d notified: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rows == 1, nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]model.GroceryItem, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty result encodes as [] rather than null.
	items := []model.GroceryItem{}
	for rows.Next() {
		var item model.GroceryItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.PurchaseDate, &item.ExpiryDate, &item.Notified); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}
	return items, nil
}
