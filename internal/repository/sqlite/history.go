package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/grocery-tracker/internal/model"
	"github.com/sakif/grocery-tracker/internal/repository"
)

var _ repository.HistoryRepository = (*DB)(nil)

// ListHistory returns the user's purchases, newest first. Entries with the same
// purchase_date fall back to id descending so the order is stable.
func (db *DB) ListHistory(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, item_name, purchase_date
		 FROM shopping_history
		 WHERE user_id = ?
		 ORDER BY purchase_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemName, &e.PurchaseDate); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history: %w", err)
	}
	return entries, nil
}
