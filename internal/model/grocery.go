package model

import "time"

// GroceryItem is one purchased item with a fixed expiry date.
//
// LIFECYCLE:
//   - Created by AddItem with ExpiryDate = PurchaseDate + shelf life (days).
//     The expiry is computed once and never recalculated.
//   - Notified starts false and is flipped to true exactly once, by the
//     expiry sweep, after a reminder was delivered. Nothing resets it.
//   - Deleted only by an explicit DeleteItem.
type GroceryItem struct {
	ID           int64     `json:"id"            db:"id"`
	UserID       int64     `json:"user_id"       db:"user_id"`
	Name         string    `json:"name"          db:"name"`
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`
	ExpiryDate   time.Time `json:"expiry_date"   db:"expiry_date"`
	Notified     bool      `json:"notified"      db:"notified"`
}

// HistoryEntry records a purchase. It is appended alongside every new
// GroceryItem and is never updated or deleted, so it survives item deletion.
type HistoryEntry struct {
	ID           int64     `json:"id"            db:"id"`
	UserID       int64     `json:"user_id"       db:"user_id"`
	ItemName     string    `json:"name"          db:"item_name"`
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`
}
