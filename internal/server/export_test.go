package server

import (
	"context"
	"time"

	"github.com/sakif/grocery-tracker/internal/model"
)

func addDueItem(s *Server, userID int64) error {
	now := time.Now().UTC()
	return s.db.AddItem(context.Background(), &model.GroceryItem{
		UserID:       userID,
		Name:         "Milk",
		PurchaseDate: now,
		ExpiryDate:   now.Add(time.Hour),
	})
}
