package handler

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/auth"
	"github.com/sakif/grocery-tracker/internal/model"
)

// ItemService is what ItemHandler needs from service.ItemService.
type ItemService interface {
	AddItem(ctx context.Context, callerID, userID int64, name string, shelfLifeDays int) (*model.GroceryItem, error)
	DeleteItem(ctx context.Context, callerID, itemID int64) error
	ListItems(ctx context.Context, callerID, userID int64) ([]model.GroceryItem, error)
	ListExpiringSoon(ctx context.Context, callerID, userID int64) ([]model.GroceryItem, error)
	ListHistory(ctx context.Context, callerID, userID int64) ([]model.HistoryEntry, error)
}

// ItemHandler serves the grocery list, expiring-soon and history endpoints.
// All routes sit behind auth.RequireAuth.
type ItemHandler struct {
	items  ItemService
	logger *slog.Logger
}

func NewItemHandler(items ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

// The list DTOs pick exactly the fields each endpoint has always returned.

type itemResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PurchaseDate time.Time `json:"purchase_date"`
	ExpiryDate   time.Time `json:"expiry_date"`
}

type expiringResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ExpiryDate time.Time `json:"expiry_date"`
}

type historyResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// Pointers tell "missing" apart from zero.
type addItemRequest struct {
	Name      string   `json:"name"`
	ShelfLife *float64 `json:"shelf_life"`
	UserID    *int64   `json:"user_id"`
}

// HandleAddItem records a purchase.
//
// HTTP: POST /add_item
// BODY: {"name": "Milk", "shelf_life": 7, "user_id": 1}
func (h *ItemHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.ShelfLife == nil {
		writeError(w, h.logger, apperror.ValidationFailed("shelf_life", "shelf_life is required"))
		return
	}
	if days := *req.ShelfLife; days != math.Trunc(days) || math.Abs(days) > math.MaxInt32 {
		writeError(w, h.logger, apperror.ValidationFailed("shelf_life", "shelf_life must be a whole number of days"))
		return
	}
	if req.UserID == nil {
		writeError(w, h.logger, apperror.ValidationFailed("user_id", "user_id is required"))
		return
	}

	item, err := h.items.AddItem(r.Context(), callerID, *req.UserID, req.Name, int(*req.ShelfLife))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, MessageResponse{Message: "Item added successfully", ID: item.ID})
}

// HandleDeleteItem removes one item.
//
// HTTP: DELETE /delete_item/{id}
func (h *ItemHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.items.DeleteItem(r.Context(), callerID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, MessageResponse{Message: "Item deleted successfully"})
}

// HandleList returns all of a user's items.
//
// HTTP: GET /get_list/{user_id}
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.callerAndUser(w, r)
	if !ok {
		return
	}

	items, err := h.items.ListItems(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse{ID: it.ID, Name: it.Name, PurchaseDate: it.PurchaseDate, ExpiryDate: it.ExpiryDate})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

// HandleExpiringSoon returns items expiring within the configured window.
//
// HTTP: GET /get_expiring_soon/{user_id}
func (h *ItemHandler) HandleExpiringSoon(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.callerAndUser(w, r)
	if !ok {
		return
	}

	items, err := h.items.ListExpiringSoon(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]expiringResponse, 0, len(items))
	for _, it := range items {
		out = append(out, expiringResponse{ID: it.ID, Name: it.Name, ExpiryDate: it.ExpiryDate})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

// HandleHistory returns the purchase history, newest first.
//
// HTTP: GET /get_shopping_history/{user_id}
func (h *ItemHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.callerAndUser(w, r)
	if !ok {
		return
	}

	entries, err := h.items.ListHistory(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyResponse{ID: e.ID, Name: e.ItemName, PurchaseDate: e.PurchaseDate})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *ItemHandler) callerAndUser(w http.ResponseWriter, r *http.Request) (callerID, userID int64, ok bool) {
	callerID, ok = callerFrom(w, r, h.logger)
	if !ok {
		return 0, 0, false
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, h.logger, err)
		return 0, 0, false
	}
	return callerID, userID, true
}

// callerFrom reads the id RequireAuth stored. A missing id means the route
// was mounted without the middleware; answer 401 rather than guess.
func callerFrom(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, logger, apperror.Unauthorized("valid authentication required"))
		return 0, false
	}
	return id, true
}
