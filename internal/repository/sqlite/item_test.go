package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/model"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func addTestItem(t *testing.T, db *DB, userID int64, name string, purchased time.Time, shelfDays int) *model.GroceryItem {
	t.Helper()
	item := &model.GroceryItem{
		UserID:       userID,
		Name:         name,
		PurchaseDate: purchased,
		ExpiryDate:   purchased.AddDate(0, 0, shelfDays),
	}
	require.NoError(t, db.AddItem(context.Background(), item))
	return item
}

// =========================================================================
// ADD TESTS
// =========================================================================

func TestAddItem_WritesItemAndHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	item := addTestItem(t, db, 1, "Milk", baseTime, 5)
	require.NotZero(t, item.ID)

	got, err := db.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", got.Name)
	assert.Equal(t, int64(1), got.UserID)
	assert.False(t, got.Notified)
	assert.True(t, got.PurchaseDate.Equal(baseTime), "purchase_date = %v", got.PurchaseDate)
	assert.True(t, got.ExpiryDate.Equal(baseTime.AddDate(0, 0, 5)), "expiry_date = %v", got.ExpiryDate)

	history, err := db.ListHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Milk", history[0].ItemName)
	assert.True(t, history[0].PurchaseDate.Equal(baseTime))
}

func TestAddItem_HistoryFailureRollsBackItem(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.conn.ExecContext(ctx, `DROP TABLE shopping_history`)
	require.NoError(t, err)

	err = db.AddItem(ctx, &model.GroceryItem{
		UserID:       1,
		Name:         "Milk",
		PurchaseDate: baseTime,
		ExpiryDate:   baseTime.AddDate(0, 0, 5),
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM grocery_items`).Scan(&n))
	assert.Zero(t, n, "item row must not outlive its failed history insert")
}

func TestAddItem_StoresUTC(t *testing.T) {
	db := newTestDB(t)

	loc := time.FixedZone("UTC+5", 5*60*60)
	item := addTestItem(t, db, 1, "Bread", baseTime.In(loc), 2)

	got, err := db.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, got.ExpiryDate.Equal(baseTime.AddDate(0, 0, 2)))
	assert.Equal(t, time.UTC, item.ExpiryDate.Location())
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteItem(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	item := addTestItem(t, db, 1, "Eggs", baseTime, 10)

	require.NoError(t, db.DeleteItem(ctx, item.ID))

	_, err := db.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// History is append-only and survives the delete.
	history, err := db.ListHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDeleteItem_NotFoundLeavesStoreUnchanged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	addTestItem(t, db, 1, "Eggs", baseTime, 10)

	err := db.DeleteItem(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	items, err := db.ListItems(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListItems_OnlyOwnersItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	addTestItem(t, db, 1, "Milk", baseTime, 5)
	addTestItem(t, db, 2, "Cheese", baseTime, 20)
	addTestItem(t, db, 1, "Apples", baseTime, 7)

	items, err := db.ListItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, "Apples", items[1].Name)
}

func TestListItems_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	items, err := db.ListItems(context.Background(), 77)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListExpiringBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	addTestItem(t, db, 1, "Yogurt", baseTime, 1)
	addTestItem(t, db, 1, "Rice", baseTime, 300)
	edge := addTestItem(t, db, 1, "Butter", baseTime, 2)
	addTestItem(t, db, 2, "Fish", baseTime, 1)

	// Notified items still count as expiring soon.
	_, err := db.MarkNotified(ctx, edge.ID)
	require.NoError(t, err)

	items, err := db.ListExpiringBefore(ctx, 1, baseTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Yogurt", items[0].Name)
	assert.Equal(t, "Butter", items[1].Name, "expiry exactly at the bound is included")
}

// =========================================================================
// NOTIFICATION TESTS
// =========================================================================

func TestListDueForNotification_AllUsersUnnotifiedOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := addTestItem(t, db, 1, "Milk", baseTime, 2)
	b := addTestItem(t, db, 2, "Fish", baseTime, 1)
	done := addTestItem(t, db, 2, "Ham", baseTime, 1)
	addTestItem(t, db, 1, "Flour", baseTime, 90)

	_, err := db.MarkNotified(ctx, done.ID)
	require.NoError(t, err)

	due, err := db.ListDueForNotification(ctx, baseTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, b.ID, due[0].ID, "soonest expiry first")
	assert.Equal(t, a.ID, due[1].ID)
}

func TestMarkNotified_IsMonotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	item := addTestItem(t, db, 1, "Milk", baseTime, 1)

	changed, err := db.MarkNotified(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = db.MarkNotified(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, changed, "second mark should not change anything")

	got, err := db.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)
}

func TestMarkNotified_DeletedItem(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	item := addTestItem(t, db, 1, "Milk", baseTime, 1)
	require.NoError(t, db.DeleteItem(ctx, item.ID))

	changed, err := db.MarkNotified(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}
