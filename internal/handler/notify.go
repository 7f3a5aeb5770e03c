package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Reminder is satisfied by *service.ReminderService.
type Reminder interface {
	SendReminder(ctx context.Context, callerID int64, itemName, expiryDate, phone string) (string, error)
}

// NotifyHandler serves the on-demand reminder endpoint.
type NotifyHandler struct {
	reminder Reminder
	logger   *slog.Logger
}

func NewNotifyHandler(reminder Reminder, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{reminder: reminder, logger: logger}
}

type sendReminderRequest struct {
	ItemName    string `json:"item_name"`
	ExpiryDate  string `json:"expiry_date"`
	PhoneNumber string `json:"phone_number"` // optional; must match the caller's own
}

type sendReminderResponse struct {
	Message string `json:"message"`
	SID     string `json:"sid"`
}

// HandleSendExpiryNotification texts the caller about one item right away.
//
// HTTP: POST /send_expiry_notification
// BODY: {"item_name": "Milk", "expiry_date": "2026-03-12"}
func (h *NotifyHandler) HandleSendExpiryNotification(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req sendReminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	sid, err := h.reminder.SendReminder(r.Context(), callerID, req.ItemName, req.ExpiryDate, req.PhoneNumber)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sendReminderResponse{Message: "Notification sent successfully", SID: sid})
}
