package model

import (
	"fmt"
	"time"
)

// NotificationType classifies a notification for display.
type NotificationType string

// Notification types.
const (
	NotificationInfo    NotificationType = "INFO"
	NotificationWarning NotificationType = "WARNING"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationError   NotificationType = "ERROR"
)

// Notification is a message for an owner. Delivery happens elsewhere.
type Notification struct {
	CreatedAt time.Time
	OwnerID   string
	Title     string
	Message   string
	Type      NotificationType
	ActionURL string
	ID        int64
	IsRead    bool
}

// AlertKind is the threshold a budget alert reports.
type AlertKind string

// Budget alert kinds.
const (
	AlertWarning  AlertKind = "WARNING"
	AlertExceeded AlertKind = "EXCEEDED"
)

// NotificationType maps the alert to the notification type it raises.
func (k AlertKind) NotificationType() NotificationType {
	if k == AlertExceeded {
		return NotificationError
	}
	return NotificationWarning
}

// BudgetAlert records that an alert was raised for a budget window. Its key is
// (OwnerID, BudgetID, Kind, WindowStart); a second alert with the same key is a
// duplicate.
type BudgetAlert struct {
	WindowStart    time.Time
	CreatedAt      time.Time
	OwnerID        string
	Kind           AlertKind
	BudgetID       int64
	NotificationID int64
}

// Key renders the dedup key for logs.
func (a BudgetAlert) Key() string {
	return fmt.Sprintf("%s/%d/%s/%s", a.OwnerID, a.BudgetID, a.Kind, a.WindowStart.Format(time.DateOnly))
}
