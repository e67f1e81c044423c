package models

import "time"

type NotificationType string

const (
	NotificationOrderPlaced NotificationType = "order_placed"
	NotificationOrderUpdate NotificationType = "order_update"
)

// Notification is a user-facing message pushed on notification-{userId}.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      any              `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
