package domain

import "time"

// Notification is a message handed to the external notification collaborator.
type Notification struct {
	ID          string
	UserID      string
	Title       string
	Message     string
	Kind        NotificationKind
	CreatedAt   time.Time
	DeliveredAt *time.Time
}
