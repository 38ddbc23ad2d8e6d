package entities

import "time"

// NotificationKind classifies a notification for rendering
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Valid reports whether k is one of the known kinds
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationInfo, NotificationSuccess, NotificationError:
		return true
	}
	return false
}

// Notification is a transient, auto-expiring message about an operation outcome
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Kind        NotificationKind `json:"kind"`
	CreatedAt   time.Time        `json:"created_at"`
}
