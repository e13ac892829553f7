package models

import "time"

// Activity event types.
const (
	EventSignup         = "SIGNUP"
	EventLogin          = "LOGIN"
	EventLogout         = "LOGOUT"
	EventPasswordChange = "PASSWORD_CHANGE"
	EventProductAdd     = "PRODUCT_ADD"
	EventBuy            = "BUY"
	EventReturn         = "RETURN"
)

// ActivityEvent is a single audit log entry.
type ActivityEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	UserID      int       `json:"user_id,omitempty"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
