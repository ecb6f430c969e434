package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/idhini/core"
)

// Kinds
const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type Kind string

func (k Kind) IsValid() bool {
	switch k {
	case KindInfo, KindSuccess, KindWarning, KindError:
		return true
	}
	return false
}

// Notification is the durable record of one delivered-or-deliverable
// message to one recipient. The persisted row is the guarantee; realtime
// push on top of it is best-effort.
type Notification struct {
	ID             string     `json:"id"`
	RecipientID    string     `json:"recipient_id"`
	SenderID       *string    `json:"sender_id,omitempty"` // nil: system-generated
	ParentID       *string    `json:"parent_id,omitempty"` // non-nil: this is a reply
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Kind           Kind       `json:"kind"`
	Link           string     `json:"link,omitempty"`
	Attachments    []string   `json:"attachments,omitempty"`
	IsRead         bool       `json:"is_read"`
	IsAcknowledged bool       `json:"is_acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"` // UTC
	CreatedAt      time.Time  `json:"created_at"`                // UTC
}

func (n *Notification) IsSystem() bool { return n.SenderID == nil }

// NewNotification contains information needed to create a Notification.
// The recipient(s) are supplied by the service call, not the payload.
type NewNotification struct {
	Title       string   `json:"title" validate:"required"`
	Message     string   `json:"message" validate:"required"`
	Kind        Kind     `json:"kind" validate:"omitempty,oneof=info success warning error"`
	Link        string   `json:"link"`
	Attachments []string `json:"attachments"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	if nn.Kind == "" {
		nn.Kind = KindInfo
	}
	return validate.Struct(nn)
}

// Thread is a parent notification plus its direct replies ordered by
// creation time ascending.
type Thread struct {
	Parent  Notification   `json:"parent"`
	Replies []Notification `json:"replies"`
}

type Filter struct {
	UnreadOnly bool `query:"unread_only"`
	Limit      int  `query:"limit"`
	Offset     int  `query:"offset"`
}

// Event is a realtime push payload. Delivery is fire-and-forget; an event
// may silently drop if the recipient has no live connection.
type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event names
const (
	EventNotified     = "notification.created"
	EventAcknowledged = "notification.acknowledged"
)
