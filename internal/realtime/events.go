package realtime

import "time"

// Event kinds carried over the real-time channel.
const (
	KindStatus       = "change-status"
	KindMessage      = "message"
	KindNotification = "notification"
)

// Event is a typed payload addressed to exactly one subject.
type Event interface {
	Kind() string
}

// StatusChange announces a user going online or offline.
type StatusChange struct {
	UserID string `json:"id"`
	Online bool   `json:"online"`
}

func (StatusChange) Kind() string { return KindStatus }

// DirectMessage is a chat message pushed to the receiver's live connections.
type DirectMessage struct {
	ID         string    `json:"id,omitempty"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
}

func (DirectMessage) Kind() string { return KindMessage }

// NotificationPing tells the owner that a notification exists; the client
// fetches the full record over the REST API.
type NotificationPing struct {
	NotificationID string `json:"notificationId"`
	OwnerUserID    string `json:"ownerUserId"`
}

func (NotificationPing) Kind() string { return KindNotification }

// Envelope is the wire form: a type tag plus the event payload.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Wrap builds the wire envelope for evt.
func Wrap(evt Event) Envelope {
	return Envelope{Type: evt.Kind(), Payload: evt}
}
