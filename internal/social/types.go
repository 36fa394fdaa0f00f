package social

import "time"

// UserProfile is the public face of an account: what other users see on the
// timeline and in search. The credential side (password hash, roles) lives
// in the auth store.
type UserProfile struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Online        bool      `json:"online"`
	ImageKey      string    `json:"imageKey,omitempty"`
	CoverImageKey string    `json:"coverImageKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Post is a timeline entry. LikedBy holds profile ids; a second like from
// the same user removes the first (toggle). A share is a regular post whose
// SharedPostID points at the original; shares always reference the root
// post, never another share.
type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Content      string    `json:"content"`
	ImageKey     string    `json:"imageKey,omitempty"`
	SharedPostID string    `json:"sharedPostId,omitempty"`
	LikedBy      []string  `json:"likedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Comment belongs to exactly one post. A reply carries the parent comment
// in ParentID and lives on the same post as its parent.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	ParentID  string    `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// FriendRequest statuses.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

// FriendRequest links a requesting profile to a target profile.
type FriendRequest struct {
	ID               string    `json:"id"`
	RequestingUserID string    `json:"requestingUserId"`
	TargetUserID     string    `json:"targetUserId"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Notification kinds.
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
)

// Notification is owned by exactly one profile and references the actor
// that triggered it.
type Notification struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"ownerUserId"`
	Kind        string    `json:"kind"`
	ActorUserID string    `json:"actorUserId"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Message is a persisted chat entry between two profiles.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	SentAt     time.Time `json:"sentAt"`
}
