package social

import "context"

// Repositories are the persistence contract of the social domain: find,
// save and delete by id/username. Implementations live in store/pg.

// ProfileRepo manages user profiles.
type ProfileRepo interface {
	Find(ctx context.Context, id string) (*UserProfile, error)
	FindByUsername(ctx context.Context, username string) (*UserProfile, error)
	Save(ctx context.Context, p *UserProfile) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]*UserProfile, error)
	SetOnline(ctx context.Context, id string, online bool) error
}

// PostRepo manages timeline posts.
type PostRepo interface {
	Find(ctx context.Context, id string) (*Post, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*Post, error)
	ListFeed(ctx context.Context, userIDs []string, limit int) ([]*Post, error)
	Save(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
	SetLike(ctx context.Context, postID, userID string, liked bool) error
}

// CommentRepo manages post comments.
type CommentRepo interface {
	Find(ctx context.Context, id string) (*Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)
	Save(ctx context.Context, c *Comment) error
	Delete(ctx context.Context, id string) error
}

// FriendRepo manages friend requests and the resulting friendship edges.
type FriendRepo interface {
	Find(ctx context.Context, id string) (*FriendRequest, error)
	FindBetween(ctx context.Context, userA, userB string) (*FriendRequest, error)
	ListForUser(ctx context.Context, userID string) ([]*FriendRequest, error)
	Save(ctx context.Context, fr *FriendRequest) error
	Delete(ctx context.Context, id string) error
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// NotificationRepo manages per-user notifications.
type NotificationRepo interface {
	Find(ctx context.Context, id string) (*Notification, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]*Notification, error)
	UnreadCount(ctx context.Context, ownerUserID string) (int, error)
	Save(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id string) error
}

// MessageRepo manages chat messages.
type MessageRepo interface {
	Find(ctx context.Context, id string) (*Message, error)
	Conversation(ctx context.Context, userA, userB string, limit int) ([]*Message, error)
	Save(ctx context.Context, m *Message) error
	MarkRead(ctx context.Context, senderID, receiverID string) error
	UnreadCount(ctx context.Context, receiverID string) (int, error)
}
