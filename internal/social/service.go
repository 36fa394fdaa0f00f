package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareme.org/internal/ids"
)

// Service holds the thin glue between the REST handlers and the
// repositories: input validation, ownership checks and the notification
// side effects of the friendship workflow.
type Service struct {
	profiles      ProfileRepo
	posts         PostRepo
	comments      CommentRepo
	friends       FriendRepo
	notifications NotificationRepo
	messages      MessageRepo
	now           func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the social service.
func NewService(profiles ProfileRepo, posts PostRepo, comments CommentRepo, friends FriendRepo, notifications NotificationRepo, messages MessageRepo, opts ...ServiceOption) *Service {
	s := &Service{
		profiles:      profiles,
		posts:         posts,
		comments:      comments,
		friends:       friends,
		notifications: notifications,
		messages:      messages,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- profiles ---

func (s *Service) Profile(ctx context.Context, id string) (*UserProfile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	return s.profiles.Find(ctx, id)
}

func (s *Service) ProfileByUsername(ctx context.Context, username string) (*UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.profiles.FindByUsername(ctx, username)
}

func (s *Service) SaveProfile(ctx context.Context, p *UserProfile) (*UserProfile, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: profile is required", ErrInvalidInput)
	}
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if p.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	if p.ID == "" {
		p.ID = ids.New()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) SearchProfiles(ctx context.Context, query string, limit int) ([]*UserProfile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.profiles.Search(ctx, query, limit)
}

// ChangeStatus persists the online flag for a profile.
func (s *Service) ChangeStatus(ctx context.Context, id string, online bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	return s.profiles.SetOnline(ctx, id, online)
}

// --- posts ---

func (s *Service) CreatePost(ctx context.Context, userID, content, imageKey string) (*Post, error) {
	userID = strings.TrimSpace(userID)
	content = strings.TrimSpace(content)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if content == "" && imageKey == "" {
		return nil, fmt.Errorf("%w: post needs content or an image", ErrInvalidInput)
	}
	now := s.now().UTC()
	post := &Post{
		ID:        ids.New(),
		UserID:    userID,
		Content:   content,
		ImageKey:  imageKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// SharePost puts a reference to an existing post on the sharing user's own
// timeline, with an optional caption. Sharing a share references the root
// post so a chain of shares never nests.
func (s *Service) SharePost(ctx context.Context, userID, postID, content string) (*Post, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	source, err := s.Post(ctx, postID)
	if err != nil {
		return nil, err
	}
	sharedID := source.ID
	if source.SharedPostID != "" {
		sharedID = source.SharedPostID
	}
	now := s.now().UTC()
	post := &Post{
		ID:           ids.New(),
		UserID:       userID,
		Content:      strings.TrimSpace(content),
		SharedPostID: sharedID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) Post(ctx context.Context, id string) (*Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}
	return s.posts.Find(ctx, id)
}

func (s *Service) PostsByUser(ctx context.Context, userID string, limit int) ([]*Post, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.posts.ListByUser(ctx, userID, limit)
}

// Feed returns the posts of the user and their friends, newest first.
func (s *Service) Feed(ctx context.Context, userID string, limit int) ([]*Post, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.posts.ListFeed(ctx, append(friendIDs, userID), limit)
}

// UpdatePost replaces the content of the caller's own post.
func (s *Service) UpdatePost(ctx context.Context, actorID, postID, content string) (*Post, error) {
	post, err := s.Post(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, ErrForbidden
	}
	content = strings.TrimSpace(content)
	if content == "" && post.ImageKey == "" {
		return nil, fmt.Errorf("%w: post needs content or an image", ErrInvalidInput)
	}
	post.Content = content
	post.UpdatedAt = s.now().UTC()
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the caller's own post.
func (s *Service) DeletePost(ctx context.Context, actorID, postID string) error {
	post, err := s.Post(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return ErrForbidden
	}
	return s.posts.Delete(ctx, post.ID)
}

// ToggleLike adds the user's like, or removes it when already present.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (*Post, error) {
	post, err := s.Post(ctx, postID)
	if err != nil {
		return nil, err
	}
	liked := true
	for _, id := range post.LikedBy {
		if id == userID {
			liked = false
			break
		}
	}
	if err := s.posts.SetLike(ctx, post.ID, userID, liked); err != nil {
		return nil, err
	}
	return s.posts.Find(ctx, post.ID)
}

// --- comments ---

func (s *Service) AddComment(ctx context.Context, userID, postID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	if _, err := s.Post(ctx, postID); err != nil {
		return nil, err
	}
	comment := &Comment{
		ID:        ids.New(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Save(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ReplyComment creates a comment answering an existing one. The reply lands
// on the parent's post regardless of what the caller claims.
func (s *Service) ReplyComment(ctx context.Context, userID, parentCommentID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	parent, err := s.comments.Find(ctx, parentCommentID)
	if err != nil {
		return nil, err
	}
	reply := &Comment{
		ID:        ids.New(),
		PostID:    parent.PostID,
		UserID:    userID,
		ParentID:  parent.ID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Save(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// UpdateComment replaces the comment text. Only the author may edit.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	comment, err := s.comments.Find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, ErrForbidden
	}
	comment.Content = content
	if err := s.comments.Save(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Service) CommentsByPost(ctx context.Context, postID string) ([]*Comment, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) error {
	comment, err := s.comments.Find(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		return ErrForbidden
	}
	return s.comments.Delete(ctx, comment.ID)
}

// --- friends ---

// CreateFriendRequest opens a pending request and notifies the target.
func (s *Service) CreateFriendRequest(ctx context.Context, requestingID, targetID string) (*FriendRequest, error) {
	requestingID = strings.TrimSpace(requestingID)
	targetID = strings.TrimSpace(targetID)
	if requestingID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: both user ids are required", ErrInvalidInput)
	}
	if requestingID == targetID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", ErrInvalidInput)
	}
	if existing, err := s.friends.FindBetween(ctx, requestingID, targetID); err == nil && existing != nil {
		return nil, ErrAlreadyExists
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	request := &FriendRequest{
		ID:               ids.New(),
		RequestingUserID: requestingID,
		TargetUserID:     targetID,
		Status:           FriendRequestPending,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.friends.Save(ctx, request); err != nil {
		return nil, err
	}

	if _, err := s.notify(ctx, targetID, NotificationFriendRequest, requestingID); err != nil {
		return nil, err
	}
	return request, nil
}

// AcceptFriendRequest marks the request accepted and notifies the requester.
func (s *Service) AcceptFriendRequest(ctx context.Context, actorID, requestID string) (*FriendRequest, error) {
	request, err := s.friends.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TargetUserID != actorID {
		return nil, ErrForbidden
	}
	if request.Status == FriendRequestAccepted {
		return request, nil
	}
	request.Status = FriendRequestAccepted
	if err := s.friends.Save(ctx, request); err != nil {
		return nil, err
	}

	if _, err := s.notify(ctx, request.RequestingUserID, NotificationFriendAccepted, actorID); err != nil {
		return nil, err
	}
	return request, nil
}

// DeleteFriendRequest withdraws a pending request; either side may do it.
func (s *Service) DeleteFriendRequest(ctx context.Context, actorID, requestID string) error {
	request, err := s.friends.Find(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequestingUserID != actorID && request.TargetUserID != actorID {
		return ErrForbidden
	}
	return s.friends.Delete(ctx, request.ID)
}

// Unfriend removes an accepted friendship edge between the actor and other.
func (s *Service) Unfriend(ctx context.Context, actorID, otherID string) error {
	request, err := s.friends.FindBetween(ctx, actorID, otherID)
	if err != nil {
		return err
	}
	if request.Status != FriendRequestAccepted {
		return ErrNotFound
	}
	return s.friends.Delete(ctx, request.ID)
}

func (s *Service) FriendRequests(ctx context.Context, userID string) ([]*FriendRequest, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.friends.ListForUser(ctx, userID)
}

func (s *Service) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.friends.FriendIDs(ctx, userID)
}

// --- notifications ---

func (s *Service) notify(ctx context.Context, ownerID, kind, actorID string) (*Notification, error) {
	notification := &Notification{
		ID:          ids.New(),
		OwnerUserID: ownerID,
		Kind:        kind,
		ActorUserID: actorID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.notifications.Save(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *Service) Notification(ctx context.Context, id string) (*Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: notification id is required", ErrInvalidInput)
	}
	return s.notifications.Find(ctx, id)
}

func (s *Service) Notifications(ctx context.Context, ownerUserID string) ([]*Notification, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, fmt.Errorf("%w: owner user id is required", ErrInvalidInput)
	}
	return s.notifications.ListByOwner(ctx, ownerUserID)
}

func (s *Service) UnreadNotificationCount(ctx context.Context, ownerUserID string) (int, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return 0, fmt.Errorf("%w: owner user id is required", ErrInvalidInput)
	}
	return s.notifications.UnreadCount(ctx, ownerUserID)
}

// MarkNotificationRead flips the read flag on the caller's own notification.
func (s *Service) MarkNotificationRead(ctx context.Context, actorID, id string) (*Notification, error) {
	notification, err := s.Notification(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification.OwnerUserID != actorID {
		return nil, ErrForbidden
	}
	if notification.Read {
		return notification, nil
	}
	notification.Read = true
	if err := s.notifications.Save(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *Service) DeleteNotification(ctx context.Context, actorID, id string) error {
	notification, err := s.Notification(ctx, id)
	if err != nil {
		return err
	}
	if notification.OwnerUserID != actorID {
		return ErrForbidden
	}
	return s.notifications.Delete(ctx, notification.ID)
}

// --- chat ---

func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, body string) (*Message, error) {
	senderID = strings.TrimSpace(senderID)
	receiverID = strings.TrimSpace(receiverID)
	body = strings.TrimSpace(body)
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: sender and receiver are required", ErrInvalidInput)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrInvalidInput)
	}
	message := &Message{
		ID:         ids.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		SentAt:     s.now().UTC(),
	}
	if err := s.messages.Save(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *Service) Conversation(ctx context.Context, userA, userB string, limit int) ([]*Message, error) {
	userA = strings.TrimSpace(userA)
	userB = strings.TrimSpace(userB)
	if userA == "" || userB == "" {
		return nil, fmt.Errorf("%w: both user ids are required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.messages.Conversation(ctx, userA, userB, limit)
}

// MarkConversationRead marks everything other sent to actor as read.
func (s *Service) MarkConversationRead(ctx context.Context, actorID, otherID string) error {
	actorID = strings.TrimSpace(actorID)
	otherID = strings.TrimSpace(otherID)
	if actorID == "" || otherID == "" {
		return fmt.Errorf("%w: both user ids are required", ErrInvalidInput)
	}
	return s.messages.MarkRead(ctx, otherID, actorID)
}

func (s *Service) UnreadMessageCount(ctx context.Context, receiverID string) (int, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return 0, fmt.Errorf("%w: receiver id is required", ErrInvalidInput)
	}
	return s.messages.UnreadCount(ctx, receiverID)
}
