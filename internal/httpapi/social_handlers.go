package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"shareme.org/internal/audit"
	"shareme.org/internal/ids"
	"shareme.org/internal/realtime"
	"shareme.org/internal/social"
)

// currentProfile resolves the authenticated subject to their profile. The
// token subject is the username; everything in the social domain is keyed
// by profile id.
func (a *API) currentProfile(w http.ResponseWriter, r *http.Request) (*social.UserProfile, bool) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return nil, false
	}
	profile, err := a.social.ProfileByUsername(r.Context(), identity.Subject)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return profile, true
}

// --- posts ---

func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Content  string `json:"content"`
		ImageKey string `json:"imageKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	post, err := a.social.CreatePost(r.Context(), profile.ID, req.Content, req.ImageKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) SharePost(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	// The caption is optional; a bodyless share is fine.
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	post, err := a.social.SharePost(r.Context(), profile.ID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.social.Post(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) Feed(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	posts, err := a.social.Feed(r.Context(), profile.ID, queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (a *API) PostsByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := a.social.PostsByUser(r.Context(), chi.URLParam(r, "userId"), queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (a *API) UpdatePost(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	post, err := a.social.UpdatePost(r.Context(), profile.ID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.social.DeletePost(r.Context(), profile.ID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) LikePost(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	post, err := a.social.ToggleLike(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// --- image upload/download ---

const maxImageBytes = 8 << 20

func (a *API) storeImage(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, "invalid_input", "an image content type is required")
		return "", false
	}
	key := prefix + "/" + ids.New()
	if err := a.images.Put(r.Context(), key, r.Body, contentType); err != nil {
		writeDomainError(w, err)
		return "", false
	}
	return key, true
}

func (a *API) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	postID := chi.URLParam(r, "id")
	post, err := a.social.Post(r.Context(), postID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if post.UserID != profile.ID {
		writeDomainError(w, social.ErrForbidden)
		return
	}
	key, ok := a.storeImage(w, r, "posts")
	if !ok {
		return
	}
	post.ImageKey = key
	if _, err := a.social.UpdatePost(r.Context(), profile.ID, postID, post.Content); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageKey": key})
}

// DownloadImage streams a stored image. Public: post and profile images are
// visible to anyone who has the key. The wildcard keeps slash-separated
// object keys intact.
func (a *API) DownloadImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	obj, err := a.images.Get(r.Context(), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer obj.Body.Close()
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, obj.Body)
}

// --- comments ---

func (a *API) AddComment(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	comment, err := a.social.AddComment(r.Context(), profile.ID, chi.URLParam(r, "postId"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (a *API) ReplyComment(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	reply, err := a.social.ReplyComment(r.Context(), profile.ID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (a *API) UpdateComment(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	comment, err := a.social.UpdateComment(r.Context(), profile.ID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (a *API) CommentsByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := a.social.CommentsByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (a *API) DeleteComment(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.social.DeleteComment(r.Context(), profile.ID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- profiles ---

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.social.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) SearchProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.social.SearchProfiles(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

// SaveProfile updates the authenticated user's profile fields. The route is
// public in the filter; an unauthenticated call still fails here because
// the profile is resolved from the token subject.
func (a *API) SaveProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	profile.FirstName = strings.TrimSpace(req.FirstName)
	profile.LastName = strings.TrimSpace(req.LastName)
	updated, err := a.social.SaveProfile(r.Context(), profile)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	a.uploadProfileImage(w, r, false)
}

func (a *API) UploadCover(w http.ResponseWriter, r *http.Request) {
	a.uploadProfileImage(w, r, true)
}

func (a *API) uploadProfileImage(w http.ResponseWriter, r *http.Request, cover bool) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	prefix := "avatars"
	if cover {
		prefix = "covers"
	}
	key, ok := a.storeImage(w, r, prefix)
	if !ok {
		return
	}
	if cover {
		profile.CoverImageKey = key
	} else {
		profile.ImageKey = key
	}
	if _, err := a.social.SaveProfile(r.Context(), profile); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageKey": key})
}

// OnlineFriends returns which of the caller's friends currently hold a live
// connection.
func (a *API) OnlineFriends(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	friendIDs, err := a.social.FriendIDs(r.Context(), profile.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	online, err := a.presence.Online(r.Context(), friendIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"online": online})
}

// --- friends ---

func (a *API) CreateFriendRequest(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	request, err := a.social.CreateFriendRequest(r.Context(), profile.ID, chi.URLParam(r, "targetId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.pingNotifications(r, request.TargetUserID)
	writeJSON(w, http.StatusCreated, request)
}

func (a *API) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	request, err := a.social.AcceptFriendRequest(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.pingNotifications(r, request.RequestingUserID)
	writeJSON(w, http.StatusOK, request)
}

// pingNotifications nudges the owner's live connections after a new
// notification row was written; clients refetch the list over REST.
func (a *API) pingNotifications(r *http.Request, ownerID string) {
	notifications, err := a.social.Notifications(r.Context(), ownerID)
	if err != nil || len(notifications) == 0 {
		return
	}
	latest := notifications[0]
	a.events.SendToUser(ownerID, realtime.NotificationPing{
		NotificationID: latest.ID,
		OwnerUserID:    ownerID,
	})
	_ = audit.LogEvent(r.Context(), "realtime.notification_ping", map[string]any{"owner": ownerID})
}

func (a *API) DeleteFriendRequest(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.social.DeleteFriendRequest(r.Context(), profile.ID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) Unfriend(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.social.Unfriend(r.Context(), profile.ID, chi.URLParam(r, "userId")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) FriendRequests(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	requests, err := a.social.FriendRequests(r.Context(), profile.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// --- notifications ---

func (a *API) Notifications(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	notifications, err := a.social.Notifications(r.Context(), profile.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (a *API) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	count, err := a.social.UnreadNotificationCount(r.Context(), profile.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (a *API) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	notification, err := a.social.MarkNotificationRead(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (a *API) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.social.DeleteNotification(r.Context(), profile.ID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- chat ---

func (a *API) Conversation(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	messages, err := a.social.Conversation(r.Context(), profile.ID, chi.URLParam(r, "userId"), queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// SendChatMessage persists the message and routes it to the receiver's live
// connections.
func (a *API) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	message, err := a.social.SendMessage(r.Context(), profile.ID, chi.URLParam(r, "userId"), req.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.events.SendToUser(message.ReceiverID, realtime.DirectMessage{
		ID:         message.ID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Body:       message.Body,
		SentAt:     message.SentAt,
	})
	writeJSON(w, http.StatusCreated, message)
}

func (a *API) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.social.MarkConversationRead(r.Context(), profile.ID, chi.URLParam(r, "userId")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) UnreadMessageCount(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	count, err := a.social.UnreadMessageCount(r.Context(), profile.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
