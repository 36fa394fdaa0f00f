package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shareme.org/internal/auth"
	"shareme.org/internal/bucket"
	"shareme.org/internal/email"
	"shareme.org/internal/obs"
	"shareme.org/internal/realtime"
	"shareme.org/internal/social"
)

// ReadyProbe is a readiness check (for example a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// AccountStore is the credential administration surface behind the auth
// handlers. Implemented by the Postgres store; faked in tests.
type AccountStore interface {
	auth.CredentialStore
	CreateAccount(ctx context.Context, username, email, passwordHash string, roles []string) error
	EnableAccount(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	SaveRole(ctx context.Context, name string) error
	AddRoleToAccount(ctx context.Context, username, role string) error
	ListAccounts(ctx context.Context) ([]auth.AccountSummary, error)
}

// Presence is the subset of the presence tracker the handlers use.
type Presence interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	Heartbeat(ctx context.Context, userID string) error
	Online(ctx context.Context, userIDs []string) ([]string, error)
}

// Config wires the API's collaborators.
type Config struct {
	Authenticator *auth.Authenticator
	Accounts      AccountStore
	Social        *social.Service
	Registry      *realtime.Registry
	Events        *realtime.Router
	Presence      Presence
	Images        bucket.Storage
	Mail          email.Sender
	OneTimeTokens email.TokenStore
	ReadyProbe    ReadyProbe
	Version       string
	Policy        *Policy
}

// API is the HTTP layer.
type API struct {
	router        chi.Router
	policy        *Policy
	authn         *auth.Authenticator
	accounts      AccountStore
	social        *social.Service
	registry      *realtime.Registry
	events        *realtime.Router
	presence      Presence
	images        bucket.Storage
	mail          email.Sender
	oneTimeTokens email.TokenStore
	readyProbe    ReadyProbe
	version       string
}

func New(cfg Config) *API {
	a := &API{
		router:        chi.NewRouter(),
		policy:        cfg.Policy,
		authn:         cfg.Authenticator,
		accounts:      cfg.Accounts,
		social:        cfg.Social,
		registry:      cfg.Registry,
		events:        cfg.Events,
		presence:      cfg.Presence,
		images:        cfg.Images,
		mail:          cfg.Mail,
		oneTimeTokens: cfg.OneTimeTokens,
		readyProbe:    cfg.ReadyProbe,
		version:       cfg.Version,
	}
	if a.policy == nil {
		a.policy = DefaultPolicy()
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router

	// liveness / observability
	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Method(http.MethodGet, "/metrics", obs.Handler())
	r.Get("/error", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "shareme-api"})
	})

	// auth
	r.Post("/api/auth/login", a.Login)
	r.Post("/api/auth/refresh/token", a.Refresh)
	r.Post("/api/auth/user/createAccount", a.CreateAccount)
	r.Get("/api/registrationConfirm", a.ConfirmRegistration)
	r.Post("/api/recovery/password", a.StartPasswordRecovery)
	r.Post("/api/resend/registrationToken", a.ResendRegistrationToken)
	r.Put("/api/auth/password/token", a.ChangePasswordByToken)
	r.Put("/api/auth/password", a.ChangePassword)
	r.Post("/api/auth/role/save", a.SaveRole)
	r.Put("/api/auth/role/addToUser", a.AddRoleToUser)
	r.Get("/api/auth/accounts", a.ListAccounts)

	// posts
	r.Post("/api/post/save", a.CreatePost)
	r.Get("/api/post/get/{id}", a.GetPost)
	r.Get("/api/post/feed", a.Feed)
	r.Get("/api/post/user/{userId}", a.PostsByUser)
	r.Put("/api/post/update/{id}", a.UpdatePost)
	r.Delete("/api/post/delete/{id}", a.DeletePost)
	r.Put("/api/post/like/{id}", a.LikePost)
	r.Post("/api/post/share/{id}", a.SharePost)
	r.Post("/api/post/upload/{id}", a.UploadPostImage)
	r.Get("/api/post/download/*", a.DownloadImage)

	// comments
	r.Post("/api/comment/save/{postId}", a.AddComment)
	r.Post("/api/comment/reply/{id}", a.ReplyComment)
	r.Put("/api/comment/update/{id}", a.UpdateComment)
	r.Get("/api/comment/post/{postId}", a.CommentsByPost)
	r.Delete("/api/comment/delete/{id}", a.DeleteComment)

	// profiles
	r.Get("/api/user/me", a.Me)
	r.Get("/api/user/get/{id}", a.GetProfile)
	r.Get("/api/user/search", a.SearchProfiles)
	r.Post("/api/user/save", a.SaveProfile)
	r.Post("/api/user/upload/avatar", a.UploadAvatar)
	r.Post("/api/user/upload/cover", a.UploadCover)
	r.Get("/api/user/online", a.OnlineFriends)

	// friends
	r.Post("/api/friend/request/{targetId}", a.CreateFriendRequest)
	r.Put("/api/friend/accept/{id}", a.AcceptFriendRequest)
	r.Delete("/api/friend/request/{id}", a.DeleteFriendRequest)
	r.Delete("/api/friend/{userId}", a.Unfriend)
	r.Get("/api/friend/list", a.FriendRequests)

	// notifications
	r.Get("/api/notification/list", a.Notifications)
	r.Get("/api/notification/unreadCount", a.UnreadNotificationCount)
	r.Put("/api/notification/read/{id}", a.MarkNotificationRead)
	r.Delete("/api/notification/delete/{id}", a.DeleteNotification)

	// chat
	r.Get("/api/chat/conversation/{userId}", a.Conversation)
	r.Post("/api/chat/send/{userId}", a.SendChatMessage)
	r.Put("/api/chat/read/{userId}", a.MarkConversationRead)
	r.Get("/api/chat/unreadCount", a.UnreadMessageCount)

	// real-time
	r.Get("/ws", a.ServeWS)
}

// Handler returns the fully wrapped handler: metrics on the outside, then
// request id, logging, hardening, CORS and the auth filter.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- liveness handlers ---

func (a *API) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "shareme-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "shareme-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// identity pulls the authenticated identity; writeAuthError has already run
// for protected routes, so a miss here means a route was wired outside the
// policy table.
func identityOrFail(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.Anonymous() {
		writeAuthError(w, auth.ErrMissingCredentials)
		return auth.Identity{}, false
	}
	return identity, true
}
